package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mohammed-seid/hfc-south-plant/internal/ingest"
	"github.com/mohammed-seid/hfc-south-plant/internal/ledger"
	"github.com/mohammed-seid/hfc-south-plant/internal/model"
	"github.com/mohammed-seid/hfc-south-plant/internal/stats"
)

type sessionContextKey struct{}

func withSessionContext(ctx context.Context, sess *clientSession) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

func sessionFrom(ctx context.Context) *clientSession {
	sess, _ := ctx.Value(sessionContextKey{}).(*clientSession)
	return sess
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enumerator string `json:"enumerator"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, ok := s.roster[req.Enumerator]; !ok && !s.isAdmin(req.Enumerator) {
		writeError(w, http.StatusForbidden, "unknown enumerator")
		return
	}

	token := s.newSession(req.Enumerator)
	writeJSON(w, http.StatusCreated, map[string]string{
		"token":      token,
		"enumerator": req.Enumerator,
	})
}

// handleListErrors returns the session enumerator's unresolved errors:
// everything in the feeds minus what the ledger already holds for them and
// minus what this session committed since its last reload.
func (s *Server) handleListErrors(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	feeds, err := s.loader.Load(r.Context())
	if err != nil {
		s.writeLoadError(w, err)
		return
	}

	resolved, version, err := s.reader.LoadResolvedKeys(r.Context(), sess.Enumerator)
	if err != nil {
		s.writeLoadError(w, err)
		return
	}

	sess.mu.Lock()
	pending := sess.Workspace.Pending()
	remaining := ledger.FilterUnresolved(feeds.ForEnumerator(sess.Enumerator), resolved, pending)
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"ledger_version": version,
		"errors":         remaining,
	})
}

func (s *Server) handleUpsertDraft(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	var req struct {
		Category       model.ErrorCategory `json:"category"`
		SubjectID      string              `json:"subject_id"`
		Variable       string              `json:"variable"`
		CorrectedValue float64             `json:"corrected_value"`
		Explanation    string              `json:"explanation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	feeds, err := s.loader.Load(r.Context())
	if err != nil {
		s.writeLoadError(w, err)
		return
	}

	key := model.ErrorKey{Category: req.Category, SubjectID: req.SubjectID, Variable: req.Variable}
	record, ok := findRecord(feeds, key)
	if !ok {
		writeError(w, http.StatusNotFound, "no such error in the feeds")
		return
	}
	if record.Enumerator != sess.Enumerator {
		writeError(w, http.StatusForbidden, "error belongs to another enumerator")
		return
	}

	draft := ledger.NewDraft(record, req.CorrectedValue, req.Explanation)

	sess.mu.Lock()
	sess.Workspace.Upsert(draft)
	sess.mu.Unlock()

	complete, reason := ledger.Validate(draft)
	writeJSON(w, http.StatusOK, map[string]any{
		"draft":    draft,
		"complete": complete,
		"reason":   reason,
	})
}

func (s *Server) handleRemoveDraft(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	variable, err := url.PathUnescape(chi.URLParam(r, "variable"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid variable")
		return
	}
	key := model.ErrorKey{
		Category:  model.ErrorCategory(chi.URLParam(r, "category")),
		SubjectID: chi.URLParam(r, "subject"),
		Variable:  variable,
	}

	sess.mu.Lock()
	sess.Workspace.Remove(key)
	sess.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	group := r.URL.Query().Get("group")

	sess.mu.Lock()
	var drafts []model.Draft
	if group == "" {
		drafts = sess.Workspace.Drafts()
	} else {
		drafts = sess.Workspace.DraftsForGroup(group)
	}
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, ledger.Summarize(drafts))
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	var req struct {
		Group string `json:"group"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	// The session lock is held across the store round-trip: this session's
	// requests serialize, other sessions are unaffected.
	sess.mu.Lock()
	var (
		result ledger.CommitResult
		err    error
	)
	if req.Group == "" {
		result, err = s.writer.CommitAll(r.Context(), sess.Session)
	} else {
		result, err = s.writer.CommitGroup(r.Context(), sess.Session, req.Group)
	}
	sess.mu.Unlock()

	switch {
	case errors.Is(err, ledger.ErrIncompleteGroup):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "group has incomplete drafts",
			"skipped": result.Skipped,
		})
		return
	case errors.Is(err, ledger.ErrConflict):
		writeError(w, http.StatusConflict, "ledger changed since last read, reload and retry")
		return
	case err != nil:
		zap.L().Error("commit failed", zap.String("enumerator", sess.Enumerator), zap.Error(err))
		writeError(w, http.StatusBadGateway, "correction store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleStats returns the admin report. Restricted to admin sessions.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if !s.isAdmin(sess.Enumerator) {
		writeError(w, http.StatusForbidden, "admin only")
		return
	}

	feeds, err := s.loader.Load(r.Context())
	if err != nil {
		s.writeLoadError(w, err)
		return
	}
	corrections, _, err := s.reader.Load(r.Context())
	if err != nil {
		s.writeLoadError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats.BuildReport(feeds, corrections, s.rosterList()))
}

func (s *Server) rosterList() []string {
	out := make([]string, 0, len(s.roster))
	for u := range s.roster {
		out = append(out, u)
	}
	return out
}

func (s *Server) writeLoadError(w http.ResponseWriter, err error) {
	zap.L().Error("load failed", zap.Error(err))
	if errors.Is(err, ingest.ErrNoSubjectColumn) {
		writeError(w, http.StatusInternalServerError, "feeds have no resolvable subject id column")
		return
	}
	writeError(w, http.StatusBadGateway, "data store unavailable")
}

func findRecord(feeds *ingest.FeedSet, key model.ErrorKey) (model.ErrorRecord, bool) {
	for _, r := range feeds.All() {
		if r.Key() == key {
			return r, true
		}
	}
	return model.ErrorRecord{}, false
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
