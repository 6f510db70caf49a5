package ledger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mohammed-seid/hfc-south-plant/internal/blobstore"
	"github.com/mohammed-seid/hfc-south-plant/internal/model"
)

// Writer appends corrections to the shared ledger with optimistic concurrency
// control: read the current version, append, write back only if unchanged.
// The ledger is never held locked across the read-then-write gap; the CAS on
// the store is the only protection against concurrent writers.
type Writer struct {
	store blobstore.Client
	key   string
	now   func() time.Time
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithClock overrides the timestamp source (for tests).
func WithClock(now func() time.Time) WriterOption {
	return func(w *Writer) { w.now = now }
}

// NewWriter returns a writer for the ledger object at key.
func NewWriter(store blobstore.Client, key string, opts ...WriterOption) *Writer {
	w := &Writer{store: store, key: key, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Commit appends newRecords to the ledger as one atomic batch.
//
// The existing sequence is preserved in order; newRecords keep their relative
// order at the end. On blobstore.ErrVersionConflict the caller gets
// ErrConflict and must reload before retrying: replaying blindly could
// double-append if the conflicting writer already persisted the same
// corrections. Any other store failure surfaces as ErrStoreUnavailable.
// Nothing local is mutated on any failure path.
func (w *Writer) Commit(ctx context.Context, newRecords []model.CorrectionRecord) (blobstore.Version, error) {
	if len(newRecords) == 0 {
		return blobstore.VersionAbsent, nil
	}

	existing := []model.CorrectionRecord(nil)
	base := blobstore.VersionAbsent

	obj, err := w.store.Get(ctx, w.key)
	switch {
	case errors.Is(err, blobstore.ErrNotFound):
		// First commit ever creates the ledger.
	case err != nil:
		return blobstore.VersionAbsent, classifyStoreErr(err, "read ledger before commit")
	default:
		existing, err = decodeRecords(obj.Content)
		if err != nil {
			return blobstore.VersionAbsent, err
		}
		base = obj.Version
	}

	merged := make([]model.CorrectionRecord, 0, len(existing)+len(newRecords))
	merged = append(merged, existing...)
	merged = append(merged, newRecords...)

	content, err := encodeRecords(merged)
	if err != nil {
		return blobstore.VersionAbsent, err
	}

	version, err := w.store.Put(ctx, w.key, content, base)
	if err != nil {
		return blobstore.VersionAbsent, classifyStoreErr(err, "append to ledger")
	}

	zap.L().Info("ledger append committed",
		zap.Int("records", len(newRecords)),
		zap.Int("ledger_size", len(merged)),
		zap.String("version", string(version)),
	)
	return version, nil
}

// CommitResult reports the outcome of a workspace commit.
type CommitResult struct {
	Version   blobstore.Version `json:"version"`
	Committed int               `json:"committed"`
	// Skipped lists the incomplete drafts left untouched in the workspace.
	Skipped []Incomplete `json:"skipped,omitempty"`
}

// CommitAll commits every currently-complete draft in the session's
// workspace, regardless of group. Incomplete drafts are silently skipped and
// stay in the workspace; partial success is the intended semantics, with the
// skipped reasons reported for display. With nothing complete, no store call
// is made.
func (w *Writer) CommitAll(ctx context.Context, s *Session) (CommitResult, error) {
	return w.commitDrafts(ctx, s, s.Workspace.Drafts(), false)
}

// CommitGroup commits the drafts for one grouping key (subject). Unlike bulk
// commit, the whole group must be complete: a farmer's corrections are
// submitted as one call outcome, not piecemeal. Returns ErrIncompleteGroup
// with the missing reasons attached otherwise.
func (w *Writer) CommitGroup(ctx context.Context, s *Session, groupingKey string) (CommitResult, error) {
	return w.commitDrafts(ctx, s, s.Workspace.DraftsForGroup(groupingKey), true)
}

func (w *Writer) commitDrafts(ctx context.Context, s *Session, drafts []model.Draft, requireAll bool) (CommitResult, error) {
	var (
		eligible []model.Draft
		skipped  []Incomplete
	)
	for _, d := range drafts {
		if ok, reason := Validate(d); !ok {
			skipped = append(skipped, *reason)
			continue
		}
		eligible = append(eligible, d)
	}

	if requireAll && len(skipped) > 0 {
		return CommitResult{Skipped: skipped}, ErrIncompleteGroup
	}
	if len(eligible) == 0 {
		return CommitResult{Skipped: skipped}, nil
	}

	now := w.now().UTC()
	records := make([]model.CorrectionRecord, 0, len(eligible))
	keys := make([]model.ErrorKey, 0, len(eligible))
	for _, d := range eligible {
		records = append(records, buildRecord(d, s.Enumerator, now))
		keys = append(keys, d.Key())
	}

	version, err := w.Commit(ctx, records)
	if err != nil {
		// Fail closed: drafts stay in the workspace, nothing marked resolved.
		return CommitResult{}, err
	}

	s.Workspace.markCommitted(keys)
	return CommitResult{Version: version, Committed: len(records), Skipped: skipped}, nil
}

// buildRecord promotes a complete draft into the durable, append-only record
// shape.
func buildRecord(d model.Draft, correctedBy string, now time.Time) model.CorrectionRecord {
	r := d.Record
	return model.CorrectionRecord{
		ErrorType:       r.Category,
		Enumerator:      r.Enumerator,
		Supervisor:      r.Supervisor,
		Woreda:          r.Woreda,
		Kebele:          r.Kebele,
		FarmerName:      r.FarmerName,
		Phone:           r.Phone,
		SubmissionDate:  r.SubmissionDate,
		SubjectID:       r.SubjectID,
		Variable:        r.Variable,
		OriginalValue:   r.ReportedValue,
		CorrectValue:    d.CorrectedValue,
		Explanation:     d.Explanation,
		CorrectedBy:     correctedBy,
		CorrectionDate:  now.Format("02-Jan-06"),
		Timestamp:       now.Format(time.RFC3339),
		OutsideRange:    d.OutsideExpectedRange,
		DiffersFromBoth: d.DiffersFromBoth,
		ReferenceValue:  r.Reference(),
	}
}
