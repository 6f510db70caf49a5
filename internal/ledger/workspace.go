package ledger

import (
	"sort"

	"github.com/mohammed-seid/hfc-south-plant/internal/model"
)

// Workspace holds one session's in-progress corrections keyed by error
// identity, plus the keys already committed this run. It is owned exclusively
// by one session; single-writer by construction, no synchronization.
type Workspace struct {
	drafts  map[model.ErrorKey]model.Draft
	pending model.KeySet
}

// NewWorkspace returns an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{
		drafts:  make(map[model.ErrorKey]model.Draft),
		pending: make(model.KeySet),
	}
}

// Upsert stores a draft under its key, overwriting any previous draft for the
// same error. Last write per key wins.
func (w *Workspace) Upsert(d model.Draft) { w.drafts[d.Key()] = d }

// Remove discards the draft for key, if any.
func (w *Workspace) Remove(key model.ErrorKey) { delete(w.drafts, key) }

// Get returns the draft for key.
func (w *Workspace) Get(key model.ErrorKey) (model.Draft, bool) {
	d, ok := w.drafts[key]
	return d, ok
}

// Len returns the number of drafts in progress.
func (w *Workspace) Len() int { return len(w.drafts) }

// Drafts returns every draft in a deterministic order (sorted by key).
func (w *Workspace) Drafts() []model.Draft {
	out := make([]model.Draft, 0, len(w.drafts))
	for _, d := range w.drafts {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().String() < out[j].Key().String()
	})
	return out
}

// DraftsForGroup returns the drafts belonging to one grouping key (subject),
// in the same deterministic order as Drafts.
func (w *Workspace) DraftsForGroup(groupingKey string) []model.Draft {
	var out []model.Draft
	for _, d := range w.Drafts() {
		if d.GroupingKey() == groupingKey {
			out = append(out, d)
		}
	}
	return out
}

// Pending returns the keys committed by this session since the last full
// reload. The returned set is live; callers must not mutate it.
func (w *Workspace) Pending() model.KeySet { return w.pending }

// markCommitted promotes keys out of the draft map into the pending set.
// Called by the writer only after the store accepted the append.
func (w *Workspace) markCommitted(keys []model.ErrorKey) {
	for _, k := range keys {
		w.pending.Add(k)
		delete(w.drafts, k)
	}
}

// Session carries one enumerator's identity and workspace through every
// ledger call. There is no ambient session state.
type Session struct {
	Enumerator string
	Workspace  *Workspace
}

// NewSession creates a session for the given enumerator with an empty
// workspace.
func NewSession(enumerator string) *Session {
	return &Session{Enumerator: enumerator, Workspace: NewWorkspace()}
}
