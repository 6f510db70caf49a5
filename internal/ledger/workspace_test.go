package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspace(t *testing.T) {
	t.Parallel()

	t.Run("upsert overwrites by key", func(t *testing.T) {
		t.Parallel()
		w := NewWorkspace()
		r := constraintRecord("F001", "maize_kg")

		w.Upsert(NewDraft(r, 10, "first"))
		w.Upsert(NewDraft(r, 20, "second"))

		require.Equal(t, 1, w.Len())
		d, ok := w.Get(r.Key())
		require.True(t, ok)
		assert.Equal(t, 20.0, d.CorrectedValue)
		assert.Equal(t, "second", d.Explanation)
	})

	t.Run("remove discards a draft", func(t *testing.T) {
		t.Parallel()
		w := NewWorkspace()
		r := constraintRecord("F001", "maize_kg")
		w.Upsert(NewDraft(r, 10, "x"))

		w.Remove(r.Key())
		assert.Zero(t, w.Len())
		_, ok := w.Get(r.Key())
		assert.False(t, ok)
	})

	t.Run("drafts for group", func(t *testing.T) {
		t.Parallel()
		w := NewWorkspace()
		w.Upsert(NewDraft(constraintRecord("F001", "maize_kg"), 1, "x"))
		w.Upsert(NewDraft(constraintRecord("F001", "seedlings"), 2, "x"))
		w.Upsert(NewDraft(constraintRecord("F002", "maize_kg"), 3, "x"))

		group := w.DraftsForGroup("F001")
		require.Len(t, group, 2)
		for _, d := range group {
			assert.Equal(t, "F001", d.GroupingKey())
		}
	})

	t.Run("drafts order is deterministic", func(t *testing.T) {
		t.Parallel()
		w := NewWorkspace()
		w.Upsert(NewDraft(constraintRecord("F002", "b"), 1, "x"))
		w.Upsert(NewDraft(constraintRecord("F001", "a"), 2, "x"))
		w.Upsert(NewDraft(constraintRecord("F001", "z"), 3, "x"))

		first := w.Drafts()
		second := w.Drafts()
		assert.Equal(t, first, second)
		assert.Equal(t, "F001", first[0].GroupingKey())
	})

	t.Run("new session starts empty", func(t *testing.T) {
		t.Parallel()
		s := NewSession("mesay")
		assert.Equal(t, "mesay", s.Enumerator)
		assert.Zero(t, s.Workspace.Len())
		assert.Empty(t, s.Workspace.Pending())
	})
}
