package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-seid/hfc-south-plant/internal/model"
)

func TestNewDraftFlags(t *testing.T) {
	t.Parallel()

	t.Run("constraint outside parsed range", func(t *testing.T) {
		t.Parallel()
		r := constraintRecord("F001", "maize_kg")
		r.ConstraintRule = "max 50, min 0"

		d := NewDraft(r, 75, "ok")
		assert.True(t, d.OutsideExpectedRange)
		assert.False(t, d.DiffersFromBoth)
	})

	t.Run("constraint inside range", func(t *testing.T) {
		t.Parallel()
		r := constraintRecord("F001", "maize_kg")
		r.ConstraintRule = "between 10 and 200"

		d := NewDraft(r, 75, "ok")
		assert.False(t, d.OutsideExpectedRange)
	})

	t.Run("logic matching reported value", func(t *testing.T) {
		t.Parallel()
		r := logicRecord("F001", "plot_count", "100", "100")
		d := NewDraft(r, 100, "")
		assert.False(t, d.DiffersFromBoth)
	})

	t.Run("logic differing from both", func(t *testing.T) {
		t.Parallel()
		r := logicRecord("F001", "plot_count", "100", "200")
		d := NewDraft(r, 999, "verified by phone")
		assert.True(t, d.DiffersFromBoth)
	})

	t.Run("logic matching reference value only", func(t *testing.T) {
		t.Parallel()
		r := logicRecord("F001", "plot_count", "100", "200")
		d := NewDraft(r, 200, "")
		assert.False(t, d.DiffersFromBoth)
	})

	t.Run("non-numeric feed values never match", func(t *testing.T) {
		t.Parallel()
		r := logicRecord("F001", "plot_count", "n/a", "unknown")
		d := NewDraft(r, 5, "")
		assert.True(t, d.DiffersFromBoth)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("out-of-range constraint with short explanation", func(t *testing.T) {
		t.Parallel()
		r := constraintRecord("F001", "maize_kg")
		r.ConstraintRule = "max 50, min 0"

		d := NewDraft(r, 75, "ok")
		require.True(t, d.OutsideExpectedRange)

		ok, reason := Validate(d)
		assert.False(t, ok)
		require.NotNil(t, reason)
		assert.Equal(t, ReasonExplanationShort, reason.Code)
	})

	t.Run("out-of-range constraint with 25-char explanation", func(t *testing.T) {
		t.Parallel()
		r := constraintRecord("F001", "maize_kg")
		r.ConstraintRule = "max 50, min 0"

		d := NewDraft(r, 75, strings.Repeat("x", 25))
		ok, reason := Validate(d)
		assert.True(t, ok)
		assert.Nil(t, reason)
	})

	t.Run("empty explanation always fails", func(t *testing.T) {
		t.Parallel()
		d := NewDraft(logicRecord("F001", "plot_count", "100", "100"), 100, "   ")
		ok, reason := Validate(d)
		assert.False(t, ok)
		require.NotNil(t, reason)
		assert.Equal(t, ReasonMissingExplanation, reason.Code)
	})

	t.Run("unflagged logic passes with any explanation", func(t *testing.T) {
		t.Parallel()
		d := NewDraft(logicRecord("F001", "plot_count", "100", "100"), 100, "x")
		ok, _ := Validate(d)
		assert.True(t, ok)
	})

	t.Run("length floors count characters, not bytes", func(t *testing.T) {
		t.Parallel()
		r := constraintRecord("F001", "maize_kg")
		r.ConstraintRule = "max 50, min 0"

		// 13 Amharic characters but 33 UTF-8 bytes; must still be too short.
		short := NewDraft(r, 75, "ማሳው በጣም ሰፊ ነው")
		ok, reason := Validate(short)
		assert.False(t, ok)
		require.NotNil(t, reason)
		assert.Equal(t, ReasonExplanationShort, reason.Code)

		long := NewDraft(r, 75, strings.Repeat("በ", 20))
		ok, _ = Validate(long)
		assert.True(t, ok)

		logic := logicRecord("F001", "plot_count", "100", "200")
		shortLogic := NewDraft(logic, 999, "ከገበሬው አረጋገጥኩ") // 12 chars, 34 bytes
		ok, reason = Validate(shortLogic)
		assert.False(t, ok)
		require.NotNil(t, reason)
		assert.Equal(t, ReasonExplanationShort, reason.Code)
	})

	t.Run("differing logic needs fifteen characters", func(t *testing.T) {
		t.Parallel()
		r := logicRecord("F001", "plot_count", "100", "200")

		short := NewDraft(r, 999, "ok")
		ok, reason := Validate(short)
		assert.False(t, ok)
		require.NotNil(t, reason)
		assert.Equal(t, ReasonExplanationShort, reason.Code)

		long := NewDraft(r, 999, "verified by phone") // 17 chars
		ok, _ = Validate(long)
		assert.True(t, ok)
	})
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	complete := NewDraft(logicRecord("F001", "a", "1", "1"), 1, "confirmed")
	missing := NewDraft(logicRecord("F001", "b", "1", "1"), 1, "")
	short := NewDraft(constraintRecordWithRule("F002", "c", "max 5"), 99, "ok")

	t.Run("mixed drafts", func(t *testing.T) {
		t.Parallel()
		s := Summarize([]model.Draft{complete, missing, short})
		assert.False(t, s.AllComplete)
		assert.Equal(t, 1, s.Completed)
		assert.Equal(t, 3, s.Total)
		assert.Len(t, s.Missing, 2)
	})

	t.Run("all complete", func(t *testing.T) {
		t.Parallel()
		s := Summarize([]model.Draft{complete})
		assert.True(t, s.AllComplete)
		assert.Empty(t, s.Missing)
	})

	t.Run("empty workspace is complete", func(t *testing.T) {
		t.Parallel()
		s := Summarize(nil)
		assert.True(t, s.AllComplete)
		assert.Zero(t, s.Total)
	})
}

func constraintRecordWithRule(subject, variable, rule string) model.ErrorRecord {
	r := constraintRecord(subject, variable)
	r.ConstraintRule = rule
	return r
}
