package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-seid/hfc-south-plant/internal/ingest"
	"github.com/mohammed-seid/hfc-south-plant/internal/model"
)

func constraintError(subject, variable, value, enumerator string) model.ErrorRecord {
	return model.ErrorRecord{
		Category:      model.CategoryConstraint,
		SubjectID:     subject,
		Variable:      variable,
		ReportedValue: value,
		Enumerator:    enumerator,
		FarmerName:    "Abebe",
	}
}

func logicError(subject, variable, reported, reference, enumerator string) model.ErrorRecord {
	return model.ErrorRecord{
		Category:       model.CategoryLogic,
		SubjectID:      subject,
		Variable:       variable,
		ReportedValue:  reported,
		ReferenceValue: reference,
		Enumerator:     enumerator,
		FarmerName:     "Abebe",
	}
}

func testFeeds() *ingest.FeedSet {
	return &ingest.FeedSet{
		Constraints: []model.ErrorRecord{
			constraintError("F001", "maize_kg", "750", "mesay"),
			constraintError("F001", "seedlings", "12", "mesay"),
			constraintError("F002", "maize_kg", "200", "degefu"),
		},
		Logic: []model.ErrorRecord{
			logicError("F003", "plot_count", "3", "5", "mesay"),
		},
	}
}

func TestBuildReportOverview(t *testing.T) {
	t.Parallel()

	report := BuildReport(testFeeds(), nil, []string{"mesay", "degefu", "chala"})

	assert.Equal(t, 3, report.Overview.ConstraintErrors)
	assert.Equal(t, 1, report.Overview.LogicErrors)
	assert.Equal(t, 4, report.Overview.TotalErrors)
	assert.Equal(t, 3, report.Overview.SubjectsAffected)
	assert.Equal(t, []string{"chala"}, report.CleanEnumerators)
}

func TestEnumeratorStats(t *testing.T) {
	t.Parallel()

	corrections := []model.CorrectionRecord{
		{CorrectedBy: "mesay"},
		{CorrectedBy: "mesay"},
		{CorrectedBy: "degefu"},
	}
	stats := EnumeratorStats(testFeeds(), corrections, []string{"mesay", "degefu", "chala"})
	require.Len(t, stats, 3)

	// Sorted by remaining descending.
	assert.Equal(t, "mesay", stats[0].Username)
	assert.Equal(t, 3, stats[0].Total)
	assert.Equal(t, 2, stats[0].Solved)
	assert.Equal(t, 1, stats[0].Remaining)
	assert.InDelta(t, 66.7, stats[0].Progress, 0.1)

	assert.Equal(t, "degefu", stats[1].Username)
	assert.Equal(t, 0, stats[1].Remaining)

	assert.Equal(t, "chala", stats[2].Username)
	assert.Zero(t, stats[2].Total)
	assert.Zero(t, stats[2].Progress)
}

func TestTopVariables(t *testing.T) {
	t.Parallel()

	records := []model.ErrorRecord{
		constraintError("F001", "maize_kg", "1", "mesay"),
		constraintError("F002", "maize_kg", "2", "mesay"),
		constraintError("F003", "seedlings", "3", "mesay"),
		logicError("F001", "maize_kg", "1", "2", "mesay"),
	}

	t.Run("counts per variable and category", func(t *testing.T) {
		t.Parallel()
		top := TopVariables(records, 0)
		require.Len(t, top, 3)
		assert.Equal(t, VariableCount{Variable: "maize_kg", Category: model.CategoryConstraint, Count: 2}, top[0])
	})

	t.Run("ties break by variable then category", func(t *testing.T) {
		t.Parallel()
		top := TopVariables(records, 0)
		assert.Equal(t, "maize_kg", top[1].Variable)
		assert.Equal(t, model.CategoryLogic, top[1].Category)
		assert.Equal(t, "seedlings", top[2].Variable)
	})

	t.Run("truncates to n", func(t *testing.T) {
		t.Parallel()
		assert.Len(t, TopVariables(records, 2), 2)
	})
}

func TestDetectSuspects(t *testing.T) {
	t.Parallel()

	t.Run("extreme constraint value", func(t *testing.T) {
		t.Parallel()
		feeds := &ingest.FeedSet{Constraints: []model.ErrorRecord{
			constraintError("F001", "maize_kg", "250000", "mesay"),
		}}
		suspects := DetectSuspects(feeds)
		require.Len(t, suspects, 1)
		assert.Equal(t, SuspectExtremeValue, suspects[0].Kind)
	})

	t.Run("negative value outside temperature variables", func(t *testing.T) {
		t.Parallel()
		feeds := &ingest.FeedSet{Constraints: []model.ErrorRecord{
			constraintError("F001", "maize_kg", "-5", "mesay"),
			constraintError("F002", "soil_temp_c", "-5", "mesay"),
		}}
		suspects := DetectSuspects(feeds)
		require.Len(t, suspects, 1)
		assert.Equal(t, SuspectNegativeValue, suspects[0].Kind)
		assert.Equal(t, "maize_kg", suspects[0].Variable)
	})

	t.Run("non-numeric constraint value", func(t *testing.T) {
		t.Parallel()
		feeds := &ingest.FeedSet{Constraints: []model.ErrorRecord{
			constraintError("F001", "maize_kg", "a lot", "mesay"),
		}}
		suspects := DetectSuspects(feeds)
		require.Len(t, suspects, 1)
		assert.Equal(t, SuspectNonNumeric, suspects[0].Kind)
	})

	t.Run("large absolute logic discrepancy", func(t *testing.T) {
		t.Parallel()
		feeds := &ingest.FeedSet{Logic: []model.ErrorRecord{
			logicError("F001", "maize_kg", "5000", "100", "mesay"),
		}}
		suspects := DetectSuspects(feeds)
		kinds := suspectKinds(suspects)
		assert.Contains(t, kinds, SuspectLargeDiff)
		assert.Contains(t, kinds, SuspectLargePctDiff)
	})

	t.Run("percentage discrepancy needs both values positive", func(t *testing.T) {
		t.Parallel()
		feeds := &ingest.FeedSet{Logic: []model.ErrorRecord{
			logicError("F001", "maize_kg", "2000", "0", "mesay"),
		}}
		suspects := DetectSuspects(feeds)
		assert.Equal(t, []SuspectKind{SuspectLargeDiff}, suspectKinds(suspects))
	})

	t.Run("non-numeric logic rows are skipped", func(t *testing.T) {
		t.Parallel()
		feeds := &ingest.FeedSet{Logic: []model.ErrorRecord{
			logicError("F001", "maize_kg", "n/a", "100", "mesay"),
		}}
		assert.Empty(t, DetectSuspects(feeds))
	})

	t.Run("ordinary values raise nothing", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, DetectSuspects(testFeeds()))
	})
}

func suspectKinds(suspects []Suspect) []SuspectKind {
	kinds := make([]SuspectKind, 0, len(suspects))
	for _, s := range suspects {
		kinds = append(kinds, s.Kind)
	}
	return kinds
}
