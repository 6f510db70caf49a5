// Package stats builds the admin-facing progress and quality reports over the
// error feeds and the committed correction ledger.
package stats

import (
	"sort"

	"github.com/mohammed-seid/hfc-south-plant/internal/ingest"
	"github.com/mohammed-seid/hfc-south-plant/internal/model"
)

// EnumeratorStat summarizes one enumerator's workload and progress.
type EnumeratorStat struct {
	Username  string  `csv:"username" json:"username"`
	Total     int     `csv:"total_errors" json:"total_errors"`
	Solved    int     `csv:"solved" json:"solved"`
	Remaining int     `csv:"remaining" json:"remaining"`
	Progress  float64 `csv:"progress_pct" json:"progress_pct"`
}

// Overview counts errors across both feeds.
type Overview struct {
	ConstraintErrors int `json:"constraint_errors"`
	LogicErrors      int `json:"logic_errors"`
	TotalErrors      int `json:"total_errors"`
	SubjectsAffected int `json:"subjects_affected"`
}

// VariableCount is an error frequency per (variable, category).
type VariableCount struct {
	Variable string              `json:"variable"`
	Category model.ErrorCategory `json:"category"`
	Count    int                 `json:"count"`
}

// Report is the full admin summary.
type Report struct {
	Overview         Overview         `json:"overview"`
	Enumerators      []EnumeratorStat `json:"enumerators"`
	CleanEnumerators []string         `json:"clean_enumerators"`
	TopVariables     []VariableCount  `json:"top_variables"`
	Suspects         []Suspect        `json:"suspects"`
}

// BuildReport assembles the admin report from the feeds, the committed
// ledger, and the enumerator roster.
func BuildReport(feeds *ingest.FeedSet, corrections []model.CorrectionRecord, roster []string) *Report {
	return &Report{
		Overview:         buildOverview(feeds),
		Enumerators:      EnumeratorStats(feeds, corrections, roster),
		CleanEnumerators: cleanEnumerators(feeds, roster),
		TopVariables:     TopVariables(feeds.All(), 15),
		Suspects:         DetectSuspects(feeds),
	}
}

func buildOverview(feeds *ingest.FeedSet) Overview {
	subjects := make(map[string]struct{})
	for _, r := range feeds.All() {
		subjects[r.SubjectID] = struct{}{}
	}
	return Overview{
		ConstraintErrors: len(feeds.Constraints),
		LogicErrors:      len(feeds.Logic),
		TotalErrors:      len(feeds.Constraints) + len(feeds.Logic),
		SubjectsAffected: len(subjects),
	}
}

// EnumeratorStats computes per-enumerator totals, sorted by remaining errors
// descending so the most behind show first.
func EnumeratorStats(feeds *ingest.FeedSet, corrections []model.CorrectionRecord, roster []string) []EnumeratorStat {
	totals := make(map[string]int)
	for _, r := range feeds.All() {
		totals[r.Enumerator]++
	}
	solved := make(map[string]int)
	for _, c := range corrections {
		solved[c.CorrectedBy]++
	}

	stats := make([]EnumeratorStat, 0, len(roster))
	for _, username := range roster {
		total := totals[username]
		done := solved[username]
		s := EnumeratorStat{
			Username:  username,
			Total:     total,
			Solved:    done,
			Remaining: total - done,
		}
		if total > 0 {
			s.Progress = float64(done) / float64(total) * 100
		}
		stats = append(stats, s)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Remaining > stats[j].Remaining
	})
	return stats
}

func cleanEnumerators(feeds *ingest.FeedSet, roster []string) []string {
	withErrors := make(map[string]struct{})
	for _, r := range feeds.All() {
		withErrors[r.Enumerator] = struct{}{}
	}
	var clean []string
	for _, username := range roster {
		if _, ok := withErrors[username]; !ok {
			clean = append(clean, username)
		}
	}
	return clean
}

// TopVariables returns the n most frequent (variable, category) error pairs.
func TopVariables(records []model.ErrorRecord, n int) []VariableCount {
	type pair struct {
		variable string
		category model.ErrorCategory
	}
	counts := make(map[pair]int)
	for _, r := range records {
		counts[pair{r.Variable, r.Category}]++
	}

	out := make([]VariableCount, 0, len(counts))
	for p, c := range counts {
		out = append(out, VariableCount{Variable: p.variable, Category: p.category, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Variable != out[j].Variable {
			return out[i].Variable < out[j].Variable
		}
		return out[i].Category < out[j].Category
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
