package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mohammed-seid/hfc-south-plant/internal/model"
)

// Explanation length floors, counted in characters rather than bytes so
// Amharic explanations are measured the same as English ones. Corrections
// whose value triggered an advisory flag need a more substantial
// justification before they may be committed.
const (
	minOutsideRangeExplanation = 20
	minDiffersExplanation      = 15
)

// ReasonCode identifies why a draft is not commit-eligible.
type ReasonCode string

const (
	ReasonMissingExplanation ReasonCode = "missing_explanation"
	ReasonExplanationShort   ReasonCode = "explanation_too_short"
)

// Incomplete describes one draft that failed the completeness gate. These are
// advisory, displayed verbatim by the UI; they are never raised as faults.
type Incomplete struct {
	Key     model.ErrorKey `json:"key"`
	Code    ReasonCode     `json:"code"`
	Message string         `json:"message"`
}

// Validate reports whether a draft is eligible to be committed. A draft is
// complete when it has a non-empty explanation, long enough for whichever
// advisory flag is set on it.
func Validate(d model.Draft) (bool, *Incomplete) {
	explanation := strings.TrimSpace(d.Explanation)
	key := d.Key()

	if explanation == "" {
		return false, &Incomplete{
			Key:     key,
			Code:    ReasonMissingExplanation,
			Message: fmt.Sprintf("%s: %s - no explanation provided", categoryLabel(d.Record.Category), d.Record.Variable),
		}
	}

	if d.Record.Category == model.CategoryConstraint && d.OutsideExpectedRange &&
		utf8.RuneCountInString(explanation) < minOutsideRangeExplanation {
		return false, &Incomplete{
			Key:     key,
			Code:    ReasonExplanationShort,
			Message: fmt.Sprintf("Constraint: %s - out-of-range value needs detailed explanation (min %d chars)", d.Record.Variable, minOutsideRangeExplanation),
		}
	}

	if d.Record.Category == model.CategoryLogic && d.DiffersFromBoth &&
		utf8.RuneCountInString(explanation) < minDiffersExplanation {
		return false, &Incomplete{
			Key:     key,
			Code:    ReasonExplanationShort,
			Message: fmt.Sprintf("Logic: %s - value differs from both records, needs better explanation", d.Record.Variable),
		}
	}

	return true, nil
}

// Summary aggregates completeness over a set of drafts, either globally or
// per grouping key.
type Summary struct {
	AllComplete bool         `json:"all_complete"`
	Missing     []Incomplete `json:"missing,omitempty"`
	Completed   int          `json:"completed"`
	Total       int          `json:"total"`
}

// Summarize runs Validate over every draft and aggregates the outcome.
func Summarize(drafts []model.Draft) Summary {
	s := Summary{Total: len(drafts)}
	for _, d := range drafts {
		ok, reason := Validate(d)
		if ok {
			s.Completed++
			continue
		}
		s.Missing = append(s.Missing, *reason)
	}
	s.AllComplete = s.Completed == s.Total
	return s
}

// NewDraft builds a draft for record with the advisory flags derived once:
// out-of-range against the limits parsed from the rule text for constraint
// errors, differs-from-both for logic errors. The corrected value itself is
// never clamped or rejected.
func NewDraft(record model.ErrorRecord, correctedValue float64, explanation string) model.Draft {
	d := model.Draft{
		Record:         record,
		CorrectedValue: correctedValue,
		Explanation:    explanation,
	}

	switch record.Category {
	case model.CategoryConstraint:
		min, max := ParseRuleLimits(record.ConstraintRule)
		d.OutsideExpectedRange = correctedValue < float64(min) || correctedValue > float64(max)
	case model.CategoryLogic:
		d.DiffersFromBoth = !valueEquals(correctedValue, record.ReportedValue) &&
			!valueEquals(correctedValue, record.ReferenceValue)
	}

	return d
}

// valueEquals compares the corrected value against a raw feed value. Feed
// values that do not parse as numbers can never equal a numeric correction.
func valueEquals(corrected float64, raw string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return false
	}
	return f == corrected
}

func categoryLabel(c model.ErrorCategory) string {
	if c == model.CategoryConstraint {
		return "Constraint"
	}
	return "Logic"
}
