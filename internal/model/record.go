// Package model defines the typed records the correction ledger operates on:
// flagged error rows from the HFC feeds, session-local correction drafts, and
// the committed correction rows persisted to the shared CSV ledger.
package model

import "fmt"

// ErrorCategory distinguishes the two HFC error feeds.
type ErrorCategory string

const (
	CategoryConstraint ErrorCategory = "constraint" // value violates a survey constraint rule
	CategoryLogic      ErrorCategory = "logic"      // value disagrees with the Troster system record
)

// ErrorRecord is one flagged discrepancy sourced from an error feed. Records
// are immutable; the ledger never writes back to the feeds.
type ErrorRecord struct {
	Category      ErrorCategory `json:"category"`
	SubjectID     string        `json:"subject_id"`
	Variable      string        `json:"variable"`
	ReportedValue string        `json:"reported_value"`

	// Category-specific reference: the constraint rule text for constraint
	// errors, the system-recorded value for logic errors.
	ConstraintRule string `json:"constraint_rule,omitempty"`
	ReferenceValue string `json:"reference_value,omitempty"`

	// Attribution metadata carried through to the committed record.
	Enumerator     string `json:"enumerator"`
	Supervisor     string `json:"supervisor,omitempty"`
	Woreda         string `json:"woreda,omitempty"`
	Kebele         string `json:"kebele,omitempty"`
	FarmerName     string `json:"farmer_name,omitempty"`
	Phone          string `json:"phone,omitempty"`
	SubmissionDate string `json:"submission_date,omitempty"`
}

// Key returns the record's canonical deduplication identity.
func (r ErrorRecord) Key() ErrorKey {
	return ErrorKey{Category: r.Category, SubjectID: r.SubjectID, Variable: r.Variable}
}

// Reference returns the category-specific reference value.
func (r ErrorRecord) Reference() string {
	if r.Category == CategoryConstraint {
		return r.ConstraintRule
	}
	return r.ReferenceValue
}

// ErrorKey is the canonical identity of a correctable item. Two records with
// the same key are the same item: at most one committed correction may exist
// per key per enumerator.
type ErrorKey struct {
	Category  ErrorCategory `json:"category"`
	SubjectID string        `json:"subject_id"`
	Variable  string        `json:"variable"`
}

func (k ErrorKey) String() string {
	return fmt.Sprintf("%s_%s_%s", k.Category, k.SubjectID, k.Variable)
}

// KeySet is a set of error keys.
type KeySet map[ErrorKey]struct{}

// NewKeySet builds a set from the given keys.
func NewKeySet(keys ...ErrorKey) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Contains reports whether the set holds k. Safe on a nil set.
func (s KeySet) Contains(k ErrorKey) bool {
	_, ok := s[k]
	return ok
}

// Add inserts k into the set.
func (s KeySet) Add(k ErrorKey) { s[k] = struct{}{} }
