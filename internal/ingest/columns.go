// Package ingest loads the constraint and logic error feeds from the blob
// store and decodes their rows into typed error records. All column-name
// flexibility (the subject-ID aliases the survey exports use) is contained
// here; the ledger core only ever sees resolved, typed records.
package ingest

import (
	"errors"
	"strings"
)

// ErrNoSubjectColumn indicates no subject-ID column could be resolved in a
// feed. Nothing can be deduplicated or committed without subject identity, so
// this is fatal for the whole session.
var ErrNoSubjectColumn = errors.New("ingest: no subject id column found")

// Known names for the subject-ID column across survey exports, matched
// case-insensitively in order.
var subjectIDAliases = []string{
	"unique_id",
	"uniqueid",
	"id",
	"farmer_id",
	"farmerid",
}

// resolveSubjectColumn returns the index of the subject-ID column in header.
// Exact alias matches win; otherwise the first column whose name contains
// "id" is used.
func resolveSubjectColumn(header []string) (int, error) {
	for _, alias := range subjectIDAliases {
		for i, col := range header {
			if strings.EqualFold(strings.TrimSpace(col), alias) {
				return i, nil
			}
		}
	}
	for i, col := range header {
		if strings.Contains(strings.ToLower(col), "id") {
			return i, nil
		}
	}
	return 0, ErrNoSubjectColumn
}

// columnIndex returns the index of the named column, matched
// case-insensitively, or -1.
func columnIndex(header []string, name string) int {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), name) {
			return i
		}
	}
	return -1
}
