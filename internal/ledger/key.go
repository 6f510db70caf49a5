// Package ledger implements the correction ledger core: stable error
// identity, resolved-key tracking, the session workspace, completeness
// validation, and compare-and-swap appends to the shared correction CSV.
package ledger

import "github.com/mohammed-seid/hfc-south-plant/internal/model"

// DeriveKey returns the canonical deduplication identity of an error record.
// It is a pure function of (category, subjectID, variable) and has no failure
// mode: records without a resolvable subject ID are excluded at the ingestion
// boundary before they reach the ledger.
func DeriveKey(r model.ErrorRecord) model.ErrorKey {
	return model.ErrorKey{
		Category:  r.Category,
		SubjectID: r.SubjectID,
		Variable:  r.Variable,
	}
}

// FilterUnresolved returns the records whose key is in neither resolved (keys
// committed to the ledger) nor localPending (keys this session committed
// since the last full reload). The input order is preserved.
func FilterUnresolved(records []model.ErrorRecord, resolved, localPending model.KeySet) []model.ErrorRecord {
	out := make([]model.ErrorRecord, 0, len(records))
	for _, r := range records {
		k := DeriveKey(r)
		if resolved.Contains(k) || localPending.Contains(k) {
			continue
		}
		out = append(out, r)
	}
	return out
}
