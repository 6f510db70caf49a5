package model

// Draft is an uncommitted correction in progress, owned by exactly one
// session's workspace. The advisory flags are derived once at construction
// (see ledger.NewDraft) and only affect how strict the explanation
// requirement is; they never reject the corrected value itself.
type Draft struct {
	Record         ErrorRecord `json:"record"`
	CorrectedValue float64     `json:"corrected_value"`
	Explanation    string      `json:"explanation"`

	// OutsideExpectedRange is set for constraint drafts whose corrected value
	// falls outside the range parsed from the rule text.
	OutsideExpectedRange bool `json:"outside_expected_range"`
	// DiffersFromBoth is set for logic drafts whose corrected value matches
	// neither the reported nor the system value.
	DiffersFromBoth bool `json:"differs_from_both"`
}

// Key returns the identity of the error this draft corrects.
func (d Draft) Key() ErrorKey { return d.Record.Key() }

// GroupingKey returns the subject (farmer) identity used for per-group
// commits.
func (d Draft) GroupingKey() string { return d.Record.SubjectID }

// CorrectionRecord is one committed row of the shared ledger CSV. The field
// order below is the persisted column order and must stay byte-compatible
// with prior appends.
type CorrectionRecord struct {
	ErrorType       ErrorCategory `csv:"error_type" json:"error_type"`
	Enumerator      string        `csv:"username" json:"username"`
	Supervisor      string        `csv:"supervisor" json:"supervisor"`
	Woreda          string        `csv:"woreda" json:"woreda"`
	Kebele          string        `csv:"kebele" json:"kebele"`
	FarmerName      string        `csv:"farmer_name" json:"farmer_name"`
	Phone           string        `csv:"phone_no" json:"phone_no"`
	SubmissionDate  string        `csv:"subdate" json:"subdate"`
	SubjectID       string        `csv:"unique_id" json:"unique_id"`
	Variable        string        `csv:"variable" json:"variable"`
	OriginalValue   string        `csv:"original_value" json:"original_value"`
	CorrectValue    float64       `csv:"correct_value" json:"correct_value"`
	Explanation     string        `csv:"explanation" json:"explanation"`
	CorrectedBy     string        `csv:"corrected_by" json:"corrected_by"`
	CorrectionDate  string        `csv:"correction_date" json:"correction_date"`
	Timestamp       string        `csv:"correction_timestamp" json:"correction_timestamp"`
	OutsideRange    bool          `csv:"outside_range" json:"outside_range"`
	DiffersFromBoth bool          `csv:"differs_from_both" json:"differs_from_both"`
	// ReferenceValue is the category-specific reference as it stood at
	// correction time: rule text for constraint errors, system value for
	// logic errors.
	ReferenceValue string `csv:"reference_value" json:"reference_value"`
}

// Key returns the canonical identity of the corrected error, derived from the
// same triple as ErrorRecord.Key.
func (r CorrectionRecord) Key() ErrorKey {
	return ErrorKey{Category: r.ErrorType, SubjectID: r.SubjectID, Variable: r.Variable}
}
