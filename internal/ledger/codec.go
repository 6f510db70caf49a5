package ledger

import (
	"bytes"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/mohammed-seid/hfc-south-plant/internal/model"
)

// encodeRecords renders the full ledger as CSV with the stable column order
// declared on model.CorrectionRecord.
func encodeRecords(records []model.CorrectionRecord) ([]byte, error) {
	b, err := csvutil.Marshal(records)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: encode records")
	}
	return b, nil
}

// decodeRecords parses ledger CSV bytes. Empty or header-only content decodes
// to an empty ledger.
func decodeRecords(content []byte) ([]model.CorrectionRecord, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, nil
	}
	var records []model.CorrectionRecord
	if err := csvutil.Unmarshal(content, &records); err != nil {
		return nil, eris.Wrap(err, "ledger: decode records")
	}
	return records, nil
}
