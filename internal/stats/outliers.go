package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mohammed-seid/hfc-south-plant/internal/ingest"
	"github.com/mohammed-seid/hfc-south-plant/internal/model"
)

// Thresholds for suspicious-value detection.
const (
	extremeValueCeiling = 100000
	largeDiscrepancyAbs = 1000
	largeDiscrepancyPct = 200
)

// SuspectKind classifies a suspicious feed value.
type SuspectKind string

const (
	SuspectExtremeValue  SuspectKind = "constraint_extremely_large"
	SuspectNegativeValue SuspectKind = "constraint_negative"
	SuspectNonNumeric    SuspectKind = "constraint_non_numeric"
	SuspectLargeDiff     SuspectKind = "logic_large_discrepancy"
	SuspectLargePctDiff  SuspectKind = "logic_large_pct_difference"
)

// Suspect is one feed value flagged for admin review. Detection is advisory
// only; suspects still go through the normal correction flow.
type Suspect struct {
	Kind       SuspectKind `json:"kind"`
	Variable   string      `json:"variable"`
	Enumerator string      `json:"enumerator"`
	FarmerName string      `json:"farmer_name"`
	Detail     string      `json:"detail"`
}

// DetectSuspects scans both feeds for values that warrant a closer look:
// extreme or unexpectedly negative constraint values, non-numeric values, and
// logic rows with large absolute or relative discrepancies.
func DetectSuspects(feeds *ingest.FeedSet) []Suspect {
	var suspects []Suspect

	for _, r := range feeds.Constraints {
		value, err := strconv.ParseFloat(strings.TrimSpace(r.ReportedValue), 64)
		if err != nil {
			suspects = append(suspects, suspect(r, SuspectNonNumeric,
				fmt.Sprintf("value %q is not numeric", r.ReportedValue)))
			continue
		}
		if value > extremeValueCeiling {
			suspects = append(suspects, suspect(r, SuspectExtremeValue,
				fmt.Sprintf("value %v exceeds %d", value, extremeValueCeiling)))
		}
		// Temperatures may legitimately go negative.
		if value < 0 && !strings.Contains(strings.ToLower(r.Variable), "temp") {
			suspects = append(suspects, suspect(r, SuspectNegativeValue,
				fmt.Sprintf("unexpected negative value %v", value)))
		}
	}

	for _, r := range feeds.Logic {
		reported, errR := strconv.ParseFloat(strings.TrimSpace(r.ReportedValue), 64)
		reference, errS := strconv.ParseFloat(strings.TrimSpace(r.ReferenceValue), 64)
		if errR != nil || errS != nil {
			continue
		}

		diff := math.Abs(reported - reference)
		if diff > largeDiscrepancyAbs {
			suspects = append(suspects, suspect(r, SuspectLargeDiff,
				fmt.Sprintf("reported %v vs system %v, diff %v", reported, reference, diff)))
		}
		if reported > 0 && reference > 0 {
			pct := math.Abs((reported-reference)/reference) * 100
			if pct > largeDiscrepancyPct {
				suspects = append(suspects, suspect(r, SuspectLargePctDiff,
					fmt.Sprintf("reported %v vs system %v, %.1f%% difference", reported, reference, pct)))
			}
		}
	}

	return suspects
}

func suspect(r model.ErrorRecord, kind SuspectKind, detail string) Suspect {
	return Suspect{
		Kind:       kind,
		Variable:   r.Variable,
		Enumerator: r.Enumerator,
		FarmerName: r.FarmerName,
		Detail:     detail,
	}
}
