package ledger

import (
	"regexp"
	"strconv"
	"strings"
)

// Default advisory range used when the rule text yields no usable limits.
const (
	defaultMinExpected = 0
	defaultMaxExpected = 100000
)

var digitRun = regexp.MustCompile(`\d+`)

// ParseRuleLimits extracts an advisory (min, max) range from free-text
// constraint rules like "max 50, min 0" or "between 10 and 200". The parse is
// best-effort and total: anything unrecognized degrades to the defaults. The
// result only decides whether a correction needs a longer explanation; it
// never rejects a value.
func ParseRuleLimits(rule string) (min, max int) {
	min, max = defaultMinExpected, defaultMaxExpected

	lower := strings.ToLower(rule)
	numbers := digitRun.FindAllString(rule, -1)

	if len(numbers) > 0 {
		if strings.Contains(lower, "max") {
			if n, err := strconv.Atoi(numbers[len(numbers)-1]); err == nil {
				max = n
			}
		}
		if strings.Contains(lower, "min") {
			if n, err := strconv.Atoi(numbers[len(numbers)-1]); err == nil {
				min = n
			}
		}
	}

	// "between X and Y" overrides the min/max keywords.
	if strings.Contains(lower, "between") && len(numbers) >= 2 {
		lo, errLo := strconv.Atoi(numbers[0])
		hi, errHi := strconv.Atoi(numbers[1])
		if errLo == nil && errHi == nil {
			min, max = lo, hi
		}
	}

	return min, max
}
