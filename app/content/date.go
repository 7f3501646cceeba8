package content

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/araddon/dateparse"
)

var dateRe = regexp.MustCompile(`(\d{3,4})[-/.](\d{1,2})[-/.](\d{1,2})`)

// NormalizeDate locates a date-like substring in raw and returns it as
// ISO YYYY-MM-DD. Three-digit years are Republic of China calendar years
// and get +1911; separators are normalized to dashes. An unmatched or
// invalid date yields an empty string, never the raw text.
func NormalizeDate(raw string) string {
	m := dateRe.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}

	year, _ := strconv.Atoi(m[1])
	if len(m[1]) == 3 {
		year += 1911
	}
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	normalized := fmt.Sprintf("%04d-%02d-%02d", year, month, day)

	if t, err := dateparse.ParseStrict(normalized); err != nil || t.IsZero() {
		return ""
	}

	return normalized
}
