package extract

import (
	"regexp"
	"time"
)

var reNumericDMY = regexp.MustCompile(`(\d{2})[-./](\d{2})[-./](\d{4})`)

// Month-name layouts tried in order for dates like "05-Aug-2024".
var monthNameLayouts = []string{
	"02-Jan-2006",
	"2-Jan-2006",
	"02-January-2006",
}

// NormalizeDate converts the two supported invoice date grammars to
// YYYY-MM-DD. Numeric-separated dates are rearranged positionally as
// day-month-year with no locale inference; month-name dates go through
// calendar parsing. Anything unparseable passes through unchanged so a human
// can still see what the invoice said.
func NormalizeDate(raw string) string {
	if raw == "" {
		return ""
	}

	if m := reNumericDMY.FindStringSubmatch(raw); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1]
	}

	for _, layout := range monthNameLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}

	return raw
}
