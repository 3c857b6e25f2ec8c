package sources

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	salaryRangeRe  = regexp.MustCompile(`(?i)(\d[\d,]*)\s*(?:-|–|to)\s*(\d[\d,]*)`)
	salarySingleRe = regexp.MustCompile(`\d[\d,]{2,}`)
)

// ExtractSalaryRange pulls a numeric range out of free-text salary fields
// like "Tk. 25,000 - 40,000 (Monthly)". A single figure becomes min=max.
// "Negotiable" and friends simply return ok=false; the raw text is kept
// on the listing either way.
func ExtractSalaryRange(raw string) (min, max int64, ok bool) {
	raw = CleanText(raw)
	if raw == "" {
		return 0, 0, false
	}

	if m := salaryRangeRe.FindStringSubmatch(raw); m != nil {
		lo, err1 := parseAmount(m[1])
		hi, err2 := parseAmount(m[2])
		if err1 == nil && err2 == nil && lo > 0 && hi >= lo {
			return lo, hi, true
		}
	}
	if m := salarySingleRe.FindString(raw); m != "" {
		if v, err := parseAmount(m); err == nil && v > 0 {
			return v, v, true
		}
	}
	return 0, 0, false
}

func parseAmount(s string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
}
