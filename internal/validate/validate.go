// Package validate holds the lexical format checks shared by confidence
// scoring and the QA rule engine.
package validate

import (
	"regexp"
	"time"
)

// DateLayouts are tried in order; the first layout that parses the whole value wins.
// Day-first and month-first slash forms are both accepted, so "03/04/2024" matches
// the month-first layout and never reaches the day-first one.
var DateLayouts = []string{
	"2006-1-2",        // YYYY-MM-DD
	"1/2/2006",        // MM/DD/YYYY
	"2/1/2006",        // DD/MM/YYYY
	"2-1-2006",        // DD-MM-YYYY
	"1-2-2006",        // MM-DD-YYYY
	"2.1.2006",        // DD.MM.YYYY
	"Jan 2, 2006",     // Mon DD, YYYY
	"2 Jan 2006",      // DD Mon YYYY
	"January 2, 2006", // Month DD, YYYY
}

var reAmount = regexp.MustCompile(`^[$€£¥₹]?\d{1,3}(?:,\d{3})*(?:\.\d{2})?$`)

// IsValidDate reports whether value parses exactly under one of DateLayouts.
func IsValidDate(value string) bool {
	_, ok := ParseDate(value)
	return ok
}

// ParseDate returns the parsed date and the first layout that accepted it.
func ParseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsValidAmount reports whether value is a monetary amount such as "$1,234.56":
// optional currency symbol, 1-3 leading digits, comma-separated thousands groups,
// and an optional two-digit decimal part.
func IsValidAmount(value string) bool {
	return reAmount.MatchString(value)
}
