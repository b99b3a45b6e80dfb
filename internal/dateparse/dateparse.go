// Package dateparse parses free-form calendar dates and provides the shared
// day-level primitives (formatting, comparison, containment) used by the
// importer and the interval reconciler.
//
// Dates are represented as time.Time values at midnight UTC. Only the
// year, month and day are meaningful.
package dateparse

import (
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical YYYY-MM-DD date layout used in stored data.
const Layout = "2006-01-02"

// minPlausibleYear rejects direct parses that yield a nonsense year.
const minPlausibleYear = 1000

// Order selects how a genuinely ambiguous D/M/YYYY vs M/D/YYYY value is read.
type Order int

const (
	// DayFirst reads 03/04/2026 as 3 April 2026.
	DayFirst Order = iota
	// MonthFirst reads 03/04/2026 as 4 March 2026.
	MonthFirst
)

// directLayouts are unambiguous machine formats tried before tokenizing.
var directLayouts = []string{
	Layout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006/01/02",
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon, 02 Jan 2006",
}

// Parse parses input into a calendar date, resolving ambiguous day/month
// order as day-first. ok is false for empty, malformed or impossible dates.
func Parse(input string) (time.Time, bool) {
	return ParseOrder(input, DayFirst)
}

// ParseOrder is Parse with an explicit order for the ambiguous case.
func ParseOrder(input string, order Order) (time.Time, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range directLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() > minPlausibleYear {
			return Day(t), true
		}
		break
	}

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
	// FieldsFunc drops empty fields; "1//2026" must not pass as two parts.
	if len(parts) != 3 || strings.Count(s, "/")+strings.Count(s, "-")+strings.Count(s, ".") != 2 {
		return time.Time{}, false
	}

	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 {
			return time.Time{}, false
		}
		n[i] = v
	}

	var year, month, day int
	switch {
	case n[0] > minPlausibleYear:
		year, month, day = n[0], n[1], n[2]
	case n[2] > minPlausibleYear:
		year = n[2]
		switch {
		case n[0] > 12:
			day, month = n[0], n[1]
		case n[1] > 12:
			day, month = n[1], n[0]
		case order == MonthFirst:
			month, day = n[0], n[1]
		default:
			day, month = n[0], n[1]
		}
	default:
		return time.Time{}, false
	}

	return build(year, month, day)
}

// build constructs a date and rejects values that time.Date would normalize
// (31 February rolling into March, month 13, day 0).
func build(year, month, day int) (time.Time, bool) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// Day truncates t to midnight UTC of its own calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Format renders t as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// ParseISO parses a strict YYYY-MM-DD value as stored in state.
func ParseISO(s string) (time.Time, bool) {
	t, err := time.Parse(Layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Compare returns -1, 0 or +1 comparing the calendar dates of a and b.
func Compare(a, b time.Time) int {
	a, b = Day(a), Day(b)
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// Within reports whether day lies in the inclusive range [start, end].
func Within(day, start, end time.Time) bool {
	return Compare(day, start) >= 0 && Compare(day, end) <= 0
}

// DaysBetween returns the number of whole days from start to end.
func DaysBetween(start, end time.Time) int {
	return int(Day(end).Sub(Day(start)).Hours() / 24)
}
