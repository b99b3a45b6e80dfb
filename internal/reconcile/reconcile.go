// Package reconcile decides which day styles and activities apply to a
// calendar day.
//
// When several styles cover the same day, the one with the narrowest span
// governs; among equal spans the one later in the slice (the most recently
// added) wins. Styles with unparseable dates never match.
package reconcile

import (
	"sort"
	"time"

	"schedcal/internal/dateparse"
	"schedcal/internal/storage"
)

// Matches reports whether date falls in [start, end]. An empty end matches
// start only.
func Matches(date time.Time, start, end string) bool {
	_, ok := span(date, start, end)
	return ok
}

// span returns the length in days of [start, end] when date falls inside it.
func span(date time.Time, start, end string) (int, bool) {
	s, ok := dateparse.ParseISO(start)
	if !ok {
		return 0, false
	}
	e := s
	if end != "" {
		if e, ok = dateparse.ParseISO(end); !ok {
			return 0, false
		}
	}
	if !dateparse.Within(date, s, e) {
		return 0, false
	}
	return dateparse.DaysBetween(s, e), true
}

// StyleFor returns the style governing date.
func StyleFor(date time.Time, styles []storage.DayStyle) (storage.DayStyle, bool) {
	best, bestSpan := -1, 0
	for i, st := range styles {
		n, ok := span(date, st.StartDate, st.EndDate)
		if !ok {
			continue
		}
		if best < 0 || n <= bestSpan {
			best, bestSpan = i, n
		}
	}
	if best < 0 {
		return storage.DayStyle{}, false
	}
	return styles[best], true
}

// ActivityFor returns the activity shown for date using the same rule as
// StyleFor.
func ActivityFor(date time.Time, activities []storage.Activity) (storage.Activity, bool) {
	best, bestSpan := -1, 0
	for i, a := range activities {
		n, ok := span(date, a.StartDate, a.EndDate)
		if !ok {
			continue
		}
		if best < 0 || n <= bestSpan {
			best, bestSpan = i, n
		}
	}
	if best < 0 {
		return storage.Activity{}, false
	}
	return activities[best], true
}

// ActivitiesOn returns every activity covering date, ordered by start date
// then title.
func ActivitiesOn(date time.Time, activities []storage.Activity) []storage.Activity {
	var out []storage.Activity
	for _, a := range activities {
		if Matches(date, a.StartDate, a.EndDate) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartDate != out[j].StartDate {
			return out[i].StartDate < out[j].StartDate
		}
		return out[i].Title < out[j].Title
	})
	return out
}
