// Package agenda builds a day-by-day listing of the calendar over a date
// range: the governing day style, the activities on each day and totals.
package agenda

import (
	"time"

	"schedcal/internal/storage"
)

// Agenda covers the inclusive range [From, To].
type Agenda struct {
	Title       string    `json:"title"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Days        []Day     `json:"days"`
	Totals      Totals    `json:"totals"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Day is one calendar day of the agenda.
type Day struct {
	Date       string            `json:"date"`
	DayOfWeek  string            `json:"day_of_week"`
	Style      *storage.DayStyle `json:"style,omitempty"`
	Holiday    bool              `json:"holiday"`
	Activities []Entry           `json:"activities"`
}

// Empty reports whether the day has neither a style nor activities.
func (d Day) Empty() bool {
	return d.Style == nil && len(d.Activities) == 0
}

// Entry is an activity as listed on a day.
type Entry struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Program      storage.Program `json:"program"`
	Status       storage.Status  `json:"status"`
	Completed    bool            `json:"completed"`
	Color        string          `json:"color"`
	CategoryName string          `json:"category_name,omitempty"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
}

// MultiDay reports whether the activity spans more than one day.
func (e Entry) MultiDay() bool {
	return e.EndDate != e.StartDate
}

// Totals counts distinct activities in the range.
type Totals struct {
	Activities int            `json:"activities"`
	Active     int            `json:"active"`
	Postponed  int            `json:"postponed"`
	Suspended  int            `json:"suspended"`
	Completed  int            `json:"completed"`
	Holidays   int            `json:"holidays"`
	ByProgram  []ProgramCount `json:"by_program"`
}

// ProgramCount is the number of activities of one program.
type ProgramCount struct {
	Program storage.Program `json:"program"`
	Count   int             `json:"count"`
}
