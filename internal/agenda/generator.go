package agenda

import (
	"fmt"
	"time"

	"schedcal/internal/dateparse"
	"schedcal/internal/reconcile"
	"schedcal/internal/storage"
)

// MaxDays bounds the length of a single agenda.
const MaxDays = 732

// Generator creates agendas from storage data.
type Generator struct {
	store *storage.Storage
}

// NewGenerator creates a new agenda generator.
func NewGenerator(store *storage.Storage) *Generator {
	return &Generator{store: store}
}

// Build loads the current state and lists the days from..to inclusive.
func (g *Generator) Build(from, to time.Time) (*Agenda, error) {
	state, err := g.store.Load()
	if err != nil {
		return nil, err
	}
	return Build(state, from, to, g.store.Now())
}

// Build lists the days from..to inclusive over state.
func Build(state *storage.State, from, to, now time.Time) (*Agenda, error) {
	from, to = dateparse.Day(from), dateparse.Day(to)
	if to.Before(from) {
		return nil, fmt.Errorf("agenda range ends (%s) before it starts (%s)", dateparse.Format(to), dateparse.Format(from))
	}
	n := dateparse.DaysBetween(from, to) + 1
	if n > MaxDays {
		return nil, fmt.Errorf("agenda range too long: %d days (max %d)", n, MaxDays)
	}

	ag := &Agenda{
		Title:       state.Config.Title,
		From:        dateparse.Format(from),
		To:          dateparse.Format(to),
		Days:        make([]Day, 0, n),
		GeneratedAt: now,
	}

	seen := make(map[string]bool)
	programCounts := make(map[storage.Program]int)

	for i := 0; i < n; i++ {
		date := from.AddDate(0, 0, i)
		day := Day{
			Date:       dateparse.Format(date),
			DayOfWeek:  date.Weekday().String(),
			Activities: []Entry{},
		}

		if style, ok := reconcile.StyleFor(date, state.DayStyles); ok {
			day.Style = &style
			day.Holiday = style.IsHoliday
			if day.Holiday {
				ag.Totals.Holidays++
			}
		}

		for _, a := range reconcile.ActivitiesOn(date, state.Activities) {
			day.Activities = append(day.Activities, entryFor(a, state))
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			countActivity(&ag.Totals, a)
			programCounts[a.Program]++
		}

		ag.Days = append(ag.Days, day)
	}

	for _, p := range storage.Programs {
		if c := programCounts[p]; c > 0 {
			ag.Totals.ByProgram = append(ag.Totals.ByProgram, ProgramCount{Program: p, Count: c})
		}
	}

	return ag, nil
}

func entryFor(a storage.Activity, state *storage.State) Entry {
	e := Entry{
		ID:        a.ID,
		Title:     a.Title,
		Program:   a.Program,
		Status:    a.Status,
		Completed: a.Completed,
		Color:     storage.ColorFor(a, state.Categories),
		StartDate: a.StartDate,
		EndDate:   a.EndDate,
	}
	if c, ok := state.CategoryByID(a.CategoryID); ok {
		e.CategoryName = c.Name
	}
	return e
}

func countActivity(t *Totals, a storage.Activity) {
	t.Activities++
	switch a.Status {
	case storage.StatusPostponed:
		t.Postponed++
	case storage.StatusSuspended:
		t.Suspended++
	default:
		t.Active++
	}
	if a.Completed {
		t.Completed++
	}
}

// MonthRange returns the first and last day of the month containing t.
func MonthRange(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// CalendarRange returns the span shown by a calendar config: MonthsToShow
// months starting at StartMonth (0=January) of Year.
func CalendarRange(cfg storage.CalendarConfig) (time.Time, time.Time) {
	months := cfg.MonthsToShow
	if months <= 0 {
		months = 12
	}
	first := time.Date(cfg.Year, time.Month(cfg.StartMonth+1), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, months, -1)
}
