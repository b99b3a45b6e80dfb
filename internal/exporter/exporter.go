// Package exporter serializes calendar state as a JSON backup envelope,
// quoted CSV or iCalendar. Exports never modify the state they are given.
package exporter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"schedcal/internal/dateparse"
	"schedcal/internal/delimited"
	"schedcal/internal/importer"
	"schedcal/internal/storage"
)

// Format is an export format name.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatICS  Format = "ics"
)

// Version tags the JSON envelope layout.
const Version = "1.0"

// DefaultApplication is written to the envelope when the caller has no name.
const DefaultApplication = "schedcal"

// CSVHeader is the fixed column order of CSV exports.
var CSVHeader = []string{
	"id", "title", "startDate", "endDate", "program",
	"categoryId", "categoryName", "status", "completed", "description",
}

// Envelope is the JSON export document.
type Envelope struct {
	Version     string  `json:"version"`
	Application string  `json:"application"`
	ExportDate  string  `json:"exportDate"`
	Data        Payload `json:"data"`
}

// Payload is the exported part of the state. Notifications stay local.
type Payload struct {
	Config     storage.CalendarConfig `json:"config"`
	Categories []storage.Category     `json:"categories"`
	Activities []storage.Activity     `json:"activities"`
	DayStyles  []storage.DayStyle     `json:"dayStyles"`
}

// ToJSON renders state as an indented envelope stamped with now. An empty
// application selects DefaultApplication.
func ToJSON(state *storage.State, now time.Time, application string) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("export json: nil state")
	}
	if application == "" {
		application = DefaultApplication
	}
	st := state.Clone()
	env := Envelope{
		Version:     Version,
		Application: application,
		ExportDate:  now.UTC().Format(time.RFC3339),
		Data: Payload{
			Config:     st.Config,
			Categories: st.Categories,
			Activities: st.Activities,
			DayStyles:  st.DayStyles,
		},
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export json: %w", err)
	}
	return data, nil
}

// ToCSV renders one row per activity below CSVHeader. Every field is
// quoted so the output splits back with delimited.Split.
func ToCSV(state *storage.State) (string, error) {
	if state == nil {
		return "", fmt.Errorf("export csv: nil state")
	}

	var b strings.Builder
	b.WriteString(strings.Join(CSVHeader, ","))
	b.WriteString("\n")

	for _, a := range state.Activities {
		categoryName := ""
		if c, ok := state.CategoryByID(a.CategoryID); ok {
			categoryName = c.Name
		}
		b.WriteString(delimited.JoinQuoted([]string{
			a.ID,
			a.Title,
			a.StartDate,
			a.EndDate,
			string(a.Program),
			a.CategoryID,
			categoryName,
			string(a.Status),
			strconv.FormatBool(a.Completed),
			a.Description,
		}, ','))
		b.WriteString("\n")
	}
	return b.String(), nil
}

// ProductID identifies calendars written by ToICS.
const ProductID = "-//schedcal//calendar export//ES"

// ToICS renders every activity as an all-day VEVENT whose UID is the
// activity id. The program goes to CATEGORIES and the status to
// X-SCHEDCAL-STATUS so a re-import restores both; suspended activities are
// also marked CANCELLED.
func ToICS(state *storage.State, now time.Time) (string, error) {
	if state == nil {
		return "", fmt.Errorf("export ics: nil state")
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	if state.Config.Title != "" {
		cal.SetXWRCalName(state.Config.Title)
	}

	for _, a := range state.Activities {
		start, ok := dateparse.ParseISO(a.StartDate)
		if !ok {
			return "", fmt.Errorf("export ics: activity %s: invalid start date %q", a.ID, a.StartDate)
		}
		end, ok := dateparse.ParseISO(a.EndDate)
		if !ok || end.Before(start) {
			end = start
		}

		ev := cal.AddEvent(a.ID)
		ev.SetDtStampTime(now.UTC())
		ev.SetAllDayStartAt(start)
		ev.SetAllDayEndAt(end.AddDate(0, 0, 1))
		ev.SetSummary(a.Title)
		if a.Description != "" {
			ev.SetDescription(a.Description)
		}
		ev.SetProperty(ical.ComponentPropertyCategories, string(a.Program))
		ev.SetProperty(importer.PropertyStatus, string(a.Status))
		if a.Status == storage.StatusSuspended {
			ev.SetStatus(ical.ObjectStatusCancelled)
		}
	}

	return cal.Serialize(), nil
}

// Export dispatches to the serializer for format.
func Export(format Format, state *storage.State, now time.Time, application string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ToJSON(state, now, application)
	case FormatCSV:
		s, err := ToCSV(state)
		return []byte(s), err
	case FormatICS:
		s, err := ToICS(state, now)
		return []byte(s), err
	default:
		return nil, fmt.Errorf("unsupported export format %q (use json, csv or ics)", format)
	}
}
