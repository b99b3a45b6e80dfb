package ui

import (
	"fmt"
	"strings"

	"schedcal/internal/agenda"
	"schedcal/internal/importer"

	"github.com/mattn/go-runewidth"
)

// previewLimit caps the activities listed in an import summary.
const previewLimit = 50

// previewTitleWidth is the widest title shown in a preview line, in cells.
const previewTitleWidth = 48

// ImportSummary renders an import result: counts, a preview of the
// activities, then every warning and error.
func ImportSummary(res *importer.Result, source string, s *Styles) string {
	var b strings.Builder

	b.WriteString(s.TitleStyle.Render("Import " + source))
	b.WriteString("\n\n")

	if res.Success {
		b.WriteString(s.SuccessStyle.Render(res.Message))
	} else {
		b.WriteString(s.ErrorStyle.Render(res.Message))
	}
	b.WriteString("\n")

	if data := res.Data; data != nil {
		b.WriteString("\n")
		stats := []string{
			s.Stat("activities", len(data.Activities)),
			s.Stat("categories", len(data.Categories)),
			s.Stat("day styles", len(data.DayStyles)),
		}
		b.WriteString(strings.Join(stats, "  "))
		b.WriteString("\n")

		if len(data.Activities) > 0 {
			b.WriteString("\n")
			b.WriteString(s.HeadingStyle.Render("Activities"))
			b.WriteString("\n")
			for i, a := range data.Activities {
				if i == previewLimit {
					b.WriteString(s.MutedStyle.Render(fmt.Sprintf("  ... and %d more", len(data.Activities)-previewLimit)))
					b.WriteString("\n")
					break
				}
				dates := a.StartDate
				if a.EndDate != a.StartDate {
					dates += ".." + a.EndDate
				}
				line := fmt.Sprintf("  %s %-21s %s %s", s.Swatch(a.Color), dates, runewidth.Truncate(a.Title, previewTitleWidth, ".."), s.MutedStyle.Render("("+string(a.Program)+")"))
				if badge := s.Status(a.Status); badge != "" {
					line += " " + badge
				}
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
	}

	if len(res.Warnings) > 0 {
		b.WriteString("\n")
		b.WriteString(s.WarningStyle.Render(fmt.Sprintf("Warnings (%d)", len(res.Warnings))))
		b.WriteString("\n")
		for _, w := range res.Warnings {
			b.WriteString("  " + s.WarningStyle.Render("! ") + w + "\n")
		}
	}
	if len(res.Errors) > 0 {
		b.WriteString("\n")
		b.WriteString(s.ErrorStyle.Render(fmt.Sprintf("Errors (%d)", len(res.Errors))))
		b.WriteString("\n")
		for _, e := range res.Errors {
			b.WriteString("  " + s.ErrorStyle.Render("x ") + e + "\n")
		}
	}
	return b.String()
}

// Agenda renders an agenda for the terminal, skipping empty days.
func Agenda(ag *agenda.Agenda, s *Styles) string {
	var b strings.Builder

	title := ag.Title
	if title == "" {
		title = "Agenda"
	}
	b.WriteString(s.TitleStyle.Render(title))
	b.WriteString(" " + s.MutedStyle.Render(ag.From+" to "+ag.To))
	b.WriteString("\n")

	empty := true
	for _, d := range ag.Days {
		if d.Empty() {
			continue
		}
		empty = false

		heading := s.HeadingStyle.Render(d.DayOfWeek + " " + d.Date)
		if d.Style != nil {
			label := strings.TrimSpace(d.Style.Icon + " " + d.Style.Label)
			if label != "" {
				heading += " " + s.MutedStyle.Render(label)
			}
		}
		if d.Holiday {
			heading += " " + s.HolidayStyle.Render("holiday")
		}
		b.WriteString("\n" + heading + "\n")

		for _, e := range d.Activities {
			b.WriteString("  " + s.agendaLine(e) + "\n")
		}
	}
	if empty {
		b.WriteString("\n" + s.MutedStyle.Render("Nothing scheduled.") + "\n")
	}

	t := ag.Totals
	stats := []string{
		s.Stat("activities", t.Activities),
		s.Stat("postponed", t.Postponed),
		s.Stat("suspended", t.Suspended),
		s.Stat("completed", t.Completed),
		s.Stat("holidays", t.Holidays),
	}
	b.WriteString("\n")
	b.WriteString(s.BoxStyle.Render(strings.Join(stats, "  ")))
	b.WriteString("\n")
	return b.String()
}

func (s *Styles) agendaLine(e agenda.Entry) string {
	box := s.CheckboxPending
	title := e.Title
	if e.Completed {
		box = s.CheckboxDone
		title = s.DoneStyle.Render(title)
	}
	line := fmt.Sprintf("%s %s %s %s", box, s.Swatch(e.Color), title, s.MutedStyle.Render("("+string(e.Program)+")"))
	if e.CategoryName != "" {
		line += " " + s.MutedStyle.Render("#"+e.CategoryName)
	}
	if e.MultiDay() {
		line += " " + s.MutedStyle.Render(e.StartDate+".."+e.EndDate)
	}
	if badge := s.Status(e.Status); badge != "" {
		line += " " + badge
	}
	return line
}
