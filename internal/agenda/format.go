package agenda

import (
	"encoding/json"
	"fmt"
	"strings"

	"schedcal/internal/storage"
)

// FormatJSON formats an agenda as JSON.
func FormatJSON(ag *Agenda) ([]byte, error) {
	return json.MarshalIndent(ag, "", "  ")
}

// FormatMarkdown renders the non-empty days of an agenda.
func FormatMarkdown(ag *Agenda) string {
	var b strings.Builder

	title := ag.Title
	if title == "" {
		title = "Agenda"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "%s to %s\n", ag.From, ag.To)

	empty := true
	for _, d := range ag.Days {
		if d.Empty() {
			continue
		}
		empty = false

		fmt.Fprintf(&b, "\n## %s %s", d.DayOfWeek, d.Date)
		if d.Style != nil {
			label := d.Style.Label
			if d.Style.Icon != "" {
				label = strings.TrimSpace(d.Style.Icon + " " + label)
			}
			if label != "" {
				fmt.Fprintf(&b, " (%s)", label)
			}
		}
		if d.Holiday {
			b.WriteString(" [holiday]")
		}
		b.WriteString("\n\n")

		for _, e := range d.Activities {
			b.WriteString(entryLine(e))
			b.WriteString("\n")
		}
	}
	if empty {
		b.WriteString("\nNothing scheduled.\n")
	}

	t := ag.Totals
	b.WriteString("\n## Summary\n\n")
	fmt.Fprintf(&b, "- Activities: %d (%d active, %d postponed, %d suspended)\n", t.Activities, t.Active, t.Postponed, t.Suspended)
	fmt.Fprintf(&b, "- Completed: %d\n", t.Completed)
	fmt.Fprintf(&b, "- Holidays: %d\n", t.Holidays)
	for _, pc := range t.ByProgram {
		fmt.Fprintf(&b, "- %s: %d\n", pc.Program, pc.Count)
	}
	return b.String()
}

func entryLine(e Entry) string {
	box := "[ ]"
	if e.Completed {
		box = "[x]"
	}
	line := fmt.Sprintf("- %s %s (%s)", box, e.Title, e.Program)
	if e.CategoryName != "" {
		line += " #" + e.CategoryName
	}
	if e.MultiDay() {
		line += fmt.Sprintf(" %s..%s", e.StartDate, e.EndDate)
	}
	if e.Status != storage.StatusActive {
		line += " {" + string(e.Status) + "}"
	}
	return line
}
