package importer

import (
	"fmt"
	"strconv"
	"strings"

	"schedcal/internal/dateparse"
	"schedcal/internal/storage"
)

// UntitledPlaceholder replaces a missing title in JSON records.
const UntitledPlaceholder = "Untitled"

// programRules is evaluated top to bottom against the lower-cased input;
// "coro inf" and "coro juv" must be checked before the bare "coro".
var programRules = []struct {
	substr  string
	program storage.Program
}{
	{"orq", storage.ProgramOrchestra},
	{"coro inf", storage.ProgramChildrenChoir},
	{"coro juv", storage.ProgramYouthChoir},
	{"coro", storage.ProgramChoir},
}

var statusRules = []struct {
	substr string
	status storage.Status
}{
	{"post", storage.StatusPostponed},
	{"susp", storage.StatusSuspended},
}

// CoerceProgram maps free text to a Program, defaulting to General.
func CoerceProgram(s string) storage.Program {
	s = strings.ToLower(s)
	for _, rule := range programRules {
		if strings.Contains(s, rule.substr) {
			return rule.program
		}
	}
	return storage.ProgramGeneral
}

// CoerceStatus maps free text to a Status, defaulting to active.
func CoerceStatus(s string) storage.Status {
	s = strings.ToLower(s)
	for _, rule := range statusRules {
		if strings.Contains(s, rule.substr) {
			return rule.status
		}
	}
	return storage.StatusActive
}

// CoerceBool interprets JSON-ish truthy values.
func CoerceBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes", "y", "si", "sí", "x":
			return true
		}
	}
	return false
}

// Sanitize normalizes an untyped JSON record into an Activity. It never
// fails: missing or unusable fields are defaulted.
func Sanitize(raw map[string]any, opts Options) storage.Activity {
	a, _ := sanitize(raw, opts.withDefaults())
	return a
}

// sanitize is Sanitize plus a note for every field it had to correct.
func sanitize(raw map[string]any, opts Options) (storage.Activity, []string) {
	var notes []string

	a := storage.Activity{
		ID:          stringField(raw, "id"),
		Title:       strings.TrimSpace(stringField(raw, "title")),
		Program:     CoerceProgram(stringField(raw, "program")),
		Status:      CoerceStatus(stringField(raw, "status")),
		Completed:   CoerceBool(raw["completed"]),
		Description: stringField(raw, "description"),
		CategoryID:  stringField(raw, "categoryId"),
		Color:       stringField(raw, "color"),
	}
	if a.ID == "" {
		a.ID = opts.NewID()
	}
	if a.Title == "" {
		a.Title = UntitledPlaceholder
		notes = append(notes, "missing title, using placeholder")
	}
	if a.Color != "" && !isHexColor(a.Color) {
		a.Color = ""
	}

	rawStart := stringField(raw, "startDate")
	start, ok := opts.parseDate(rawStart)
	if ok {
		a.StartDate = dateparse.Format(start)
	} else {
		a.StartDate = opts.today()
		if rawStart != "" {
			notes = append(notes, fmt.Sprintf("invalid start date %q, using today", rawStart))
		}
		start, _ = dateparse.ParseISO(a.StartDate)
	}

	a.EndDate = a.StartDate
	if rawEnd := stringField(raw, "endDate"); rawEnd != "" {
		if end, ok := opts.parseDate(rawEnd); ok {
			if dateparse.Compare(end, start) < 0 {
				notes = append(notes, "end date before start date, set to start date")
			} else {
				a.EndDate = dateparse.Format(end)
			}
		}
	}

	a.PostponedTo = stringField(raw, "postponedTo")
	a.PostponedFrom = stringField(raw, "postponedFrom")

	return a, notes
}

// stringField reads key from raw as a string, accepting numbers too.
func stringField(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func isHexColor(s string) bool {
	if !strings.HasPrefix(s, "#") {
		return false
	}
	hex := s[1:]
	switch len(hex) {
	case 3, 4, 6, 8:
	default:
		return false
	}
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}
