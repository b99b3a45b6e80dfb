package importer

import (
	"fmt"
	"regexp"
	"strings"

	"schedcal/internal/dateparse"
	"schedcal/internal/delimited"
	"schedcal/internal/storage"
)

// CSVImporter reads comma or semicolon separated text with a header row.
type CSVImporter struct {
	opts Options
}

// Name returns the format name.
func (i *CSVImporter) Name() string {
	return string(FormatCSV)
}

// Import parses content.
func (i *CSVImporter) Import(content string, existing []storage.Category) *Result {
	return ImportCSV(content, existing, i.opts)
}

// column roles, each matched by substring against the lower-cased header.
// The first header cell (left to right) that matches a role claims it.
var columnRoles = []struct {
	role     string
	keywords []string
}{
	{"title", []string{"tit", "evento", "actividad"}},
	{"start", []string{"start", "ini", "desde", "fecha"}},
	{"end", []string{"end", "fin", "hasta"}},
	{"program", []string{"prog"}},
	{"category", []string{"cat"}},
	{"description", []string{"desc", "notas", "detall"}},
}

var lineBreak = regexp.MustCompile(`\r\n|\r|\n`)

// ImportCSV parses delimited text. Rows are numbered like spreadsheet lines:
// the header is row 1, the first data row is row 2.
func ImportCSV(content string, existing []storage.Category, opts Options) *Result {
	opts = opts.withDefaults()
	r := importCSV(content, existing, opts)
	logResult(FormatCSV, r)
	return r
}

func importCSV(content string, existing []storage.Category, opts Options) *Result {
	content = strings.TrimPrefix(content, "\ufeff")

	var lines []string
	for _, line := range lineBreak.Split(content, -1) {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return failure("The file must contain a header row and at least one data row")
	}

	delim := delimited.DetectDelimiter(lines[0])
	cols := resolveColumns(delimited.Split(strings.ToLower(lines[0]), delim))
	if _, ok := cols["title"]; !ok {
		return failure("No title column found in the header (expected e.g. \"Titulo\", \"Evento\" or \"Actividad\")")
	}
	if _, ok := cols["start"]; !ok {
		return failure("No date column found in the header (expected e.g. \"Fecha\", \"Inicio\" or \"Start\")")
	}

	r := &Result{}
	var activities []storage.Activity

	for n, line := range lines[1:] {
		row := n + 2
		fields := delimited.Split(line, delim)
		get := func(role string) string {
			i, ok := cols[role]
			if !ok || i >= len(fields) {
				return ""
			}
			return fields[i]
		}

		title := get("title")
		if title == "" {
			r.warnf("Row %d: empty title, skipped", row)
			continue
		}

		rawStart := get("start")
		start, ok := opts.parseDate(rawStart)
		if !ok {
			r.errorf("Row %d: invalid date %q", row, rawStart)
			continue
		}

		end := start
		if _, hasEnd := cols["end"]; hasEnd {
			if parsed, ok := opts.parseDate(get("end")); ok {
				end = parsed
			}
		}
		if dateparse.Compare(end, start) < 0 {
			r.warnf("Row %d: end date before start date, set to start date", row)
			end = start
		}

		a := storage.Activity{
			ID:          opts.NewID(),
			Title:       title,
			StartDate:   dateparse.Format(start),
			EndDate:     dateparse.Format(end),
			Program:     CoerceProgram(get("program")),
			Status:      storage.StatusActive,
			Description: get("description"),
		}
		a.Color = colorFor(a, existing)
		activities = append(activities, a)
	}

	if len(activities) == 0 {
		r.Message = "No activities could be imported"
		return r
	}

	r.Success = true
	r.Data = &storage.Batch{
		Categories: []storage.Category{},
		Activities: activities,
		DayStyles:  []storage.DayStyle{},
	}
	r.Message = fmt.Sprintf("%d activities imported", len(activities))
	return r
}

func resolveColumns(header []string) map[string]int {
	cols := make(map[string]int)
	for _, cr := range columnRoles {
		for i, name := range header {
			if containsAny(name, cr.keywords) {
				cols[cr.role] = i
				break
			}
		}
	}
	return cols
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
