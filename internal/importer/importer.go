// Package importer turns pasted or uploaded text (JSON, CSV or iCalendar)
// into a batch of sanitized calendar records plus per-row warnings and
// errors.
//
// Malformed input never produces a Go error: every outcome, including a
// document that cannot be read at all, is reported through Result.
package importer

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"schedcal/internal/dateparse"
	"schedcal/internal/storage"
)

// Format is a detected input format.
type Format string

const (
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatICS     Format = "ics"
	FormatUnknown Format = "unknown"
)

// Result is the outcome of one import.
type Result struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Data     *storage.Batch `json:"data,omitempty"`
	Warnings []string       `json:"warnings,omitempty"` // row kept with a correction
	Errors   []string       `json:"errors,omitempty"`   // row rejected
}

// ActivityCount returns the number of activities carried by the result.
func (r *Result) ActivityCount() int {
	if r == nil || r.Data == nil {
		return 0
	}
	return len(r.Data.Activities)
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func failure(message string) *Result {
	return &Result{Success: false, Message: message}
}

// Options carries the caller-supplied clock, id source and parsing choices.
// The zero value is usable.
type Options struct {
	Now       func() time.Time
	NewID     func() string
	DateOrder dateparse.Order

	// RecurrenceFrom and RecurrenceTo bound RRULE expansion for iCalendar
	// input. Zero values select the calendar year of Now.
	RecurrenceFrom time.Time
	RecurrenceTo   time.Time
	// MaxOccurrences caps the occurrences produced by a single RRULE.
	MaxOccurrences int
}

const defaultMaxOccurrences = 500

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = storage.NewID
	}
	if o.MaxOccurrences <= 0 {
		o.MaxOccurrences = defaultMaxOccurrences
	}
	if o.RecurrenceFrom.IsZero() {
		o.RecurrenceFrom = time.Date(o.Now().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	if o.RecurrenceTo.IsZero() {
		o.RecurrenceTo = o.RecurrenceFrom.AddDate(1, 0, -1)
	}
	return o
}

func (o Options) parseDate(s string) (time.Time, bool) {
	return dateparse.ParseOrder(s, o.DateOrder)
}

func (o Options) today() string {
	return dateparse.Format(dateparse.Day(o.Now()))
}

// Importer parses one input format.
type Importer interface {
	// Import parses content. existing are the categories already in state,
	// used to resolve activity colours.
	Import(content string, existing []storage.Category) *Result

	// Name returns the format name (e.g., "json", "csv").
	Name() string
}

// GetImporter returns the importer for format, or nil if unsupported.
func GetImporter(format Format, opts Options) Importer {
	switch format {
	case FormatJSON:
		return &JSONImporter{opts: opts}
	case FormatCSV:
		return &CSVImporter{opts: opts}
	case FormatICS:
		return &ICSImporter{opts: opts}
	default:
		return nil
	}
}

// SupportedFormats returns the list of supported import formats.
func SupportedFormats() []Format {
	return []Format{FormatJSON, FormatCSV, FormatICS}
}

// DetectFormat guesses the format of content: a leading '{' or '[' is JSON,
// a VCALENDAR header is iCalendar, any ',' or ';' is delimited text.
func DetectFormat(content string) Format {
	s := strings.TrimSpace(strings.TrimPrefix(content, "\ufeff"))
	switch {
	case s == "":
		return FormatUnknown
	case strings.HasPrefix(s, "{") || strings.HasPrefix(s, "["):
		return FormatJSON
	case strings.HasPrefix(strings.ToUpper(s), "BEGIN:VCALENDAR"):
		return FormatICS
	case strings.ContainsAny(s, ",;"):
		return FormatCSV
	default:
		return FormatUnknown
	}
}

// Import detects the format of content and runs the matching importer.
func Import(content string, existing []storage.Category, opts Options) *Result {
	format := DetectFormat(content)
	imp := GetImporter(format, opts)
	if imp == nil {
		return failure("Unrecognized format: expected JSON, CSV or iCalendar content")
	}
	return imp.Import(content, existing)
}

func logResult(format Format, r *Result) {
	slog.Info("import finished",
		"format", format,
		"success", r.Success,
		"activities", r.ActivityCount(),
		"warnings", len(r.Warnings),
		"errors", len(r.Errors),
	)
}

func colorFor(a storage.Activity, sets ...[]storage.Category) string {
	if a.CategoryID != "" {
		for _, cats := range sets {
			for _, c := range cats {
				if c.ID == a.CategoryID && isHexColor(c.Color) {
					return c.Color
				}
			}
		}
	}
	if a.Color != "" {
		return a.Color
	}
	return storage.DefaultActivityColor
}
