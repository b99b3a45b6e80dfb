package importer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"schedcal/internal/dateparse"
	"schedcal/internal/storage"
)

// PropertyStatus carries the activity status through iCalendar files
// written by the exporter; plain calendars only have STATUS.
const PropertyStatus = ical.ComponentProperty("X-SCHEDCAL-STATUS")

// ICSImporter reads VEVENTs from an iCalendar document.
type ICSImporter struct {
	opts Options
}

// Name returns the format name.
func (i *ICSImporter) Name() string {
	return string(FormatICS)
}

// Import parses content.
func (i *ICSImporter) Import(content string, existing []storage.Category) *Result {
	return ImportICS(content, existing, i.opts)
}

// vevent is the subset of a VEVENT an activity is built from. Dates are
// calendar days; end is inclusive.
type vevent struct {
	uid         string
	summary     string
	description string
	categories  string
	status      string
	start       time.Time
	end         time.Time
	rrule       string
	rdates      []time.Time
	exdates     []time.Time
}

// recurring reports whether ev expands into several occurrences.
func (ev vevent) recurring() bool {
	return ev.rrule != "" || len(ev.rdates) > 0
}

// ImportICS turns each VEVENT into an activity. Recurring events are
// expanded into one activity per occurrence inside
// [opts.RecurrenceFrom, opts.RecurrenceTo], capped at opts.MaxOccurrences.
// Single events are kept whatever their date.
func ImportICS(content string, existing []storage.Category, opts Options) *Result {
	opts = opts.withDefaults()
	r := importICS(content, existing, opts)
	logResult(FormatICS, r)
	return r
}

func importICS(content string, existing []storage.Category, opts Options) *Result {
	cal, err := ical.ParseCalendar(strings.NewReader(strings.TrimPrefix(content, "\ufeff")))
	if err != nil {
		return failure(fmt.Sprintf("Invalid iCalendar: %v", err))
	}

	events := cal.Events()
	if len(events) == 0 {
		return failure("Invalid iCalendar: no events found")
	}

	r := &Result{}
	var activities []storage.Activity

	for n, ve := range events {
		ev, err := parseVEvent(ve)
		if err != nil {
			r.errorf("Event %d: %v", n+1, err)
			continue
		}
		if ev.summary == "" {
			r.warnf("Event %d: empty summary, skipped", n+1)
			continue
		}

		base := storage.Activity{
			Title:       ev.summary,
			Program:     CoerceProgram(ev.categories),
			Status:      CoerceStatus(ev.status),
			Description: ev.description,
		}
		if strings.EqualFold(ev.status, string(ical.ObjectStatusCancelled)) {
			base.Status = storage.StatusSuspended
		}
		base.Color = colorFor(base, existing)

		if !ev.recurring() {
			a := base
			a.ID = ev.uid
			if a.ID == "" {
				a.ID = opts.NewID()
			}
			a.StartDate = dateparse.Format(ev.start)
			a.EndDate = dateparse.Format(ev.end)
			activities = append(activities, a)
			continue
		}

		starts, truncated, err := expandRRule(ev, opts)
		if err != nil {
			r.errorf("Event %d (%s): invalid RRULE %q: %v, skipped", n+1, ev.summary, ev.rrule, err)
			continue
		}
		if truncated {
			r.warnf("Event %d (%s): recurrence truncated to %d occurrences", n+1, ev.summary, len(starts))
		}
		span := dateparse.DaysBetween(ev.start, ev.end)
		for _, start := range starts {
			a := base
			a.ID = opts.NewID()
			if ev.uid != "" {
				a.ID = ev.uid + "-" + start.Format("20060102")
			}
			a.StartDate = dateparse.Format(start)
			a.EndDate = dateparse.Format(start.AddDate(0, 0, span))
			activities = append(activities, a)
		}
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

func parseVEvent(ve *ical.VEvent) (vevent, error) {
	var ev vevent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		ev.uid = strings.TrimSpace(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.summary = strings.TrimSpace(unescapeText(p.Value))
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.description = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyCategories); p != nil {
		ev.categories = unescapeText(p.Value)
	}
	if p := ve.GetProperty(PropertyStatus); p != nil {
		ev.status = p.Value
	} else if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		ev.status = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, errors.New("missing DTSTART")
	}
	start, allDay, err := propertyDay(dtStart)
	if err != nil {
		return ev, fmt.Errorf("invalid DTSTART %q: %w", dtStart.Value, err)
	}
	ev.start = start
	ev.end = start

	if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
		end, endAllDay, err := propertyDay(dtEnd)
		if err != nil {
			return ev, fmt.Errorf("invalid DTEND %q: %w", dtEnd.Value, err)
		}
		if endAllDay {
			// DTEND of a date-valued event is exclusive.
			end = end.AddDate(0, 0, -1)
		}
		if !end.Before(start) {
			ev.end = end
		}
	} else if dur := ve.GetProperty(ical.ComponentPropertyDuration); dur != nil {
		if days, ok := durationDays(dur.Value); ok && days > 0 {
			if allDay {
				days--
			}
			ev.end = start.AddDate(0, 0, days)
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.rrule = strings.TrimSpace(p.Value)
	}
	ev.exdates = icsDayList(ve.GetProperties(ical.ComponentPropertyExdate))
	ev.rdates = icsDayList(ve.GetProperties(ical.ComponentPropertyRdate))

	return ev, nil
}

// icsDayList reads the comma-separated days of EXDATE or RDATE properties.
// Values that are not dates or date-times, such as periods, are ignored.
func icsDayList(props []*ical.IANAProperty) []time.Time {
	var days []time.Time
	for _, p := range props {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSDay(strings.TrimSpace(part), tzid(p)); err == nil {
				days = append(days, t)
			}
		}
	}
	return days
}

// propertyDay reads a DTSTART/DTEND value as a calendar day in its own
// timezone and reports whether it was date-valued.
func propertyDay(p *ical.IANAProperty) (time.Time, bool, error) {
	val := strings.TrimSpace(p.Value)
	allDay := !strings.Contains(val, "T")
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		allDay = true
	}
	t, err := parseICSDay(val, tzid(p))
	return t, allDay, err
}

func tzid(p *ical.IANAProperty) string {
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		return tzs[0]
	}
	return ""
}

// parseICSDay parses DATE and DATE-TIME forms and returns the calendar day
// at UTC midnight. UTC times are converted to the TZID location when known.
func parseICSDay(v, tz string) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("empty value")
	}
	loc := time.UTC
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	var t time.Time
	var err error
	switch {
	case strings.HasSuffix(v, "Z"):
		t, err = time.Parse("20060102T150405Z", v)
		t = t.In(loc)
	case strings.Contains(v, "T"):
		t, err = time.ParseInLocation("20060102T150405", v, loc)
	default:
		t, err = time.ParseInLocation("20060102", v, loc)
	}
	if err != nil {
		return time.Time{}, err
	}
	return dateparse.Day(t), nil
}

var dayDuration = regexp.MustCompile(`^P(?:(\d+)W)?(?:(\d+)D)?`)

// durationDays returns the whole days of an iCalendar DURATION.
func durationDays(v string) (int, bool) {
	m := dayDuration.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, false
	}
	weeks, _ := strconv.Atoi(m[1])
	days, _ := strconv.Atoi(m[2])
	return weeks*7 + days, true
}

// maxRecurrenceScan bounds the values read from one recurrence set,
// including those before the import window.
const maxRecurrenceScan = 50000

var errSubDaily = errors.New("frequencies below DAILY are not supported")

// expandRRule returns the distinct occurrence days of ev that fall inside
// the import window, minus EXDATEs, stopping after opts.MaxOccurrences.
// truncated is set when more occurrences remained.
func expandRRule(ev vevent, opts Options) (days []time.Time, truncated bool, err error) {
	var set rrule.Set
	if ev.rrule != "" {
		ropt, err := rrule.StrToROption(ev.rrule)
		if err != nil {
			return nil, false, err
		}
		if ropt.Freq > rrule.DAILY {
			return nil, false, errSubDaily
		}
		ropt.Dtstart = ev.start
		rule, err := rrule.NewRRule(*ropt)
		if err != nil {
			return nil, false, err
		}
		set.RRule(rule)
	} else {
		set.RDate(ev.start)
	}
	for _, d := range ev.rdates {
		set.RDate(d)
	}

	excluded := make(map[time.Time]bool, len(ev.exdates))
	for _, ex := range ev.exdates {
		excluded[dateparse.Day(ex)] = true
	}

	from := dateparse.Day(opts.RecurrenceFrom)
	to := dateparse.Day(opts.RecurrenceTo)
	seen := make(map[time.Time]bool)

	next := set.Iterator()
	for scanned := 0; ; scanned++ {
		t, ok := next()
		if !ok {
			return days, false, nil
		}
		if scanned == maxRecurrenceScan {
			return days, true, nil
		}
		day := dateparse.Day(t)
		if day.After(to) {
			return days, false, nil
		}
		if day.Before(from) || excluded[day] || seen[day] {
			continue
		}
		if len(days) == opts.MaxOccurrences {
			return days, true, nil
		}
		seen[day] = true
		days = append(days, day)
	}
}

var textEscapes = strings.NewReplacer(`\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`)

func unescapeText(s string) string {
	return textEscapes.Replace(s)
}
