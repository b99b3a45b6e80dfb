package importer

import (
	"encoding/json"
	"fmt"
	"strings"

	"schedcal/internal/dateparse"
	"schedcal/internal/storage"
)

// JSONImporter reads a state document, bare or wrapped under "data" as the
// exporter writes it.
type JSONImporter struct {
	opts Options
}

// Name returns the format name.
func (i *JSONImporter) Name() string {
	return string(FormatJSON)
}

// Import parses content.
func (i *JSONImporter) Import(content string, existing []storage.Category) *Result {
	return ImportJSON(content, existing, i.opts)
}

// ImportJSON parses a JSON state document. Activities, categories and day
// styles are checked one by one: records that can be repaired are kept with
// a warning, the rest are skipped with an error, so the resulting batch
// always merges.
func ImportJSON(content string, existing []storage.Category, opts Options) *Result {
	opts = opts.withDefaults()
	r := importJSON(content, existing, opts)
	logResult(FormatJSON, r)
	return r
}

func importJSON(content string, existing []storage.Category, opts Options) *Result {
	content = strings.TrimPrefix(strings.TrimSpace(content), "\ufeff")

	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return failure(fmt.Sprintf("Invalid JSON: %v", err))
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return failure("Invalid JSON: expected an object with activities or categories")
	}
	if data, ok := root["data"].(map[string]any); ok {
		root = data
	}

	rawActivities, hasActivities := root["activities"]
	rawCategories, hasCategories := root["categories"]
	if !hasActivities && !hasCategories {
		return failure("Invalid file: no activities or categories found")
	}

	batch := &storage.Batch{
		Categories: []storage.Category{},
		Activities: []storage.Activity{},
		DayStyles:  []storage.DayStyle{},
	}
	r := &Result{Data: batch}

	if hasCategories {
		var cats []storage.Category
		if err := remarshal(rawCategories, &cats); err != nil {
			return failure(fmt.Sprintf("Invalid categories: %v", err))
		}
		for n, c := range cats {
			if c, ok := checkCategory(r, n+1, c, opts); ok {
				batch.Categories = append(batch.Categories, c)
			}
		}
	}
	if rawStyles, ok := root["dayStyles"]; ok {
		var styles []storage.DayStyle
		if err := remarshal(rawStyles, &styles); err != nil {
			return failure(fmt.Sprintf("Invalid dayStyles: %v", err))
		}
		for n, d := range styles {
			if d, ok := checkDayStyle(r, n+1, d, opts); ok {
				batch.DayStyles = append(batch.DayStyles, d)
			}
		}
	}
	if rawConfig, ok := root["config"].(map[string]any); ok {
		var cfg storage.CalendarConfig
		if err := remarshal(rawConfig, &cfg); err != nil {
			return failure(fmt.Sprintf("Invalid config: %v", err))
		}
		batch.Config = &cfg
	}

	if hasActivities {
		records, ok := rawActivities.([]any)
		if !ok && rawActivities != nil {
			return failure("Invalid activities: expected a list")
		}
		for n, rec := range records {
			raw, ok := rec.(map[string]any)
			if !ok {
				r.errorf("Activity %d: not an object, skipped", n+1)
				continue
			}
			a, notes := sanitize(raw, opts)
			for _, note := range notes {
				r.warnf("Activity %d (%s): %s", n+1, a.Title, note)
			}
			a.Color = colorFor(a, batch.Categories, existing)
			if err := storage.ValidateActivity(a); err != nil {
				r.errorf("Activity %d (%s): %v, skipped", n+1, a.Title, err)
				continue
			}
			batch.Activities = append(batch.Activities, a)
		}
	}

	r.Success = true
	r.Message = fmt.Sprintf("%d activities and %d categories imported", len(batch.Activities), len(batch.Categories))
	return r
}

// checkCategory repairs what it can in an imported category and reports
// whether the result can be merged.
func checkCategory(r *Result, n int, c storage.Category, opts Options) (storage.Category, bool) {
	c.ID = strings.TrimSpace(c.ID)
	c.Name = strings.TrimSpace(c.Name)
	c.Color = strings.TrimSpace(c.Color)
	if c.Name == "" {
		r.errorf("Category %d: missing name, skipped", n)
		return c, false
	}
	if c.ID == "" {
		c.ID = opts.NewID()
	}
	if !isHexColor(c.Color) {
		r.warnf("Category %d (%s): invalid colour %q, using %s", n, c.Name, c.Color, storage.DefaultActivityColor)
		c.Color = storage.DefaultActivityColor
	}
	if err := storage.ValidateCategory(c); err != nil {
		r.errorf("Category %d (%s): %v, skipped", n, c.Name, err)
		return c, false
	}
	return c, true
}

// checkDayStyle normalizes the dates of an imported day style. A style
// without a readable start date is dropped; an unreadable or reversed end
// date is cleared so the style covers its start day only.
func checkDayStyle(r *Result, n int, d storage.DayStyle, opts Options) (storage.DayStyle, bool) {
	if d.ID = strings.TrimSpace(d.ID); d.ID == "" {
		d.ID = opts.NewID()
	}
	start, ok := opts.parseDate(d.StartDate)
	if !ok {
		r.errorf("Day style %d: invalid start date %q, skipped", n, d.StartDate)
		return d, false
	}
	d.StartDate = dateparse.Format(start)

	if raw := strings.TrimSpace(d.EndDate); raw != "" {
		end, ok := opts.parseDate(raw)
		switch {
		case !ok:
			r.warnf("Day style %d: invalid end date %q, using start date", n, raw)
			d.EndDate = ""
		case dateparse.Compare(end, start) < 0:
			r.warnf("Day style %d: end date before start date, using start date", n)
			d.EndDate = ""
		default:
			d.EndDate = dateparse.Format(end)
		}
	} else {
		d.EndDate = ""
	}

	if err := storage.ValidateDayStyle(d); err != nil {
		r.errorf("Day style %d: %v, skipped", n, err)
		return d, false
	}
	return d, true
}

// remarshal converts a decoded JSON value into a typed target.
func remarshal(v any, target any) error {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
