package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an id does not match any stored item.
var ErrNotFound = errors.New("not found")

// NewID returns a fresh collision-resistant identifier.
func NewID() string {
	return uuid.NewString()
}

// Batch is a set of records to merge into state in one step, typically the
// data of an import.
type Batch struct {
	Config     *CalendarConfig `json:"config,omitempty"`
	Categories []Category      `json:"categories,omitempty"`
	Activities []Activity      `json:"activities,omitempty"`
	DayStyles  []DayStyle      `json:"dayStyles,omitempty"`
}

// Empty reports whether the batch carries nothing to merge.
func (b *Batch) Empty() bool {
	return b == nil || (b.Config == nil && len(b.Categories) == 0 && len(b.Activities) == 0 && len(b.DayStyles) == 0)
}

// MergeStats counts what a merge added and replaced.
type MergeStats struct {
	ActivitiesAdded    int
	ActivitiesReplaced int
	CategoriesAdded    int
	CategoriesReplaced int
	DayStylesAdded     int
	DayStylesReplaced  int
	ConfigReplaced     bool
}

// The reducers below never modify their input: each returns a new State.

// AddActivity appends a validated activity with a unique id.
func AddActivity(s *State, a Activity) (*State, error) {
	if err := ValidateActivity(a); err != nil {
		return nil, err
	}
	if activityIndex(s, a.ID) >= 0 {
		return nil, fmt.Errorf("activity already exists: %s", a.ID)
	}
	out := s.Clone()
	out.Activities = append(out.Activities, a)
	return out, nil
}

// SetStatus changes the status of an activity.
func SetStatus(s *State, id string, status Status) (*State, error) {
	switch status {
	case StatusActive, StatusPostponed, StatusSuspended:
	default:
		return nil, fmt.Errorf("invalid status %q", status)
	}
	i := activityIndex(s, id)
	if i < 0 {
		return nil, fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}
	out := s.Clone()
	out.Activities[i].Status = status
	return out, nil
}

// ToggleCompleted flips the completed flag of an activity.
func ToggleCompleted(s *State, id string) (*State, error) {
	i := activityIndex(s, id)
	if i < 0 {
		return nil, fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}
	out := s.Clone()
	out.Activities[i].Completed = !out.Activities[i].Completed
	return out, nil
}

// Postpone moves an activity to new dates. The original stays in place
// marked postponed with a forward reference to a new active activity, which
// points back at the original. An empty newEnd keeps the original length.
func Postpone(s *State, id, newID, newStart, newEnd string) (*State, Activity, error) {
	i := activityIndex(s, id)
	if i < 0 {
		return nil, Activity{}, fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}
	orig := s.Activities[i]
	if orig.PostponedTo != "" {
		return nil, Activity{}, fmt.Errorf("activity %s was already postponed to %s", id, orig.PostponedTo)
	}

	start, err := time.Parse("2006-01-02", newStart)
	if err != nil {
		return nil, Activity{}, fmt.Errorf("invalid start date %q: expected YYYY-MM-DD", newStart)
	}
	if newEnd == "" {
		origStart, err1 := time.Parse("2006-01-02", orig.StartDate)
		origEnd, err2 := time.Parse("2006-01-02", orig.EndDate)
		span := 0
		if err1 == nil && err2 == nil && origEnd.After(origStart) {
			span = int(origEnd.Sub(origStart).Hours() / 24)
		}
		newEnd = start.AddDate(0, 0, span).Format("2006-01-02")
	}

	next := orig
	next.ID = newID
	next.StartDate = newStart
	next.EndDate = newEnd
	next.Status = StatusActive
	next.Completed = false
	next.PostponedFrom = orig.ID
	next.PostponedTo = ""
	if err := ValidateActivity(next); err != nil {
		return nil, Activity{}, err
	}
	if activityIndex(s, newID) >= 0 {
		return nil, Activity{}, fmt.Errorf("activity already exists: %s", newID)
	}

	out := s.Clone()
	out.Activities[i].Status = StatusPostponed
	out.Activities[i].PostponedTo = next.ID
	out.Activities = append(out.Activities, next)
	return out, next, nil
}

// DeleteActivity removes an activity.
func DeleteActivity(s *State, id string) (*State, error) {
	i := activityIndex(s, id)
	if i < 0 {
		return nil, fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}
	out := s.Clone()
	out.Activities = append(out.Activities[:i], out.Activities[i+1:]...)
	return out, nil
}

// AddCategory appends a validated category.
func AddCategory(s *State, c Category) (*State, error) {
	if err := ValidateCategory(c); err != nil {
		return nil, err
	}
	if _, ok := s.CategoryByID(c.ID); ok {
		return nil, fmt.Errorf("category already exists: %s", c.ID)
	}
	out := s.Clone()
	out.Categories = append(out.Categories, c)
	return out, nil
}

// DeleteCategory removes a category. Activities and day styles that
// reference it keep their categoryId.
func DeleteCategory(s *State, id string) (*State, error) {
	for i, c := range s.Categories {
		if c.ID == id {
			out := s.Clone()
			out.Categories = append(out.Categories[:i], out.Categories[i+1:]...)
			return out, nil
		}
	}
	return nil, fmt.Errorf("category %s: %w", id, ErrNotFound)
}

// AddDayStyle appends a validated day style.
func AddDayStyle(s *State, d DayStyle) (*State, error) {
	if err := ValidateDayStyle(d); err != nil {
		return nil, err
	}
	for _, existing := range s.DayStyles {
		if existing.ID == d.ID {
			return nil, fmt.Errorf("day style already exists: %s", d.ID)
		}
	}
	out := s.Clone()
	out.DayStyles = append(out.DayStyles, d)
	return out, nil
}

// DeleteDayStyle removes a day style.
func DeleteDayStyle(s *State, id string) (*State, error) {
	for i, d := range s.DayStyles {
		if d.ID == id {
			out := s.Clone()
			out.DayStyles = append(out.DayStyles[:i], out.DayStyles[i+1:]...)
			return out, nil
		}
	}
	return nil, fmt.Errorf("day style %s: %w", id, ErrNotFound)
}

// AddNotification appends a notice to the state.
func AddNotification(s *State, n Notification) *State {
	out := s.Clone()
	out.Notifications = append(out.Notifications, n)
	return out
}

// MergeImport merges b into s. Records replace existing ones with the same
// id and are appended otherwise. Every record is validated before anything
// is applied, so the merge either happens completely or not at all.
func MergeImport(s *State, b *Batch) (*State, MergeStats, error) {
	var stats MergeStats
	if b.Empty() {
		return s.Clone(), stats, nil
	}

	for _, c := range b.Categories {
		if err := ValidateCategory(c); err != nil {
			return nil, stats, err
		}
	}
	for _, a := range b.Activities {
		if err := ValidateActivity(a); err != nil {
			return nil, stats, err
		}
	}
	for _, d := range b.DayStyles {
		if err := ValidateDayStyle(d); err != nil {
			return nil, stats, err
		}
	}

	out := s.Clone()

	if b.Config != nil {
		out.Config = *b.Config
		stats.ConfigReplaced = true
	}

	catIdx := make(map[string]int, len(out.Categories))
	for i, c := range out.Categories {
		catIdx[c.ID] = i
	}
	for _, c := range b.Categories {
		if i, ok := catIdx[c.ID]; ok {
			out.Categories[i] = c
			stats.CategoriesReplaced++
			continue
		}
		catIdx[c.ID] = len(out.Categories)
		out.Categories = append(out.Categories, c)
		stats.CategoriesAdded++
	}

	actIdx := make(map[string]int, len(out.Activities))
	for i, a := range out.Activities {
		actIdx[a.ID] = i
	}
	for _, a := range b.Activities {
		if i, ok := actIdx[a.ID]; ok {
			out.Activities[i] = a
			stats.ActivitiesReplaced++
			continue
		}
		actIdx[a.ID] = len(out.Activities)
		out.Activities = append(out.Activities, a)
		stats.ActivitiesAdded++
	}

	styleIdx := make(map[string]int, len(out.DayStyles))
	for i, d := range out.DayStyles {
		styleIdx[d.ID] = i
	}
	for _, d := range b.DayStyles {
		if i, ok := styleIdx[d.ID]; ok {
			out.DayStyles[i] = d
			stats.DayStylesReplaced++
			continue
		}
		styleIdx[d.ID] = len(out.DayStyles)
		out.DayStyles = append(out.DayStyles, d)
		stats.DayStylesAdded++
	}

	return out, stats, nil
}

func activityIndex(s *State, id string) int {
	if id == "" {
		return -1
	}
	for i := range s.Activities {
		if s.Activities[i].ID == id {
			return i
		}
	}
	return -1
}
