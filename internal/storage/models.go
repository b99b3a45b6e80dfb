package storage

import "time"

// Program identifies the ensemble an activity belongs to
type Program string

const (
	ProgramOrchestra     Program = "Orquesta"
	ProgramChoir         Program = "Coro"
	ProgramChildrenChoir Program = "Coro Infantil"
	ProgramYouthChoir    Program = "Coro Juvenil"
	ProgramGeneral       Program = "General"
)

// Programs lists every program in display order.
var Programs = []Program{
	ProgramOrchestra,
	ProgramChoir,
	ProgramChildrenChoir,
	ProgramYouthChoir,
	ProgramGeneral,
}

// Status is the lifecycle state of an activity
type Status string

const (
	StatusActive    Status = "active"
	StatusPostponed Status = "postponed"
	StatusSuspended Status = "suspended"
)

// DefaultActivityColor is used when an activity has no resolvable category.
const DefaultActivityColor = "#3b82f6"

// Activity is a schedulable event. Dates are inclusive YYYY-MM-DD strings.
type Activity struct {
	ID            string  `json:"id" validate:"required"`
	Title         string  `json:"title" validate:"required"`
	StartDate     string  `json:"startDate" validate:"required,isodate"`
	EndDate       string  `json:"endDate" validate:"required,isodate"`
	Program       Program `json:"program" validate:"oneof=Orquesta Coro 'Coro Infantil' 'Coro Juvenil' General"`
	CategoryID    string  `json:"categoryId,omitempty"`
	Color         string  `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Status        Status  `json:"status" validate:"oneof=active postponed suspended"`
	Completed     bool    `json:"completed"`
	Description   string  `json:"description"`
	PostponedTo   string  `json:"postponedTo,omitempty"`
	PostponedFrom string  `json:"postponedFrom,omitempty"`
}

// Category is a named colour tag
type Category struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"required,hexcolor"`
}

// DayStyle overrides how a single day or an inclusive range of days looks.
// An empty EndDate means the style covers StartDate only.
type DayStyle struct {
	ID         string `json:"id" validate:"required"`
	StartDate  string `json:"startDate" validate:"required,isodate"`
	EndDate    string `json:"endDate,omitempty" validate:"omitempty,isodate"`
	Icon       string `json:"icon,omitempty"`
	Label      string `json:"label,omitempty"`
	IsHoliday  bool   `json:"isHoliday,omitempty"`
	CategoryID string `json:"categoryId,omitempty"`
	Shape      string `json:"shape,omitempty"`
}

// CalendarConfig holds the calendar-level display settings
type CalendarConfig struct {
	Title        string `json:"title"`
	Year         int    `json:"year"`
	StartMonth   int    `json:"startMonth"`   // 0=January
	MonthsToShow int    `json:"monthsToShow"` // usually 12
	WeekStartsOn int    `json:"weekStartsOn"` // 0=Sunday, 1=Monday
}

// Notification is an in-app notice such as "12 activities imported"
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	Read      bool      `json:"read"`
}

// State is the whole persisted application state
type State struct {
	Config        CalendarConfig `json:"config"`
	Categories    []Category     `json:"categories"`
	Activities    []Activity     `json:"activities"`
	DayStyles     []DayStyle     `json:"dayStyles"`
	Notifications []Notification `json:"notifications"`
}

// DefaultState returns the state used on first run.
func DefaultState(now time.Time) *State {
	return &State{
		Config: CalendarConfig{
			Title:        "Calendario",
			Year:         now.Year(),
			StartMonth:   0,
			MonthsToShow: 12,
			WeekStartsOn: 1,
		},
		Categories:    []Category{},
		Activities:    []Activity{},
		DayStyles:     []DayStyle{},
		Notifications: []Notification{},
	}
}

// Clone returns a deep copy of s; no slice is shared with the original.
func (s *State) Clone() *State {
	out := &State{Config: s.Config}
	out.Categories = append(make([]Category, 0, len(s.Categories)), s.Categories...)
	out.Activities = append(make([]Activity, 0, len(s.Activities)), s.Activities...)
	out.DayStyles = append(make([]DayStyle, 0, len(s.DayStyles)), s.DayStyles...)
	out.Notifications = append(make([]Notification, 0, len(s.Notifications)), s.Notifications...)
	return out
}

// CategoryByID returns the category with id, if any.
func (s *State) CategoryByID(id string) (Category, bool) {
	if id == "" {
		return Category{}, false
	}
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// ColorFor resolves the display colour of an activity: its category colour,
// then its own colour, then DefaultActivityColor. Dangling category ids fall
// through to the fallbacks.
func ColorFor(a Activity, categories []Category) string {
	if a.CategoryID != "" {
		for _, c := range categories {
			if c.ID == a.CategoryID && c.Color != "" {
				return c.Color
			}
		}
	}
	if a.Color != "" {
		return a.Color
	}
	return DefaultActivityColor
}
