package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"schedcal/internal/fsutil"

	"github.com/mattn/go-runewidth"
)

// StateFile is the storage key of the persisted application state.
const StateFile = "calendar.json"

// SaveContext describes a save for hooks that want more than a filename.
type SaveContext struct {
	Filename  string // e.g. "calendar.json"
	Operation string // "add", "postpone", "status", "toggle", "delete", "import"
	ItemType  string // "activity", "category", "day_style", "batch"
	ItemName  string // truncated title, name or summary
}

// Storage reads and writes the state blob in a data directory
type Storage struct {
	dataDir string
	onSave  func(ctx SaveContext)
	now     func() time.Time // injectable clock for deterministic tests
	newID   func() string
}

const (
	dataDirPerm  os.FileMode = 0700
	dataFilePerm os.FileMode = 0600

	maxTitleLen = 200
)

// New creates a Storage rooted at dataDir, creating the directory and an
// empty state file when missing.
func New(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, dataDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Storage{dataDir: dataDir, now: time.Now, newID: NewID}

	if !fileExists(s.path(StateFile)) {
		if err := s.Save(DefaultState(s.Now())); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// SetNowFunc overrides the clock. Passing nil resets it to time.Now.
func (s *Storage) SetNowFunc(now func() time.Time) {
	if now == nil {
		s.now = time.Now
		return
	}
	s.now = now
}

// SetIDFunc overrides id generation. Passing nil resets it to NewID.
func (s *Storage) SetIDFunc(fn func() string) {
	if fn == nil {
		s.newID = NewID
		return
	}
	s.newID = fn
}

// Now returns the current time according to the storage clock.
func (s *Storage) Now() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// SetOnSave registers a callback run after each successful save.
func (s *Storage) SetOnSave(fn func(ctx SaveContext)) {
	s.onSave = fn
}

// DataDir returns the path to the data directory.
func (s *Storage) DataDir() string {
	return s.dataDir
}

// StatePath returns the path of the state blob.
func (s *Storage) StatePath() string {
	return s.path(StateFile)
}

func (s *Storage) path(filename string) string {
	return filepath.Join(s.dataDir, filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !os.IsNotExist(err)
}

// Load reads the state blob. A corrupt file is replaced by its .bak copy or
// by the default state; the returned error then describes the recovery
// while the returned state is still usable.
func (s *Storage) Load() (*State, error) {
	state := DefaultState(s.Now())
	err := s.loadJSONWithRecovery(StateFile, state)
	normalize(state)
	return state, err
}

// Save writes the state blob atomically, keeping the previous version as .bak.
func (s *Storage) Save(state *State) error {
	return s.writeJSONAtomic(StateFile, state)
}

func normalize(st *State) {
	if st.Categories == nil {
		st.Categories = []Category{}
	}
	if st.Activities == nil {
		st.Activities = []Activity{}
	}
	if st.DayStyles == nil {
		st.DayStyles = []DayStyle{}
	}
	if st.Notifications == nil {
		st.Notifications = []Notification{}
	}
}

func (s *Storage) writeJSONAtomic(filename string, v any) error {
	path := s.path(filename)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize %s: %w", filename, err)
	}

	fsutil.BestEffortBackup(path, dataFilePerm)

	if err := fsutil.WriteFileAtomic(path, data, dataFilePerm); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

func (s *Storage) loadJSONWithRecovery(filename string, v any) error {
	path := s.path(filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s.writeJSONAtomic(filename, v)
		}
		return fmt.Errorf("read %s: %w", filename, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return s.recoverCorruptJSON(filename, v, fmt.Errorf("%s is empty", filename))
	}

	if err := json.Unmarshal(data, v); err == nil {
		return nil
	}
	return s.recoverCorruptJSON(filename, v, fmt.Errorf("parse %s: %w", filename, err))
}

func (s *Storage) recoverCorruptJSON(filename string, v any, cause error) error {
	path := s.path(filename)
	corruptPath := fmt.Sprintf("%s.corrupt.%s", path, s.Now().Format("20060102-150405"))

	bakData, bakErr := os.ReadFile(path + ".bak")
	if bakErr == nil && len(bytes.TrimSpace(bakData)) > 0 {
		if err := json.Unmarshal(bakData, v); err == nil {
			_ = os.Rename(path, corruptPath)
			_ = fsutil.WriteFileAtomic(path, bakData, dataFilePerm)
			slog.Warn("state recovered from backup", "file", filename, "cause", cause)
			return fmt.Errorf("%s (recovered from %s.bak)", cause.Error(), filename)
		}
	}

	// No usable backup: keep the broken file aside and reset.
	_ = os.Rename(path, corruptPath)
	_ = s.writeJSONAtomic(filename, v)
	slog.Warn("state reset to defaults", "file", filename, "cause", cause, "moved_to", corruptPath)
	return fmt.Errorf("%s (reset to defaults; original moved to %s)", cause.Error(), corruptPath)
}

// update loads the state, applies fn and saves the result. Nothing is
// written when fn fails.
func (s *Storage) update(ctx SaveContext, fn func(*State) (*State, error)) error {
	state, err := s.Load()
	if err != nil {
		return err
	}
	next, err := fn(state)
	if err != nil {
		return err
	}
	if err := s.Save(next); err != nil {
		return err
	}
	ctx.Filename = StateFile
	if s.onSave != nil {
		s.onSave(ctx)
	}
	return nil
}

// truncateForLog shortens s to maxLen cells for use in save contexts,
// cutting on rune boundaries.
func truncateForLog(s string, maxLen int) string {
	return runewidth.Truncate(s, maxLen, "…")
}

// ============================================================================
// Activities
// ============================================================================

// AddActivity stores a new activity. Missing id, status, program and end
// date are filled in; the colour is inherited from the category.
func (s *Storage) AddActivity(a Activity) (*Activity, error) {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return nil, fmt.Errorf("activity title is required")
	}
	if len(a.Title) > maxTitleLen {
		return nil, fmt.Errorf("activity title too long (max %d)", maxTitleLen)
	}
	if a.ID == "" {
		a.ID = s.newID()
	}
	if a.EndDate == "" {
		a.EndDate = a.StartDate
	}
	if a.Status == "" {
		a.Status = StatusActive
	}
	if a.Program == "" {
		a.Program = ProgramGeneral
	}

	err := s.update(SaveContext{Operation: "add", ItemType: "activity", ItemName: truncateForLog(a.Title, 50)},
		func(st *State) (*State, error) {
			a.Color = ColorFor(a, st.Categories)
			return AddActivity(st, a)
		})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SetActivityStatus changes an activity's status.
func (s *Storage) SetActivityStatus(id string, status Status) error {
	return s.update(SaveContext{Operation: "status", ItemType: "activity", ItemName: id},
		func(st *State) (*State, error) {
			return SetStatus(st, id, status)
		})
}

// ToggleActivityCompleted flips an activity's completed flag.
func (s *Storage) ToggleActivityCompleted(id string) error {
	return s.update(SaveContext{Operation: "toggle", ItemType: "activity", ItemName: id},
		func(st *State) (*State, error) {
			return ToggleCompleted(st, id)
		})
}

// PostponeActivity reschedules an activity and returns its replacement.
func (s *Storage) PostponeActivity(id, newStart, newEnd string) (*Activity, error) {
	var replacement Activity
	newID := s.newID()
	err := s.update(SaveContext{Operation: "postpone", ItemType: "activity", ItemName: id},
		func(st *State) (*State, error) {
			next, a, err := Postpone(st, id, newID, newStart, newEnd)
			if err != nil {
				return nil, err
			}
			replacement = a
			return AddNotification(next, Notification{
				ID:        s.newID(),
				Message:   fmt.Sprintf("%s postponed to %s", a.Title, a.StartDate),
				CreatedAt: s.Now(),
			}), nil
		})
	if err != nil {
		return nil, err
	}
	return &replacement, nil
}

// DeleteActivity removes an activity.
func (s *Storage) DeleteActivity(id string) error {
	return s.update(SaveContext{Operation: "delete", ItemType: "activity", ItemName: id},
		func(st *State) (*State, error) {
			return DeleteActivity(st, id)
		})
}

// ============================================================================
// Categories and day styles
// ============================================================================

// AddCategory stores a new category.
func (s *Storage) AddCategory(name, color string) (*Category, error) {
	c := Category{ID: s.newID(), Name: strings.TrimSpace(name), Color: strings.TrimSpace(color)}
	err := s.update(SaveContext{Operation: "add", ItemType: "category", ItemName: truncateForLog(c.Name, 50)},
		func(st *State) (*State, error) {
			return AddCategory(st, c)
		})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCategory removes a category without touching its references.
func (s *Storage) DeleteCategory(id string) error {
	return s.update(SaveContext{Operation: "delete", ItemType: "category", ItemName: id},
		func(st *State) (*State, error) {
			return DeleteCategory(st, id)
		})
}

// AddDayStyle stores a new day style, generating its id when empty.
func (s *Storage) AddDayStyle(d DayStyle) (*DayStyle, error) {
	if d.ID == "" {
		d.ID = s.newID()
	}
	name := d.Label
	if name == "" {
		name = d.StartDate
	}
	err := s.update(SaveContext{Operation: "add", ItemType: "day_style", ItemName: truncateForLog(name, 50)},
		func(st *State) (*State, error) {
			return AddDayStyle(st, d)
		})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DeleteDayStyle removes a day style.
func (s *Storage) DeleteDayStyle(id string) error {
	return s.update(SaveContext{Operation: "delete", ItemType: "day_style", ItemName: id},
		func(st *State) (*State, error) {
			return DeleteDayStyle(st, id)
		})
}

// ============================================================================
// Import
// ============================================================================

// MergeImport merges an import batch as one save and records message as a
// notification. Either the whole batch is stored or nothing is.
func (s *Storage) MergeImport(b *Batch, message string) (MergeStats, error) {
	var stats MergeStats
	err := s.update(SaveContext{Operation: "import", ItemType: "batch", ItemName: truncateForLog(message, 50)},
		func(st *State) (*State, error) {
			next, st2, err := MergeImport(st, b)
			if err != nil {
				return nil, err
			}
			stats = st2
			if message == "" {
				return next, nil
			}
			return AddNotification(next, Notification{
				ID:        s.newID(),
				Message:   message,
				CreatedAt: s.Now(),
			}), nil
		})
	return stats, err
}
