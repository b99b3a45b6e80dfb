package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// createTestStorage creates a Storage instance with a temporary directory
// and deterministic ids.
func createTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create test storage: %v", err)
	}
	n := 0
	store.SetIDFunc(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
	store.SetNowFunc(func() time.Time {
		return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	})
	return store
}

// =============================================================================
// Activity Tests
// =============================================================================

func TestAddActivity(t *testing.T) {
	tests := []struct {
		name  string
		input Activity
		want  Activity
	}{
		{
			name:  "defaults filled in",
			input: Activity{Title: "Ensayo General", StartDate: "2026-03-10"},
			want: Activity{
				ID: "id-1", Title: "Ensayo General", StartDate: "2026-03-10", EndDate: "2026-03-10",
				Program: ProgramGeneral, Status: StatusActive, Color: DefaultActivityColor,
			},
		},
		{
			name:  "range kept",
			input: Activity{Title: "Gira", StartDate: "2026-05-01", EndDate: "2026-05-04", Program: ProgramOrchestra},
			want: Activity{
				ID: "id-1", Title: "Gira", StartDate: "2026-05-01", EndDate: "2026-05-04",
				Program: ProgramOrchestra, Status: StatusActive, Color: DefaultActivityColor,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := createTestStorage(t)

			got, err := store.AddActivity(tt.input)
			if err != nil {
				t.Fatalf("AddActivity() error = %v", err)
			}
			if *got != tt.want {
				t.Errorf("AddActivity() = %+v, want %+v", *got, tt.want)
			}

			loaded, err := store.Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(loaded.Activities) != 1 || loaded.Activities[0] != tt.want {
				t.Errorf("persisted = %+v, want [%+v]", loaded.Activities, tt.want)
			}
		})
	}
}

func TestAddActivity_Validation(t *testing.T) {
	store := createTestStorage(t)

	bad := []Activity{
		{Title: "   ", StartDate: "2026-03-10"},
		{Title: strings.Repeat("a", maxTitleLen+1), StartDate: "2026-03-10"},
		{Title: "No date"},
		{Title: "Bad date", StartDate: "10/03/2026"},
		{Title: "Backwards", StartDate: "2026-03-10", EndDate: "2026-03-09"},
		{Title: "Bad program", StartDate: "2026-03-10", Program: "Banda"},
		{Title: "Bad status", StartDate: "2026-03-10", Status: "done"},
	}
	for _, a := range bad {
		if _, err := store.AddActivity(a); err == nil {
			t.Errorf("AddActivity(%+v) expected error", a)
		}
	}

	loaded, _ := store.Load()
	if len(loaded.Activities) != 0 {
		t.Errorf("invalid activities were persisted: %+v", loaded.Activities)
	}
}

func TestAddActivity_InheritsCategoryColor(t *testing.T) {
	store := createTestStorage(t)

	cat, err := store.AddCategory("Conciertos", "#ff0000")
	if err != nil {
		t.Fatalf("AddCategory() error = %v", err)
	}
	a, err := store.AddActivity(Activity{Title: "Gala", StartDate: "2026-04-01", CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("AddActivity() error = %v", err)
	}
	if a.Color != "#ff0000" {
		t.Errorf("Color = %q, want #ff0000", a.Color)
	}
}

func TestSetActivityStatusAndToggle(t *testing.T) {
	store := createTestStorage(t)
	a, _ := store.AddActivity(Activity{Title: "Ensayo", StartDate: "2026-03-10"})

	if err := store.SetActivityStatus(a.ID, StatusSuspended); err != nil {
		t.Fatalf("SetActivityStatus() error = %v", err)
	}
	if err := store.ToggleActivityCompleted(a.ID); err != nil {
		t.Fatalf("ToggleActivityCompleted() error = %v", err)
	}

	loaded, _ := store.Load()
	if loaded.Activities[0].Status != StatusSuspended {
		t.Errorf("Status = %q, want suspended", loaded.Activities[0].Status)
	}
	if !loaded.Activities[0].Completed {
		t.Error("Completed = false, want true")
	}

	if err := store.SetActivityStatus(a.ID, "finished"); err == nil {
		t.Error("expected error for invalid status")
	}
	if err := store.ToggleActivityCompleted("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ToggleActivityCompleted(missing) error = %v, want ErrNotFound", err)
	}
}

func TestPostponeActivity(t *testing.T) {
	store := createTestStorage(t)
	orig, _ := store.AddActivity(Activity{Title: "Concierto", StartDate: "2026-03-10", EndDate: "2026-03-11", Program: ProgramChoir})
	_ = store.ToggleActivityCompleted(orig.ID)

	next, err := store.PostponeActivity(orig.ID, "2026-04-20", "")
	if err != nil {
		t.Fatalf("PostponeActivity() error = %v", err)
	}

	if next.StartDate != "2026-04-20" || next.EndDate != "2026-04-21" {
		t.Errorf("replacement dates = %s..%s, want 2026-04-20..2026-04-21", next.StartDate, next.EndDate)
	}
	if next.Status != StatusActive || next.Completed {
		t.Errorf("replacement status = %q completed=%v, want active and not completed", next.Status, next.Completed)
	}
	if next.PostponedFrom != orig.ID {
		t.Errorf("PostponedFrom = %q, want %q", next.PostponedFrom, orig.ID)
	}
	if next.Program != ProgramChoir || next.Title != "Concierto" {
		t.Errorf("replacement lost fields: %+v", next)
	}

	loaded, _ := store.Load()
	if len(loaded.Activities) != 2 {
		t.Fatalf("len(activities) = %d, want 2", len(loaded.Activities))
	}
	o := loaded.Activities[0]
	if o.Status != StatusPostponed || o.PostponedTo != next.ID {
		t.Errorf("original = %+v, want postponed with forward reference", o)
	}
	if o.StartDate != "2026-03-10" {
		t.Errorf("original dates changed: %s", o.StartDate)
	}
	if len(loaded.Notifications) != 1 {
		t.Errorf("len(notifications) = %d, want 1", len(loaded.Notifications))
	}

	if _, err := store.PostponeActivity(orig.ID, "2026-05-01", ""); err == nil {
		t.Error("postponing twice should fail")
	}
	if _, err := store.PostponeActivity(next.ID, "01/05/2026", ""); err == nil {
		t.Error("non ISO date should fail")
	}
	if _, err := store.PostponeActivity("missing", "2026-05-01", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDeleteActivity(t *testing.T) {
	store := createTestStorage(t)
	a, _ := store.AddActivity(Activity{Title: "Ensayo", StartDate: "2026-03-10"})

	if err := store.DeleteActivity(a.ID); err != nil {
		t.Fatalf("DeleteActivity() error = %v", err)
	}
	loaded, _ := store.Load()
	if len(loaded.Activities) != 0 {
		t.Errorf("len(activities) = %d, want 0", len(loaded.Activities))
	}
	if err := store.DeleteActivity(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteActivity() error = %v, want ErrNotFound", err)
	}
}

// =============================================================================
// Category / DayStyle Tests
// =============================================================================

func TestDeleteCategory_DoesNotCascade(t *testing.T) {
	store := createTestStorage(t)
	cat, _ := store.AddCategory("Festivos", "#00aa00")
	a, _ := store.AddActivity(Activity{Title: "Gala", StartDate: "2026-04-01", CategoryID: cat.ID})
	if _, err := store.AddDayStyle(DayStyle{StartDate: "2026-04-01", CategoryID: cat.ID}); err != nil {
		t.Fatalf("AddDayStyle() error = %v", err)
	}

	if err := store.DeleteCategory(cat.ID); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}

	loaded, _ := store.Load()
	if len(loaded.Categories) != 0 {
		t.Errorf("category not deleted")
	}
	if loaded.Activities[0].CategoryID != cat.ID || loaded.DayStyles[0].CategoryID != cat.ID {
		t.Error("references to the deleted category should be kept")
	}
	// Dangling reference falls back to the activity's own colour.
	if got := ColorFor(loaded.Activities[0], loaded.Categories); got != a.Color {
		t.Errorf("ColorFor dangling = %q, want %q", got, a.Color)
	}
}

func TestAddCategory_Validation(t *testing.T) {
	store := createTestStorage(t)
	for _, c := range [][2]string{{"", "#ffffff"}, {"Name", "red"}, {"Name", ""}} {
		if _, err := store.AddCategory(c[0], c[1]); err == nil {
			t.Errorf("AddCategory(%q, %q) expected error", c[0], c[1])
		}
	}
}

func TestAddDayStyle_Validation(t *testing.T) {
	store := createTestStorage(t)
	if _, err := store.AddDayStyle(DayStyle{StartDate: "2026-03-12", EndDate: "2026-03-10"}); err == nil {
		t.Error("expected error for reversed range")
	}
	if _, err := store.AddDayStyle(DayStyle{StartDate: "12/03/2026"}); err == nil {
		t.Error("expected error for non ISO date")
	}
	d, err := store.AddDayStyle(DayStyle{StartDate: "2026-03-12", Label: "Semana Santa", IsHoliday: true})
	if err != nil {
		t.Fatalf("AddDayStyle() error = %v", err)
	}
	if err := store.DeleteDayStyle(d.ID); err != nil {
		t.Fatalf("DeleteDayStyle() error = %v", err)
	}
}

// =============================================================================
// Import merge
// =============================================================================

func TestMergeImport(t *testing.T) {
	store := createTestStorage(t)
	existing, _ := store.AddActivity(Activity{Title: "Old", StartDate: "2026-01-10"})

	batch := &Batch{
		Activities: []Activity{
			{ID: existing.ID, Title: "Replaced", StartDate: "2026-01-11", EndDate: "2026-01-11", Program: ProgramGeneral, Status: StatusActive},
			{ID: "new-1", Title: "New", StartDate: "2026-02-01", EndDate: "2026-02-01", Program: ProgramChoir, Status: StatusActive},
		},
		Categories: []Category{{ID: "c1", Name: "Conciertos", Color: "#112233"}},
		DayStyles:  []DayStyle{{ID: "s1", StartDate: "2026-02-01"}},
	}

	stats, err := store.MergeImport(batch, "2 activities imported")
	if err != nil {
		t.Fatalf("MergeImport() error = %v", err)
	}
	want := MergeStats{ActivitiesAdded: 1, ActivitiesReplaced: 1, CategoriesAdded: 1, DayStylesAdded: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}

	loaded, _ := store.Load()
	if len(loaded.Activities) != 2 || loaded.Activities[0].Title != "Replaced" {
		t.Errorf("activities = %+v", loaded.Activities)
	}
	if len(loaded.Notifications) != 1 || loaded.Notifications[0].Message != "2 activities imported" {
		t.Errorf("notifications = %+v", loaded.Notifications)
	}
}

func TestMergeImport_AllOrNothing(t *testing.T) {
	store := createTestStorage(t)

	batch := &Batch{
		Activities: []Activity{
			{ID: "ok", Title: "Fine", StartDate: "2026-02-01", EndDate: "2026-02-01", Program: ProgramGeneral, Status: StatusActive},
		},
		DayStyles: []DayStyle{{ID: "bad", StartDate: "not a date"}},
	}

	if _, err := store.MergeImport(batch, "x"); err == nil {
		t.Fatal("expected validation error")
	}

	loaded, _ := store.Load()
	if len(loaded.Activities) != 0 || len(loaded.DayStyles) != 0 || len(loaded.Notifications) != 0 {
		t.Errorf("failed merge left partial state: %+v", loaded)
	}
}

func TestReducersDoNotMutateInput(t *testing.T) {
	st := DefaultState(time.Now())
	st.Activities = append(st.Activities, Activity{
		ID: "a", Title: "A", StartDate: "2026-01-01", EndDate: "2026-01-01", Program: ProgramGeneral, Status: StatusActive,
	})

	next, err := SetStatus(st, "a", StatusSuspended)
	if err != nil {
		t.Fatal(err)
	}
	if st.Activities[0].Status != StatusActive {
		t.Error("SetStatus mutated its input")
	}
	if next.Activities[0].Status != StatusSuspended {
		t.Error("SetStatus did not apply")
	}

	if _, _, err := Postpone(st, "a", "b", "2026-02-01", ""); err != nil {
		t.Fatal(err)
	}
	if len(st.Activities) != 1 || st.Activities[0].PostponedTo != "" {
		t.Error("Postpone mutated its input")
	}
}

// =============================================================================
// Persistence
// =============================================================================

func TestStorageInitialization(t *testing.T) {
	store := createTestStorage(t)

	st, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if st.Activities == nil || st.Categories == nil || st.DayStyles == nil || st.Notifications == nil {
		t.Errorf("default state has nil collections: %+v", st)
	}
	if st.Config.MonthsToShow != 12 {
		t.Errorf("MonthsToShow = %d, want 12", st.Config.MonthsToShow)
	}
}

func TestLoad_RecoversFromBackup(t *testing.T) {
	store := createTestStorage(t)
	if _, err := store.AddActivity(Activity{Title: "First", StartDate: "2026-03-10"}); err != nil {
		t.Fatal(err)
	}
	// Second save leaves the first state in calendar.json.bak.
	if _, err := store.AddActivity(Activity{Title: "Second", StartDate: "2026-03-11"}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(store.StatePath(), []byte("{broken"), 0600); err != nil {
		t.Fatal(err)
	}

	st, err := store.Load()
	if err == nil || !strings.Contains(err.Error(), "recovered") {
		t.Fatalf("Load() error = %v, want recovery notice", err)
	}
	if len(st.Activities) != 1 || st.Activities[0].Title != "First" {
		t.Errorf("recovered activities = %+v", st.Activities)
	}

	// The recovered state is written back.
	if _, err := store.Load(); err != nil {
		t.Errorf("second Load() error = %v", err)
	}
}

func TestLoad_ResetsWithoutBackup(t *testing.T) {
	store := createTestStorage(t)
	if err := os.WriteFile(store.StatePath(), []byte("   "), 0600); err != nil {
		t.Fatal(err)
	}
	_ = os.Remove(store.StatePath() + ".bak")

	st, err := store.Load()
	if err == nil || !strings.Contains(err.Error(), "reset to defaults") {
		t.Fatalf("Load() error = %v, want reset notice", err)
	}
	if len(st.Activities) != 0 {
		t.Errorf("activities = %+v, want empty", st.Activities)
	}

	matches, _ := filepath.Glob(store.StatePath() + ".corrupt.*")
	if len(matches) != 1 {
		t.Errorf("corrupt copies = %v, want 1", matches)
	}
}

func TestSaveHook(t *testing.T) {
	store := createTestStorage(t)
	var got []SaveContext
	store.SetOnSave(func(ctx SaveContext) { got = append(got, ctx) })

	a, _ := store.AddActivity(Activity{Title: "Ensayo", StartDate: "2026-03-10"})
	_ = store.DeleteActivity(a.ID)
	_ = store.DeleteActivity(a.ID) // not found, no save

	if len(got) != 2 {
		t.Fatalf("hook calls = %d, want 2", len(got))
	}
	if got[0].Operation != "add" || got[0].ItemName != "Ensayo" || got[0].Filename != StateFile {
		t.Errorf("first context = %+v", got[0])
	}
	if got[1].Operation != "delete" {
		t.Errorf("second context = %+v", got[1])
	}
}

func TestTruncateForLog(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"Ensayo", 50, "Ensayo"},
		{"Concierto de Navidad", 10, "Concierto…"},
		{"Canción de cuna", 7, "Canció…"},
	}
	for _, tt := range tests {
		got := truncateForLog(tt.in, tt.maxLen)
		if got != tt.want {
			t.Errorf("truncateForLog(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
		if runewidth.StringWidth(got) > tt.maxLen {
			t.Errorf("truncateForLog(%q, %d) = %q, too wide", tt.in, tt.maxLen, got)
		}
	}

	// The cut falls inside the two-byte "ñ".
	got := truncateForLog(strings.Repeat("a", 48)+"ñandú", 50)
	if !utf8.ValidString(got) || !strings.HasSuffix(got, "…") {
		t.Errorf("truncateForLog cut a rune: %q", got)
	}
}

func TestStorage_PermissionsArePrivate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions are not meaningful on Windows")
	}

	dataDir := t.TempDir()
	if _, err := New(dataDir); err != nil {
		t.Fatalf("New() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dataDir, StateFile))
	if err != nil {
		t.Fatalf("Stat error = %v", err)
	}
	if info.Mode().Perm()&0o077 != 0 {
		t.Fatalf("permissions = %o, want no group/other bits", info.Mode().Perm())
	}
}
