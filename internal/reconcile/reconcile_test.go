package reconcile

import (
	"testing"
	"time"

	"schedcal/internal/storage"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMatches_Boundaries(t *testing.T) {
	tests := []struct {
		date string
		want bool
	}{
		{"2026-03-09", false},
		{"2026-03-10", true},
		{"2026-03-11", true},
		{"2026-03-12", true},
		{"2026-03-13", false},
	}

	for _, tc := range tests {
		if got := Matches(day(tc.date), "2026-03-10", "2026-03-12"); got != tc.want {
			t.Errorf("Matches(%s) = %v, want %v", tc.date, got, tc.want)
		}
	}
}

func TestMatches_SingleDay(t *testing.T) {
	if !Matches(day("2026-05-01"), "2026-05-01", "") {
		t.Error("style without end should match its start date")
	}
	if Matches(day("2026-05-02"), "2026-05-01", "") {
		t.Error("style without end should match only its start date")
	}
}

func TestMatches_Unparseable(t *testing.T) {
	tests := []struct{ start, end string }{
		{"", ""},
		{"01/05/2026", ""},
		{"2026-05-01", "soon"},
		{"2026-02-30", ""},
	}
	for _, tc := range tests {
		if Matches(day("2026-05-01"), tc.start, tc.end) {
			t.Errorf("Matches(%q, %q) should never match", tc.start, tc.end)
		}
	}
}

func TestMatches_IgnoresTimeOfDay(t *testing.T) {
	evening := time.Date(2026, 3, 12, 22, 45, 0, 0, time.UTC)
	if !Matches(evening, "2026-03-10", "2026-03-12") {
		t.Error("time of day should not affect matching")
	}
}

func TestStyleFor_NarrowestWins(t *testing.T) {
	styles := []storage.DayStyle{
		{ID: "term", StartDate: "2026-03-01", EndDate: "2026-06-30", Label: "Trimestre"},
		{ID: "holiday", StartDate: "2026-04-02", Label: "Feriado", IsHoliday: true},
		{ID: "week", StartDate: "2026-03-30", EndDate: "2026-04-05", Label: "Semana Santa"},
	}

	tests := []struct {
		date string
		want string
	}{
		{"2026-03-15", "term"},
		{"2026-03-31", "week"},
		{"2026-04-02", "holiday"},
	}
	for _, tc := range tests {
		got, ok := StyleFor(day(tc.date), styles)
		if !ok || got.ID != tc.want {
			t.Errorf("StyleFor(%s) = %q (%v), want %q", tc.date, got.ID, ok, tc.want)
		}
	}

	if _, ok := StyleFor(day("2026-07-01"), styles); ok {
		t.Error("expected no style outside every range")
	}
}

func TestStyleFor_EqualSpanLaterWins(t *testing.T) {
	styles := []storage.DayStyle{
		{ID: "first", StartDate: "2026-03-10", EndDate: "2026-03-12"},
		{ID: "second", StartDate: "2026-03-11", EndDate: "2026-03-13"},
	}
	got, ok := StyleFor(day("2026-03-11"), styles)
	if !ok || got.ID != "second" {
		t.Errorf("StyleFor() = %q, want the later style", got.ID)
	}

	// Reversing the slice reverses the winner.
	styles[0], styles[1] = styles[1], styles[0]
	got, _ = StyleFor(day("2026-03-11"), styles)
	if got.ID != "first" {
		t.Errorf("StyleFor() = %q after reordering, want first", got.ID)
	}
}

func TestStyleFor_SkipsInvalid(t *testing.T) {
	styles := []storage.DayStyle{
		{ID: "broken", StartDate: "2026-03-11", EndDate: "nope"},
		{ID: "ok", StartDate: "2026-03-01", EndDate: "2026-03-31"},
	}
	got, ok := StyleFor(day("2026-03-11"), styles)
	if !ok || got.ID != "ok" {
		t.Errorf("StyleFor() = %q, want ok", got.ID)
	}
}

func TestActivityFor(t *testing.T) {
	acts := []storage.Activity{
		{ID: "tour", Title: "Gira", StartDate: "2026-05-01", EndDate: "2026-05-10"},
		{ID: "gala", Title: "Gala", StartDate: "2026-05-05", EndDate: "2026-05-05"},
	}
	got, ok := ActivityFor(day("2026-05-05"), acts)
	if !ok || got.ID != "gala" {
		t.Errorf("ActivityFor() = %q, want gala", got.ID)
	}
	got, ok = ActivityFor(day("2026-05-06"), acts)
	if !ok || got.ID != "tour" {
		t.Errorf("ActivityFor() = %q, want tour", got.ID)
	}
	if _, ok := ActivityFor(day("2026-05-11"), acts); ok {
		t.Error("expected no activity after the tour")
	}
}

func TestActivitiesOn_Sorted(t *testing.T) {
	acts := []storage.Activity{
		{ID: "c", Title: "Zarzuela", StartDate: "2026-05-05", EndDate: "2026-05-05"},
		{ID: "a", Title: "Gira", StartDate: "2026-05-01", EndDate: "2026-05-10"},
		{ID: "b", Title: "Ensayo", StartDate: "2026-05-05", EndDate: "2026-05-05"},
		{ID: "d", Title: "Otro día", StartDate: "2026-05-06", EndDate: "2026-05-06"},
	}
	got := ActivitiesOn(day("2026-05-05"), acts)
	var ids []string
	for _, a := range got {
		ids = append(ids, a.ID)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Errorf("ActivitiesOn() ids = %v, want [a b c]", ids)
	}
	if acts[0].ID != "c" {
		t.Error("input slice was reordered")
	}
}
