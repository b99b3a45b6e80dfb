package ui

import (
	"testing"

	"schedcal/internal/config"
	"schedcal/internal/importer"

	tea "github.com/charmbracelet/bubbletea"
)

func runeKey(r string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestReviewModel_Decisions(t *testing.T) {
	setupTest(t)

	tests := []struct {
		name string
		msg  tea.KeyMsg
		want Decision
	}{
		{"y merges", runeKey("y"), DecisionMerge},
		{"enter merges", tea.KeyMsg{Type: tea.KeyEnter}, DecisionMerge},
		{"n discards", runeKey("n"), DecisionDiscard},
		{"q discards", runeKey("q"), DecisionDiscard},
		{"esc discards", tea.KeyMsg{Type: tea.KeyEsc}, DecisionDiscard},
		{"ctrl+c discards", tea.KeyMsg{Type: tea.KeyCtrlC}, DecisionDiscard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewReviewModel(sampleResult(), "plan.csv", createTestStyles(), DefaultReviewKeyMap())
			_, cmd := m.Update(tt.msg)

			if m.Decision() != tt.want {
				t.Errorf("Decision() = %v, want %v", m.Decision(), tt.want)
			}
			if !isQuit(cmd) {
				t.Error("expected the program to quit")
			}
			if m.View() != "" {
				t.Error("View() should be empty once decided")
			}
		})
	}
}

func TestReviewModel_FailedImportCannotMerge(t *testing.T) {
	setupTest(t)

	res := &importer.Result{Success: false, Message: "No activities could be imported", Errors: []string{"Row 2: invalid date \"x\""}}
	m := NewReviewModel(res, "plan.csv", createTestStyles(), DefaultReviewKeyMap())

	_, cmd := m.Update(runeKey("y"))
	if m.Decision() != DecisionPending || cmd != nil {
		t.Errorf("merge on a failed import: decision %v, cmd %v", m.Decision(), cmd != nil)
	}
	if !contains(m.View(), "Nothing to merge.") {
		t.Errorf("View() should say there is nothing to merge:\n%s", m.View())
	}

	m.Update(runeKey("n"))
	if m.Decision() != DecisionDiscard {
		t.Errorf("Decision() = %v, want discard", m.Decision())
	}
}

func TestReviewModel_CustomKeys(t *testing.T) {
	setupTest(t)

	keys := NewReviewKeyMap(&config.KeysConfig{Merge: "m", Discard: "x"})
	m := NewReviewModel(sampleResult(), "plan.csv", createTestStyles(), keys)

	// The default merge key no longer applies.
	m.Update(runeKey("y"))
	if m.Decision() != DecisionPending {
		t.Fatalf("y should be unbound, got %v", m.Decision())
	}
	m.Update(runeKey("m"))
	if m.Decision() != DecisionMerge {
		t.Errorf("Decision() = %v, want merge", m.Decision())
	}
}

func TestReviewModel_ViewAndScroll(t *testing.T) {
	setupTest(t)

	m := NewReviewModel(sampleResult(), "plan.csv", createTestStyles(), DefaultReviewKeyMap())
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 6})

	view := m.View()
	if !contains(view, "Import plan.csv") {
		t.Errorf("View() should show the source:\n%s", view)
	}
	if !contains(view, "Merge 2 activities into the calendar?") {
		t.Errorf("View() should ask to merge:\n%s", view)
	}
	if !contains(view, "merge") || !contains(view, "discard") {
		t.Errorf("View() should show key help:\n%s", view)
	}

	// The summary is taller than the viewport; scrolling moves it.
	if m.viewport.YOffset != 0 {
		t.Fatalf("YOffset = %d, want 0", m.viewport.YOffset)
	}
	m.Update(runeKey("j"))
	if m.viewport.YOffset != 1 {
		t.Errorf("YOffset after down = %d, want 1", m.viewport.YOffset)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.viewport.YOffset != 0 {
		t.Errorf("YOffset after up = %d, want 0", m.viewport.YOffset)
	}
	if m.Decision() != DecisionPending {
		t.Errorf("scrolling should not decide, got %v", m.Decision())
	}
}

func TestDecision_String(t *testing.T) {
	if DecisionMerge.String() != "merge" || DecisionDiscard.String() != "discard" || DecisionPending.String() != "pending" {
		t.Error("unexpected Decision strings")
	}
}
