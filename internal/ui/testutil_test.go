package ui

import (
	"strings"
	"testing"

	"schedcal/internal/config"
	"schedcal/internal/importer"
	"schedcal/internal/storage"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// setupTest disables colour codes so rendered output can be compared as text.
func setupTest(t *testing.T) {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)
}

// createTestStyles creates a default Styles instance for testing.
func createTestStyles() *Styles {
	return NewStylesFromTheme(&config.ThemeConfig{})
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

// sampleResult is a partially successful CSV import.
func sampleResult() *importer.Result {
	return &importer.Result{
		Success: true,
		Message: "2 activities imported",
		Data: &storage.Batch{
			Activities: []storage.Activity{
				{ID: "a1", Title: "Ensayo general", StartDate: "2026-03-10", EndDate: "2026-03-10",
					Program: storage.ProgramChoir, Status: storage.StatusActive, Color: "#3b82f6"},
				{ID: "a2", Title: "Gira de verano", StartDate: "2026-07-01", EndDate: "2026-07-05",
					Program: storage.ProgramOrchestra, Status: storage.StatusPostponed, Color: "#ef4444"},
			},
		},
		Warnings: []string{"Row 3: end date before start date, set to start date"},
		Errors:   []string{`Row 4: invalid date "someday"`},
	}
}
