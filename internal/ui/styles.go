// Package ui renders schedcal output for the terminal and hosts the
// interactive import review.
package ui

import (
	"fmt"

	"schedcal/internal/config"
	"schedcal/internal/storage"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds all application styles, initialized with theme configuration.
type Styles struct {
	// Colors
	ColorPrimary lipgloss.Color
	ColorAccent  lipgloss.Color
	ColorMuted   lipgloss.Color
	ColorWarning lipgloss.Color
	ColorError   lipgloss.Color
	ColorSuccess lipgloss.Color
	ColorText    lipgloss.Color

	TitleStyle   lipgloss.Style
	HeadingStyle lipgloss.Style
	BoxStyle     lipgloss.Style
	MutedStyle   lipgloss.Style

	WarningStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	SuccessStyle lipgloss.Style

	HolidayStyle lipgloss.Style
	DoneStyle    lipgloss.Style

	// Status badges
	PostponedStyle lipgloss.Style
	SuspendedStyle lipgloss.Style

	HelpStyle    lipgloss.Style
	HelpKeyStyle lipgloss.Style

	StatLabelStyle lipgloss.Style
	StatValueStyle lipgloss.Style

	CheckboxDone    string
	CheckboxPending string
}

// NewStyles creates a new Styles instance from the given config.
func NewStyles(cfg *config.Config) *Styles {
	return NewStylesFromTheme(&cfg.Theme)
}

// NewStylesFromTheme creates a new Styles instance from a ThemeConfig.
// If a theme color is empty, it uses the appropriate default.
func NewStylesFromTheme(theme *config.ThemeConfig) *Styles {
	s := &Styles{}

	s.ColorPrimary = colorOrDefault(theme.Primary, "#3B82F6")
	s.ColorAccent = colorOrDefault(theme.Accent, "#10B981")
	s.ColorMuted = colorOrDefault(theme.Muted, "#6B7280")
	s.ColorWarning = colorOrDefault(theme.Warning, "#F59E0B")
	s.ColorError = colorOrDefault(theme.Error, "#EF4444")

	// Fixed semantic colors (not configurable from theme)
	s.ColorSuccess = lipgloss.Color("#10B981")
	s.ColorText = lipgloss.Color("#F9FAFB")

	s.initComponentStyles()
	return s
}

// colorOrDefault returns the lipgloss.Color from hex string, or default if empty.
func colorOrDefault(hex, defaultHex string) lipgloss.Color {
	if hex != "" {
		return lipgloss.Color(hex)
	}
	return lipgloss.Color(defaultHex)
}

func (s *Styles) initComponentStyles() {
	s.TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(s.ColorText).
		Background(s.ColorPrimary).
		Padding(0, 1)

	s.HeadingStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(s.ColorPrimary)

	s.BoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.ColorMuted).
		Padding(0, 1)

	s.MutedStyle = lipgloss.NewStyle().
		Foreground(s.ColorMuted)

	s.WarningStyle = lipgloss.NewStyle().
		Foreground(s.ColorWarning)

	s.ErrorStyle = lipgloss.NewStyle().
		Foreground(s.ColorError).
		Bold(true)

	s.SuccessStyle = lipgloss.NewStyle().
		Foreground(s.ColorSuccess).
		Italic(true)

	s.HolidayStyle = lipgloss.NewStyle().
		Foreground(s.ColorError).
		Bold(true)

	s.DoneStyle = lipgloss.NewStyle().
		Foreground(s.ColorMuted).
		Strikethrough(true)

	s.PostponedStyle = lipgloss.NewStyle().
		Foreground(s.ColorWarning).
		Bold(true)

	s.SuspendedStyle = lipgloss.NewStyle().
		Foreground(s.ColorError)

	s.HelpStyle = lipgloss.NewStyle().
		Foreground(s.ColorMuted)

	s.HelpKeyStyle = lipgloss.NewStyle().
		Foreground(s.ColorAccent).
		Bold(true)

	s.StatLabelStyle = lipgloss.NewStyle().
		Foreground(s.ColorMuted)

	s.StatValueStyle = lipgloss.NewStyle().
		Bold(true)

	s.CheckboxDone = lipgloss.NewStyle().Foreground(s.ColorSuccess).Render("[x]")
	s.CheckboxPending = lipgloss.NewStyle().Foreground(s.ColorMuted).Render("[ ]")
}

// Swatch renders a small block in the given hex colour.
func (s *Styles) Swatch(hex string) string {
	if hex == "" {
		hex = storage.DefaultActivityColor
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("■")
}

// Status renders a badge for non-active statuses and "" for active ones.
func (s *Styles) Status(status storage.Status) string {
	switch status {
	case storage.StatusPostponed:
		return s.PostponedStyle.Render("postponed")
	case storage.StatusSuspended:
		return s.SuspendedStyle.Render("suspended")
	default:
		return ""
	}
}

// Stat renders a "label: value" pair.
func (s *Styles) Stat(label string, value any) string {
	return s.StatLabelStyle.Render(label+":") + " " + s.StatValueStyle.Render(fmt.Sprint(value))
}

// RenderHelp renders help text with key bindings using the given styles.
func (s *Styles) RenderHelp(keys ...string) string {
	var result string
	for i := 0; i+1 < len(keys); i += 2 {
		if i > 0 {
			result += "  "
		}
		result += s.HelpKeyStyle.Render("["+keys[i]+"]") + " " + s.HelpStyle.Render(keys[i+1])
	}
	return result
}
