package ui

import (
	"strings"

	"schedcal/internal/config"

	"github.com/charmbracelet/bubbles/key"
)

// parseKeys splits a comma-separated string into individual keys.
// If the input is empty, returns the default keys.
func parseKeys(customKeys string, defaultKeys ...string) []string {
	if customKeys == "" {
		return defaultKeys
	}
	keys := strings.Split(customKeys, ",")
	result := make([]string, 0, len(keys))
	for _, k := range keys {
		trimmed := strings.TrimSpace(k)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultKeys
	}
	return result
}

// ReviewKeyMap defines keys for the import review.
type ReviewKeyMap struct {
	Merge    key.Binding
	Discard  key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
}

// DefaultReviewKeyMap returns the default review key bindings.
func DefaultReviewKeyMap() ReviewKeyMap {
	return NewReviewKeyMap(&config.KeysConfig{})
}

// NewReviewKeyMap creates review key bindings from config.
func NewReviewKeyMap(cfg *config.KeysConfig) ReviewKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	merge := parseKeys(cfg.Merge, "y", "enter")
	discard := parseKeys(cfg.Discard, "n", "esc", "q")
	return ReviewKeyMap{
		Merge: key.NewBinding(
			key.WithKeys(merge...),
			key.WithHelp(merge[0], "merge"),
		),
		Discard: key.NewBinding(
			key.WithKeys(discard...),
			key.WithHelp(discard[0], "discard"),
		),
		Up: key.NewBinding(
			key.WithKeys(parseKeys(cfg.Up, "k", "up")...),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys(parseKeys(cfg.Down, "j", "down")...),
			key.WithHelp("j/↓", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "b"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", " ", "f"),
			key.WithHelp("pgdn", "page down"),
		),
		// ctrl+c always discards, whatever the config says.
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k ReviewKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Merge, k.Discard, k.Up, k.Down}
}

// FullHelp implements help.KeyMap.
func (k ReviewKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Merge, k.Discard},
		{k.Up, k.Down, k.PageUp, k.PageDown},
	}
}
