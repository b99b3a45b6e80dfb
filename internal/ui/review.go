package ui

import (
	"fmt"
	"io"

	"schedcal/internal/importer"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Decision is the outcome of an import review.
type Decision int

const (
	// DecisionPending means the user has not answered yet.
	DecisionPending Decision = iota
	DecisionMerge
	DecisionDiscard
)

func (d Decision) String() string {
	switch d {
	case DecisionMerge:
		return "merge"
	case DecisionDiscard:
		return "discard"
	default:
		return "pending"
	}
}

// Default viewport size used until the first WindowSizeMsg arrives.
const (
	defaultWidth  = 80
	defaultHeight = 20
)

// ReviewModel shows an import result and asks whether to merge it.
type ReviewModel struct {
	result   *importer.Result
	source   string
	styles   *Styles
	keys     ReviewKeyMap
	help     help.Model
	viewport viewport.Model
	decision Decision
}

// NewReviewModel creates a review for res read from source.
func NewReviewModel(res *importer.Result, source string, styles *Styles, keys ReviewKeyMap) *ReviewModel {
	m := &ReviewModel{
		result:   res,
		source:   source,
		styles:   styles,
		keys:     keys,
		help:     help.New(),
		viewport: viewport.New(defaultWidth, defaultHeight),
	}
	m.viewport.SetContent(ImportSummary(res, source, styles))
	return m
}

// Decision returns what the user chose.
func (m *ReviewModel) Decision() Decision {
	return m.decision
}

// Init implements tea.Model.
func (m *ReviewModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		// Leave room for the prompt and the help line.
		m.viewport.Height = max(msg.Height-3, 1)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Discard):
			m.decision = DecisionDiscard
			return m, tea.Quit
		case key.Matches(msg, m.keys.Merge):
			// A failed import has nothing to merge.
			if !m.result.Success {
				return m, nil
			}
			m.decision = DecisionMerge
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.viewport.LineUp(1)
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.viewport.LineDown(1)
			return m, nil
		case key.Matches(msg, m.keys.PageUp):
			m.viewport.ViewUp()
			return m, nil
		case key.Matches(msg, m.keys.PageDown):
			m.viewport.ViewDown()
			return m, nil
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *ReviewModel) View() string {
	if m.decision != DecisionPending {
		return ""
	}

	prompt := m.styles.HeadingStyle.Render(fmt.Sprintf("Merge %d activities into the calendar?", m.result.ActivityCount()))
	if !m.result.Success {
		prompt = m.styles.ErrorStyle.Render("Nothing to merge.")
	}
	return m.viewport.View() + "\n" + prompt + "\n" + m.help.View(m.keys)
}

// RunReview runs the review program on the given terminal streams and
// returns the decision.
func RunReview(res *importer.Result, source string, styles *Styles, keys ReviewKeyMap, in io.Reader, out io.Writer) (Decision, error) {
	m := NewReviewModel(res, source, styles, keys)
	p := tea.NewProgram(m, tea.WithInput(in), tea.WithOutput(out), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return DecisionPending, fmt.Errorf("review: %w", err)
	}
	return m.Decision(), nil
}
