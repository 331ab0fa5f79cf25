// Package tui is the interactive move log viewer.
package tui

import (
	"fmt"
	"strings"

	"filenest/internal/journal"
	"filenest/internal/logview"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Model browses log entries. "/" edits the search, "e" toggles errors only,
// "q" quits; the viewport handles scrolling keys.
type Model struct {
	entries []logview.Entry
	filter  logview.Filter
	visible []logview.Entry

	viewport  viewport.Model
	search    textinput.Model
	searching bool
	title     string
}

// New creates a viewer over entries, starting at the newest line.
func New(title string, entries []logview.Entry) *Model {
	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search"
	search.CharLimit = 256

	m := &Model{
		entries:  entries,
		search:   search,
		viewport: viewport.New(80, 20),
		title:    title,
	}
	m.refresh()
	return m
}

// Run shows the viewer until the user quits.
func Run(title string, entries []logview.Entry) error {
	_, err := tea.NewProgram(New(title, entries), tea.WithAltScreen()).Run()
	return err
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 1)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKeys(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "/":
			m.searching = true
			m.search.SetValue(m.filter.Search)
			m.search.CursorEnd()
			return m, m.search.Focus()
		case "e":
			m.filter.ErrorsOnly = !m.filter.ErrorsOnly
			m.refresh()
			return m, nil
		case "esc":
			m.filter = logview.Filter{}
			m.refresh()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filter.Search = strings.TrimSpace(m.search.Value())
		m.searching = false
		m.search.Blur()
		m.refresh()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// refresh re-applies the filter and re-renders the viewport content.
func (m *Model) refresh() {
	m.visible = m.filter.Apply(m.entries)
	lines := make([]string, len(m.visible))
	for i, e := range m.visible {
		lines[i] = styleFor(e).Render(e.Raw)
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

// Visible returns the entries passing the current filter.
func (m *Model) Visible() []logview.Entry {
	return m.visible
}

// Filter returns the active filter.
func (m *Model) Filter() logview.Filter {
	return m.filter
}

// Searching reports whether the search input has focus.
func (m *Model) Searching() bool {
	return m.searching
}

func (m *Model) status() string {
	errs := 0
	for _, e := range m.visible {
		if !e.Malformed && e.Action == journal.ActionError {
			errs++
		}
	}
	return fmt.Sprintf("%d of %d lines, %d errors", len(m.visible), len(m.entries), errs)
}
