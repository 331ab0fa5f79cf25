package tui

import (
	"strings"
	"testing"

	"filenest/internal/logview"
	"filenest/pkg/testutils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLog = `2024-03-08T09:00:00Z | Created folder | Images | /in | /in/Images
2024-03-08T09:00:00Z | Moved | photo.jpg | /in | /in/Images
2024-03-09T10:30:00Z | Error | locked.pdf | /in | permission denied
2024-03-09T10:31:00Z | Moved | report.pdf | /in | /in/Documents
garbage
`

func newTestModel(t *testing.T) *Model {
	t.Helper()
	entries, err := logview.Parse(strings.NewReader(testLog))
	require.NoError(t, err)
	m := New("Move log", entries)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, keys ...string) {
	for _, k := range keys {
		m.Update(key(k))
	}
}

func TestModelShowsAllLines(t *testing.T) {
	m := newTestModel(t)
	assert.Len(t, m.Visible(), 5)

	view := testutils.StripANSI(m.View())
	assert.Contains(t, view, "Move log")
	assert.Contains(t, view, "photo.jpg")
	assert.Contains(t, view, "garbage")
	assert.Contains(t, view, "5 of 5 lines, 1 errors")
	assert.Contains(t, view, "[q] Quit")
}

func TestModelErrorsOnlyToggle(t *testing.T) {
	m := newTestModel(t)

	press(m, "e")
	require.Len(t, m.Visible(), 1)
	assert.Equal(t, "locked.pdf", m.Visible()[0].Name)
	assert.Contains(t, testutils.StripANSI(m.View()), "errors only")

	press(m, "e")
	assert.Len(t, m.Visible(), 5)
}

func TestModelSearch(t *testing.T) {
	m := newTestModel(t)

	press(m, "/")
	assert.True(t, m.Searching())
	assert.Contains(t, testutils.StripANSI(m.View()), "/")

	// Keys typed while searching go to the input, not to the viewer.
	press(m, "R", "e", "p", "o", "r", "t", "enter")
	assert.False(t, m.Searching())
	assert.Equal(t, "Report", m.Filter().Search)
	assert.False(t, m.Filter().ErrorsOnly)
	require.Len(t, m.Visible(), 1)
	assert.Equal(t, "report.pdf", m.Visible()[0].Name)
	assert.Contains(t, testutils.StripANSI(m.View()), "search: Report")

	press(m, "esc")
	assert.Equal(t, logview.Filter{}, m.Filter())
	assert.Len(t, m.Visible(), 5)
}

func TestModelSearchCancel(t *testing.T) {
	m := newTestModel(t)
	press(m, "/", "x", "esc")
	assert.False(t, m.Searching())
	assert.Empty(t, m.Filter().Search)
	assert.Len(t, m.Visible(), 5)
}

func TestModelNoMatches(t *testing.T) {
	m := newTestModel(t)
	press(m, "/", "z", "z", "z", "enter")
	assert.Empty(t, m.Visible())
	assert.Contains(t, testutils.StripANSI(m.View()), "No matching log lines.")
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
}
