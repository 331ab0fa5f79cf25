package tui

import (
	"strings"
)

// Title, status and help lines around the viewport.
const chromeHeight = 3

// View implements tea.Model
func (m *Model) View() string {
	var sb strings.Builder

	sb.WriteString(TitleStyle.Render(m.title))
	if badges := m.badges(); badges != "" {
		sb.WriteString(" " + badges)
	}
	sb.WriteString("\n")

	if len(m.visible) == 0 {
		sb.WriteString(StatusStyle.Render("No matching log lines."))
	} else {
		sb.WriteString(m.viewport.View())
	}
	sb.WriteString("\n")

	sb.WriteString(StatusStyle.Render(m.status()))
	sb.WriteString("\n")
	if m.searching {
		sb.WriteString(m.search.View())
	} else {
		sb.WriteString(RenderKeyCommands())
	}
	return sb.String()
}

func (m *Model) badges() string {
	var parts []string
	if m.filter.ErrorsOnly {
		parts = append(parts, FilterStyle.Render("errors only"))
	}
	if m.filter.Search != "" {
		parts = append(parts, FilterStyle.Render("search: "+m.filter.Search))
	}
	return strings.Join(parts, " ")
}

// RenderKeyCommands renders the key help line.
func RenderKeyCommands() string {
	return StatusStyle.Render("[↑/k] Up  [↓/j] Down  [/] Search  [e] Errors only  [Esc] Clear  [q] Quit")
}
