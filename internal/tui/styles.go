package tui

import (
	"filenest/internal/journal"
	"filenest/internal/logview"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Title bar
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4F4FB7")).
			Padding(0, 1)

	// Status line and key help
	StatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#959595"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))

	SkippedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D08770"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#73F59F"))

	FolderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#81A1C1")).
			Bold(true)

	// Dry-run records and unreadable lines
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	// Active filter badge
	FilterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#7B61FF")).
			Padding(0, 1)
)

// styleFor picks the line style for an entry.
func styleFor(e logview.Entry) lipgloss.Style {
	if e.Malformed || e.Simulated {
		return DimStyle
	}
	switch e.Action {
	case journal.ActionError:
		return ErrorStyle
	case journal.ActionSkipped:
		return SkippedStyle
	case journal.ActionCreatedFolder, journal.ActionRemovedFolder:
		return FolderStyle
	default:
		return SuccessStyle
	}
}
