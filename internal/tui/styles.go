package tui

import "github.com/charmbracelet/lipgloss"

// MinListWidth is the minimum character width for the contact list pane.
const MinListWidth = 24

// CursorMarker is the prefix shown on the selected contact row.
const CursorMarker = "▸ "

var (
	mutedText = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})
	titleText = lipgloss.NewStyle().Bold(true)
)

// paneBorder returns a rounded border style, accented when focused.
func paneBorder(focused bool) lipgloss.Style {
	color := lipgloss.AdaptiveColor{Light: "240", Dark: "240"}
	if focused {
		color = lipgloss.AdaptiveColor{Light: "4", Dark: "12"}
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color)
}

// PaneWidths calculates the list and detail pane widths from a total width.
// The list gets 1/3 (minimum MinListWidth), the detail pane gets the rest.
func PaneWidths(totalWidth int) (list, detail int) {
	if totalWidth <= 0 {
		return 0, 0
	}
	list = totalWidth / 3
	if list < MinListWidth {
		list = MinListWidth
	}
	detail = totalWidth - list
	if detail < 0 {
		detail = 0
	}
	return list, detail
}
