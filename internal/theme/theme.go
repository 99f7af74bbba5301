package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ColumnStyle frames one board column; focused columns get the accent border.
func ColumnStyle(focused bool) lipgloss.Style {
	if focused {
		return BorderStyle.BorderForeground(ColorBlue).Padding(0, 1)
	}
	return BorderStyle.Padding(0, 1)
}

// DimmedStyle renders secondary text such as counts and timestamps.
var DimmedStyle = lipgloss.NewStyle().Foreground(ColorGray)

// LinkBadgeStyle marks a beat that is linked to a scene.
var LinkBadgeStyle = lipgloss.NewStyle().Foreground(ColorMagenta).Bold(true)

// StatusStyle returns a color-coded style for a project or chapter status.
func StatusStyle(status string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch status {
	case "Planning", "Draft":
		return base.Foreground(ColorBlue)
	case "In Progress", "Revision":
		return base.Foreground(ColorYellow)
	case "Completed", "Final":
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// SaveStateStyle colors the editor's save indicator.
func SaveStateStyle(state string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch state {
	case "dirty":
		return base.Foreground(ColorOrange)
	case "saved", "autosaved":
		return base.Foreground(ColorGreen)
	case "error":
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}

// HighlightStyle returns the background used for a manuscript highlight.
func HighlightStyle(color string) lipgloss.Style {
	base := lipgloss.NewStyle().Foreground(lipgloss.Color("#1A202C"))

	switch color {
	case "yellow":
		return base.Background(ColorYellow)
	case "green":
		return base.Background(ColorGreen)
	case "pink":
		return base.Background(lipgloss.AdaptiveColor{Dark: "#F783AC", Light: "#D53F8C"})
	default:
		return lipgloss.NewStyle()
	}
}
