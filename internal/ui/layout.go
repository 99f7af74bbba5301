package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/novelstudio/internal/theme"
)

// Layout holds the terminal size and the rows taken by the header and
// status bar around the active view.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout for a terminal of the given size.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the rows left for the active view.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// bar renders left and right aligned text on one full-width row. When the
// row is too narrow the left text is cut, so the right side stays visible.
func (l Layout) bar(style lipgloss.Style, left, right string) string {
	rightRendered := ""
	if right != "" {
		rightRendered = style.Render(right)
	}
	room := l.Width - lipgloss.Width(rightRendered) - style.GetHorizontalPadding()
	if room < 1 {
		room = 1
	}
	leftRendered := style.Render(truncate(left, room))

	gap := l.Width - lipgloss.Width(leftRendered) - lipgloss.Width(rightRendered)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().Width(gap).Background(style.GetBackground()).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, leftRendered, filler, rightRendered)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// RenderHeader renders the title bar with the project's word count on the
// right.
func (l Layout) RenderHeader(title string, status string) string {
	return l.bar(theme.HeaderStyle, title, status)
}

// RenderStatusBar renders the bottom row of key hints or the last status
// message.
func (l Layout) RenderStatusBar(hints string) string {
	return l.bar(theme.StatusBarStyle, hints, "")
}

// RenderWithFrame stacks header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// ColumnWidths splits the content width into n columns, giving any remainder
// to the last one. Each width already accounts for the column border.
func (l Layout) ColumnWidths(n int) []int {
	if n <= 0 {
		return nil
	}
	w := l.Width / n
	out := make([]int, n)
	for i := range out {
		out[i] = w
	}
	out[n-1] += l.Width - w*n
	for i := range out {
		out[i] -= 4
		if out[i] < 10 {
			out[i] = 10
		}
	}
	return out
}
