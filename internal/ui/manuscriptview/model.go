package manuscriptview

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/nhle/novelstudio/internal/keys"
	"github.com/nhle/novelstudio/internal/manuscript"
	"github.com/nhle/novelstudio/internal/theme"
)

// CloseMsg asks the parent to leave the manuscript view.
type CloseMsg struct{}

// LoadedMsg carries a freshly composed chapter.
type LoadedMsg struct {
	Chapter manuscript.Chapter
	Err     error
}

// Source composes the manuscript of the selected chapter.
type Source interface {
	Manuscript(ctx context.Context) (manuscript.Chapter, error)
}

// Model shows the read-only manuscript of one chapter.
type Model struct {
	src       Source
	keys      *keys.KeyMap
	viewport  viewport.Model
	chapter   manuscript.Chapter
	loaded    bool
	wrap      int
	statusMsg string
	width     int
	height    int
}

// New creates a manuscript view. wrap is the preferred text width; zero
// wraps at the terminal width.
func New(src Source, k *keys.KeyMap, wrap, width, height int) Model {
	m := Model{src: src, keys: k, wrap: wrap, viewport: viewport.New(width, max(height-2, 1))}
	m.SetSize(width, height)
	return m
}

// Load composes the chapter in the background.
func (m Model) Load() tea.Cmd {
	src := m.src
	return func() tea.Msg {
		ch, err := src.Manuscript(context.Background())
		return LoadedMsg{Chapter: ch, Err: err}
	}
}

// Chapter returns the last composed chapter.
func (m Model) Chapter() manuscript.Chapter { return m.chapter }

// SetStatus replaces the status line.
func (m *Model) SetStatus(s string) { m.statusMsg = s }

// Update handles messages for the manuscript view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Err != nil {
			m.statusMsg = "Error: " + msg.Err.Error()
			return m, nil
		}
		m.chapter = msg.Chapter
		m.loaded = true
		m.statusMsg = ""
		m.viewport.SetContent(m.render())
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return CloseMsg{} }
		case key.Matches(msg, m.keys.Refresh):
			m.statusMsg = "Reloading..."
			return m, m.Load()
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) textWidth() int {
	w := m.width - 6
	if m.wrap > 0 && m.wrap < w {
		w = m.wrap
	}
	return max(w, 20)
}

// render lays the chapter out as wrapped prose with highlights applied and
// comment markers after each scene.
func (m Model) render() string {
	ch := m.chapter
	width := m.textWidth()

	var b strings.Builder
	title := fmt.Sprintf("Chapter %d: %s", ch.Number, ch.Chapter.Title)
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(title))
	b.WriteString("\n")
	b.WriteString(theme.DimmedStyle.Render(fmt.Sprintf("%d words", ch.Words)))
	b.WriteString("\n\n")

	if len(ch.Blocks) == 0 {
		b.WriteString(theme.HelpStyle.Render("This chapter has no scenes yet."))
		return b.String()
	}

	for _, blk := range ch.Blocks {
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render(blk.Title))
		b.WriteString("  ")
		b.WriteString(theme.DimmedStyle.Render(fmt.Sprintf("%d words", blk.Words)))
		b.WriteString("\n")

		if blk.Empty {
			b.WriteString(theme.HelpStyle.Render(manuscript.EmptyScenePlaceholder))
		} else {
			b.WriteString(renderSegments(blk.Segments, width))
		}
		b.WriteString("\n")

		for i, c := range blk.Comments {
			note := fmt.Sprintf("[%d] %q: %s", i+1, c.Selection, c.Text)
			b.WriteString(indent.String(theme.LinkBadgeStyle.Render(wordwrap.String(note, width-2)), 2))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderSegments styles each highlighted run and then wraps the result.
// reflow measures printable width only, so styling survives the wrap.
func renderSegments(segs []manuscript.Segment, width int) string {
	var b strings.Builder
	for _, s := range segs {
		if s.Color == "" {
			b.WriteString(s.Text)
			continue
		}
		lines := strings.Split(s.Text, "\n")
		for i, l := range lines {
			lines[i] = theme.HighlightStyle(s.Color).Render(l)
		}
		b.WriteString(strings.Join(lines, "\n"))
	}
	return wordwrap.String(b.String(), width)
}

// View renders the manuscript.
func (m Model) View() string {
	if !m.loaded {
		return lipgloss.NewStyle().Padding(1, 2).Render(theme.HelpStyle.Render("Composing manuscript..."))
	}
	footer := fmt.Sprintf("%3.f%% | r reload | :export chapter | :export novel | esc back", m.viewport.ScrollPercent()*100)
	if m.statusMsg != "" {
		footer = m.statusMsg + " | " + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Padding(0, 2).Render(m.viewport.View()),
		theme.HelpStyle.Render(footer),
	)
}

// SetSize updates the viewport dimensions and re-wraps the text.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = max(width-4, 1)
	m.viewport.Height = max(height-2, 1)
	if m.loaded {
		m.viewport.SetContent(m.render())
	}
}
