package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/novelstudio/internal/keys"
	"github.com/nhle/novelstudio/internal/theme"
	"github.com/nhle/novelstudio/internal/ui/command"
)

type section struct {
	title    string
	bindings []key.Binding
}

// Model is the shortcut and command reference overlay.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	offset int
	width  int
	height int
}

// New creates a new help view model.
func New(k *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{keys: k, help: h, width: width, height: height}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update scrolls the reference when it does not fit.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Down):
			m.offset++
		case key.Matches(msg, m.keys.Up):
			if m.offset > 0 {
				m.offset--
			}
		}
	}
	return m, nil
}

func (m Model) sections() []section {
	k := m.keys
	return []section{
		{"Moving around", []key.Binding{k.Up, k.Down, k.Left, k.Right, k.Select, k.Back}},
		{"Board", []key.Binding{k.NewChapter, k.EditChapter, k.NewItem, k.NewPair, k.Delete, k.MoveUp, k.MoveDown, k.Link, k.Unlink, k.Manuscript, k.Refresh}},
		{"Editor", []key.Binding{k.Save, k.NewVersion, k.Publish, k.DeleteVersion, k.NextVersion, k.SwitchField}},
		{"Anywhere", []key.Binding{k.Command, k.Help, k.Projects, k.Quit}},
	}
}

// View renders the reference.
func (m Model) View() string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	m.help.Width = m.width - 4

	var lines []string
	lines = append(lines, heading.MarginBottom(1).Render("Studio Shortcuts"))
	for _, s := range m.sections() {
		lines = append(lines, heading.Render(s.title), m.help.ShortHelpView(s.bindings), "")
	}

	lines = append(lines, heading.Render("Commands (press :)"))
	for _, name := range command.Names() {
		lines = append(lines, "  "+theme.DimmedStyle.Render(command.Usage(name)))
	}

	body := strings.Join(lines, "\n")
	if rows := strings.Split(body, "\n"); m.height > 6 && len(rows) > m.height-6 {
		start := min(m.offset, len(rows)-(m.height-6))
		body = strings.Join(rows[start:start+m.height-6], "\n")
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(body)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
