package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/novelstudio/internal/theme"
)

// CommandMsg is emitted when the user executes a command.
type CommandMsg string

// Known palette commands. Arguments follow the name separated by spaces.
var commands = []string{
	"chapter",
	"rename",
	"goal",
	"status",
	"export chapter",
	"export novel",
	"comment",
	"highlight",
	"share",
	"reload",
	"projects",
	"quit",
}

var usage = map[string]string{
	"chapter":        "chapter [title]  add a chapter",
	"rename":         "rename <title>  rename the selected chapter",
	"goal":           "goal <words>  set the novel's word goal",
	"status":         "status <value>  set the selected chapter's status",
	"export chapter": "export chapter [path]  write the chapter as text",
	"export novel":   "export novel [path]  write the whole novel as text",
	"comment":        "comment [selection |] <note>  comment on the selected scene",
	"highlight":      "highlight <color> <text>  mark text in the selected scene",
	"share":          "share <recipient>  save the novel as a draft email",
	"reload":         "reload  refetch the selected chapter",
	"projects":       "projects  back to the project list",
	"quit":           "quit  leave the studio",
}

// Usage returns a one-line synopsis for a command name.
func Usage(name string) string {
	if u, ok := usage[name]; ok {
		return u
	}
	return name
}

// Names returns the known command names.
func Names() []string {
	out := make([]string, len(commands))
	copy(out, commands)
	return out
}

// Split separates a palette line into its command and argument text.
// Two-word commands such as "export novel" are matched first.
func Split(line string) (name, args string) {
	line = strings.TrimSpace(line)
	for _, c := range commands {
		if strings.Contains(c, " ") && (line == c || strings.HasPrefix(line, c+" ")) {
			return c, strings.TrimSpace(strings.TrimPrefix(line, c))
		}
	}
	name, args, _ = strings.Cut(line, " ")
	return name, strings.TrimSpace(args)
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "chapter <title> | export novel | comment <text> ..."
	ti.ShowSuggestions = true
	ti.SetSuggestions(commands)
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			cmd := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if cmd != "" {
				return m, func() tea.Msg {
					return CommandMsg(cmd)
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command Palette")
	input := m.input.View()

	content := lipgloss.JoinVertical(lipgloss.Left, title, input)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
