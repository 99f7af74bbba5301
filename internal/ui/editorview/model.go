package editorview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/editor"
	"github.com/nhle/novelstudio/internal/keys"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/theme"
	"github.com/nhle/novelstudio/internal/version"
)

// settleDelay is how long the saved indicator stays up.
const settleDelay = 2 * time.Second

// CloseMsg asks the parent to leave the editor.
type CloseMsg struct{}

// SavedMsg carries the outcome of an editor write.
type SavedMsg struct {
	Status string
	Err    error
	// Reload is set when the draft was replaced, e.g. after a version
	// switch or delete.
	Reload bool
}

type settleMsg struct{}

// Scenes looks up scenes for the version picker.
type Scenes interface {
	Scene(id string) (model.Scene, bool)
}

// Model edits the item open in an editor session.
type Model struct {
	session *editor.Session
	scenes  Scenes
	keys    *keys.KeyMap

	title     textinput.Model
	body      textarea.Model
	bodyFocus bool

	confirm     *bool
	confirmForm *huh.Form

	statusMsg string
	width     int
	height    int
}

// New creates an editor view over the session.
func New(s *editor.Session, scenes Scenes, k *keys.KeyMap, width, height int) Model {
	ti := textinput.New()
	ti.Prompt = "Title: "
	ti.CharLimit = 200

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0

	m := Model{session: s, scenes: scenes, keys: k, title: ti, body: ta}
	m.SetSize(width, height)
	return m
}

// Load copies the session draft into the inputs and focuses the title.
func (m *Model) Load() tea.Cmd {
	snap := m.session.Snapshot()
	m.title.SetValue(snap.Title)
	m.body.SetValue(snap.Body)
	m.bodyFocus = false
	m.body.Blur()
	m.statusMsg = ""
	if snap.Kind == model.KindBeat {
		m.body.Placeholder = "What happens in this beat?"
	} else {
		m.body.Placeholder = "Write the scene..."
	}
	return m.title.Focus()
}

// Editing reports whether a dialog owns the keyboard.
func (m Model) Editing() bool { return m.confirmForm != nil }

func write(status string, reload bool, f func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return SavedMsg{Status: status, Err: f(context.Background()), Reload: reload}
	}
}

// Update handles messages for the editor.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SavedMsg:
		if msg.Err != nil {
			m.statusMsg = describe(msg.Err)
			return m, nil
		}
		m.statusMsg = msg.Status
		var cmds []tea.Cmd
		if msg.Reload {
			cmds = append(cmds, m.Load())
			m.statusMsg = msg.Status
		}
		cmds = append(cmds, tea.Tick(settleDelay, func(time.Time) tea.Msg { return settleMsg{} }))
		return m, tea.Batch(cmds...)

	case settleMsg:
		m.session.Settle(settleDelay)
		return m, nil

	case tea.KeyMsg:
		if m.confirmForm != nil {
			return m.updateConfirm(msg)
		}
		return m.handleKey(msg)
	}

	if m.confirmForm != nil {
		return m.updateConfirm(msg)
	}
	return m.updateInputs(msg)
}

func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrBaseVersionPermanent):
		return "The base version cannot be deleted"
	case errors.Is(err, common.ErrNoEditorTarget):
		return "Nothing is open"
	default:
		return "Error: " + err.Error()
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	s := m.session
	snap := s.Snapshot()
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.SwitchField):
		m.bodyFocus = !m.bodyFocus
		if m.bodyFocus {
			m.title.Blur()
			return m, m.body.Focus()
		}
		m.body.Blur()
		return m, m.title.Focus()

	case key.Matches(msg, m.keys.Save):
		return m, write("Saved", false, s.Save)

	case key.Matches(msg, m.keys.NewVersion) && snap.Kind == model.KindScene:
		return m, write("New version saved", false, func(ctx context.Context) error {
			_, err := s.SaveNewVersion(ctx)
			return err
		})

	case key.Matches(msg, m.keys.Publish) && snap.Kind == model.KindScene:
		return m, write("Published to manuscript", false, s.Publish)

	case key.Matches(msg, m.keys.NextVersion) && snap.Kind == model.KindScene:
		return m, m.nextVersion(snap)

	case key.Matches(msg, m.keys.DeleteVersion) && snap.Kind == model.KindScene:
		if version.ParseRef(snap.VersionID).IsBase() {
			m.statusMsg = describe(common.ErrBaseVersionPermanent)
			return m, nil
		}
		return m.askDeleteVersion(snap)
	}
	return m.updateInputs(msg)
}

func (m Model) nextVersion(snap editor.Snapshot) tea.Cmd {
	sc, ok := m.scenes.Scene(snap.ItemID)
	if !ok {
		return nil
	}
	opts := version.Options(sc)
	cur := 0
	for i, v := range opts {
		if v.Ref.ID() == snap.VersionID {
			cur = i
			break
		}
	}
	next := opts[(cur+1)%len(opts)]
	s := m.session
	return func() tea.Msg {
		if err := s.SelectVersion(next.Ref.ID()); err != nil {
			return SavedMsg{Err: err}
		}
		return SavedMsg{Status: "Editing " + version.Label(sc, next.Ref), Reload: true}
	}
}

func (m Model) askDeleteVersion(snap editor.Snapshot) (Model, tea.Cmd) {
	label := snap.VersionID
	if sc, ok := m.scenes.Scene(snap.ItemID); ok {
		label = version.Label(sc, version.ParseRef(snap.VersionID))
	}
	m.confirm = new(bool)
	m.confirmForm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete version %q?", label)).
				Description("This cannot be undone.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(m.confirm),
		),
	).WithWidth(min(m.width-4, 80))
	return m, m.confirmForm.Init()
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	switch m.confirmForm.State {
	case huh.StateCompleted:
		ok := *m.confirm
		m.confirmForm = nil
		if !ok {
			return m, nil
		}
		s := m.session
		return m, write("Version deleted", true, func(ctx context.Context) error {
			return s.DeleteCurrentVersion(ctx, true)
		})
	case huh.StateAborted:
		m.confirmForm = nil
		return m, nil
	}
	return m, cmd
}

func (m Model) updateInputs(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.bodyFocus {
		before := m.body.Value()
		m.body, cmd = m.body.Update(msg)
		if v := m.body.Value(); v != before {
			m.session.SetBody(v)
		}
		return m, cmd
	}
	before := m.title.Value()
	m.title, cmd = m.title.Update(msg)
	if v := m.title.Value(); v != before {
		m.session.SetTitle(v)
	}
	return m, cmd
}

// View renders the editor.
func (m Model) View() string {
	if m.confirmForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	snap := m.session.Snapshot()
	if !snap.Open() {
		return lipgloss.NewStyle().Padding(1, 2).Render(theme.HelpStyle.Render("Nothing open. Press esc to return to the board."))
	}

	var head strings.Builder
	kind := "Beat"
	if snap.Kind == model.KindScene {
		kind = "Scene"
	}
	head.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(kind))
	if snap.Kind == model.KindScene {
		head.WriteString("  ")
		head.WriteString(m.versionPicker(snap))
	}
	head.WriteString("  ")
	head.WriteString(m.stateBadge(snap))

	hints := "ctrl+s save | tab switch field | esc back"
	if snap.Kind == model.KindScene {
		hints = "ctrl+s save | ctrl+n new version | ctrl+p publish | ctrl+v next version | ctrl+d delete version | esc back"
	} else if m.session.Autosaving() {
		hints += " | autosave on"
	}

	return lipgloss.NewStyle().Padding(0, 1).Render(lipgloss.JoinVertical(lipgloss.Left,
		head.String(),
		"",
		m.title.View(),
		"",
		theme.BorderStyle.Render(m.body.View()),
		lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg),
		theme.HelpStyle.Render(hints),
	))
}

func (m Model) versionPicker(snap editor.Snapshot) string {
	sc, ok := m.scenes.Scene(snap.ItemID)
	if !ok {
		return ""
	}
	active := version.Active(sc)
	parts := make([]string, 0, len(sc.Versions)+1)
	for _, v := range version.Options(sc) {
		label := version.Label(sc, v.Ref)
		if v.Ref == active {
			label += "*"
		}
		if v.Ref.ID() == snap.VersionID {
			parts = append(parts, lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render("["+label+"]"))
		} else {
			parts = append(parts, theme.DimmedStyle.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) stateBadge(snap editor.Snapshot) string {
	if snap.Err != nil {
		return theme.SaveStateStyle("error").Render("save failed")
	}
	switch snap.State {
	case editor.Dirty:
		return theme.SaveStateStyle("dirty").Render("● unsaved")
	case editor.Saved:
		return theme.SaveStateStyle("saved").Render("✓ saved")
	case editor.Autosaved:
		return theme.SaveStateStyle("autosaved").Render("✓ autosaved")
	default:
		return theme.SaveStateStyle("clean").Render("")
	}
}

// SetSize updates the editor dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.title.Width = max(width-12, 10)
	m.body.SetWidth(max(width-6, 10))
	m.body.SetHeight(max(height-10, 3))
}
