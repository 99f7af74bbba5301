package board

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/novelstudio/internal/chapter"
	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/keys"
	"github.com/nhle/novelstudio/internal/manuscript"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/theme"
	"github.com/nhle/novelstudio/internal/ui"
	"github.com/nhle/novelstudio/internal/version"
)

// Column identifies one of the three board columns.
type Column int

const (
	ColumnChapters Column = iota
	ColumnScenes
	ColumnBeats
)

// OpenItemMsg asks the parent to open a scene or beat in the editor.
type OpenItemMsg struct {
	Kind model.ItemKind
	ID   string
}

// OpenManuscriptMsg asks the parent to show the manuscript of the selected chapter.
type OpenManuscriptMsg struct{}

// EditChapterMsg asks for the chapter form on the given chapter.
type EditChapterMsg struct {
	Chapter model.Chapter
}

// ItemDeletedMsg reports a deleted scene or beat so an open editor can close.
type ItemDeletedMsg struct {
	ID string
}

// DoneMsg carries the outcome of a board operation.
type DoneMsg struct {
	Status string
	Err    error
}

type mode int

const (
	modeBrowse mode = iota
	modeLink
	modeConfirmDelete
)

// Model is the chapter board: chapters, scenes and beats side by side.
type Model struct {
	ws     *chapter.Workspace
	keys   *keys.KeyMap
	focus  Column
	cursor [3]int
	mode   mode

	linkBeatID  string
	confirm     *bool
	confirmForm *huh.Form
	pending     func() tea.Cmd

	busy      bool
	statusMsg string
	width     int
	height    int
}

// New creates a board over the workspace.
func New(ws *chapter.Workspace, k *keys.KeyMap, width, height int) Model {
	return Model{ws: ws, keys: k, width: width, height: height}
}

// Init loads the chapter list.
func (m Model) Init() tea.Cmd {
	ws := m.ws
	return run("Chapters loaded", func(ctx context.Context) error {
		return ws.LoadChapters(ctx)
	})
}

// Focus returns the focused column.
func (m Model) Focus() Column { return m.focus }

// Editing reports whether a dialog owns the keyboard.
func (m Model) Editing() bool { return m.mode != modeBrowse }

// SetStatus replaces the status line.
func (m *Model) SetStatus(s string) { m.statusMsg = s }

func run(status string, f func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := f(context.Background()); err != nil {
			return DoneMsg{Err: err}
		}
		return DoneMsg{Status: status}
	}
}

// Update handles messages for the board.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DoneMsg:
		m.busy = false
		if msg.Err != nil {
			m.statusMsg = describe(msg.Err)
		} else {
			m.statusMsg = msg.Status
		}
		m.clamp()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		case modeLink:
			return m.handleLinkKey(msg)
		}
		return m.handleKey(msg)
	}

	if m.mode == modeConfirmDelete {
		return m.updateConfirm(msg)
	}
	return m, nil
}

func describe(err error) string {
	var conflict *common.ConflictError
	switch {
	case errors.As(err, &conflict):
		return fmt.Sprintf("Scene is already linked to another beat (%s)", conflict.OtherBeatID)
	case common.IsValidation(err):
		return "Invalid: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}

func (m Model) length(c Column) int {
	switch c {
	case ColumnChapters:
		return len(m.ws.Chapters())
	case ColumnScenes:
		return len(m.ws.Scenes())
	default:
		return len(m.ws.Beats())
	}
}

func (m *Model) clamp() {
	for c := ColumnChapters; c <= ColumnBeats; c++ {
		n := m.length(c)
		if m.cursor[c] >= n {
			m.cursor[c] = n - 1
		}
		if m.cursor[c] < 0 {
			m.cursor[c] = 0
		}
	}
}

func (m Model) selectedScene() (model.Scene, bool) {
	scenes := m.ws.Scenes()
	if i := m.cursor[ColumnScenes]; i < len(scenes) {
		return scenes[i], true
	}
	return model.Scene{}, false
}

func (m Model) selectedBeat() (model.Beat, bool) {
	beats := m.ws.Beats()
	if i := m.cursor[ColumnBeats]; i < len(beats) {
		return beats[i], true
	}
	return model.Beat{}, false
}

func (m Model) selectedChapter() (model.Chapter, bool) {
	chapters := m.ws.Chapters()
	if i := m.cursor[ColumnChapters]; i < len(chapters) {
		return chapters[i], true
	}
	return model.Chapter{}, false
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	ws := m.ws
	switch {
	case key.Matches(msg, m.keys.Down):
		if n := m.length(m.focus); n > 0 {
			m.cursor[m.focus] = (m.cursor[m.focus] + 1) % n
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if n := m.length(m.focus); n > 0 {
			m.cursor[m.focus] = (m.cursor[m.focus] - 1 + n) % n
		}
		return m, nil

	case key.Matches(msg, m.keys.Right):
		m.focus = (m.focus + 1) % 3
		return m, nil

	case key.Matches(msg, m.keys.Left):
		m.focus = (m.focus + 2) % 3
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, run("Reloaded", ws.Reload)

	case key.Matches(msg, m.keys.Manuscript):
		if _, ok := ws.Selected(); !ok {
			m.statusMsg = "Select a chapter first"
			return m, nil
		}
		return m, func() tea.Msg { return OpenManuscriptMsg{} }

	case key.Matches(msg, m.keys.NewChapter):
		title := ws.DefaultChapterTitle()
		m.cursor[ColumnScenes], m.cursor[ColumnBeats] = 0, 0
		return m, run("Chapter created", func(ctx context.Context) error {
			_, err := ws.CreateChapter(ctx, title)
			return err
		})

	case key.Matches(msg, m.keys.EditChapter):
		ch, ok := m.selectedChapter()
		if !ok || m.focus != ColumnChapters {
			return m, nil
		}
		return m, func() tea.Msg { return EditChapterMsg{Chapter: ch} }

	case key.Matches(msg, m.keys.NewPair):
		return m, run("Scene and beat created", func(ctx context.Context) error {
			_, _, err := ws.CreateSceneAndBeat(ctx)
			return err
		})

	case key.Matches(msg, m.keys.NewItem):
		return m.newItem()

	case key.Matches(msg, m.keys.Select):
		return m.open()

	case key.Matches(msg, m.keys.MoveUp):
		return m.move(-1)

	case key.Matches(msg, m.keys.MoveDown):
		return m.move(1)

	case key.Matches(msg, m.keys.Link):
		if m.focus != ColumnBeats {
			return m, nil
		}
		b, ok := m.selectedBeat()
		if !ok || len(ws.Scenes()) == 0 {
			return m, nil
		}
		m.mode = modeLink
		m.linkBeatID = b.ID
		m.statusMsg = fmt.Sprintf("Pick a scene for %q (enter to link, esc to cancel)", b.Title)
		return m, nil

	case key.Matches(msg, m.keys.Unlink):
		b, ok := m.selectedBeat()
		if m.focus != ColumnBeats || !ok || !b.IsLinked() {
			return m, nil
		}
		return m, run("Beat unlinked", func(ctx context.Context) error {
			return ws.UnlinkBeat(ctx, b.ID)
		})

	case key.Matches(msg, m.keys.Delete):
		return m.askDelete()
	}
	return m, nil
}

func (m Model) newItem() (Model, tea.Cmd) {
	ws := m.ws
	switch m.focus {
	case ColumnChapters:
		title := ws.DefaultChapterTitle()
		return m, run("Chapter created", func(ctx context.Context) error {
			_, err := ws.CreateChapter(ctx, title)
			return err
		})
	case ColumnScenes:
		return m, run("Scene created", func(ctx context.Context) error {
			_, err := ws.CreateScene(ctx, "")
			return err
		})
	default:
		return m, run("Beat created", func(ctx context.Context) error {
			_, err := ws.CreateBeat(ctx, "")
			return err
		})
	}
}

func (m Model) open() (Model, tea.Cmd) {
	ws := m.ws
	switch m.focus {
	case ColumnChapters:
		ch, ok := m.selectedChapter()
		if !ok {
			return m, nil
		}
		m.cursor[ColumnScenes], m.cursor[ColumnBeats] = 0, 0
		return m, run(fmt.Sprintf("Opened %q", ch.Title), func(ctx context.Context) error {
			return ws.SelectChapter(ctx, ch.ID)
		})
	case ColumnScenes:
		if sc, ok := m.selectedScene(); ok {
			return m, func() tea.Msg { return OpenItemMsg{Kind: model.KindScene, ID: sc.ID} }
		}
	case ColumnBeats:
		if b, ok := m.selectedBeat(); ok {
			return m, func() tea.Msg { return OpenItemMsg{Kind: model.KindBeat, ID: b.ID} }
		}
	}
	return m, nil
}

func (m Model) move(delta int) (Model, tea.Cmd) {
	if m.focus != ColumnScenes || m.busy {
		return m, nil
	}
	from := m.cursor[ColumnScenes]
	to := from + delta
	if to < 0 || to >= len(m.ws.Scenes()) {
		return m, nil
	}
	m.cursor[ColumnScenes] = to
	m.busy = true
	ws := m.ws
	return m, func() tea.Msg {
		res, err := ws.ReorderScenes(context.Background(), from, to)
		if err != nil {
			if res.Reloaded {
				return DoneMsg{Err: fmt.Errorf("reorder failed, chapter reloaded: %w", err)}
			}
			return DoneMsg{Err: err}
		}
		return DoneMsg{Status: "Scenes reordered"}
	}
}

func (m Model) handleLinkKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = modeBrowse
		m.statusMsg = ""
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if n := len(m.ws.Scenes()); n > 0 {
			m.cursor[ColumnScenes] = (m.cursor[ColumnScenes] + 1) % n
		}
	case key.Matches(msg, m.keys.Up):
		if n := len(m.ws.Scenes()); n > 0 {
			m.cursor[ColumnScenes] = (m.cursor[ColumnScenes] - 1 + n) % n
		}
	case key.Matches(msg, m.keys.Select):
		sc, ok := m.selectedScene()
		m.mode = modeBrowse
		if !ok {
			return m, nil
		}
		ws, beatID := m.ws, m.linkBeatID
		return m, run("Beat linked", func(ctx context.Context) error {
			return ws.LinkBeat(ctx, beatID, sc.ID)
		})
	}
	return m, nil
}

func (m Model) askDelete() (Model, tea.Cmd) {
	ws := m.ws
	var (
		what string
		do   func() tea.Cmd
	)
	switch m.focus {
	case ColumnChapters:
		ch, ok := m.selectedChapter()
		if !ok {
			return m, nil
		}
		what = fmt.Sprintf("chapter %q", ch.Title)
		do = func() tea.Cmd {
			return run("Chapter deleted", func(ctx context.Context) error {
				return ws.DeleteChapter(ctx, ch.ID)
			})
		}
	case ColumnScenes:
		sc, ok := m.selectedScene()
		if !ok {
			return m, nil
		}
		what = fmt.Sprintf("scene %q", version.DisplayContent(sc).Title)
		do = func() tea.Cmd { return m.deleteItem(model.KindScene, sc.ID, "Scene deleted") }
	default:
		b, ok := m.selectedBeat()
		if !ok {
			return m, nil
		}
		what = fmt.Sprintf("beat %q", b.Title)
		do = func() tea.Cmd { return m.deleteItem(model.KindBeat, b.ID, "Beat deleted") }
	}

	m.confirm = new(bool)
	m.pending = do
	m.confirmForm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Delete " + what + "?").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(m.confirm),
		),
	).WithWidth(min(m.width-4, 80))
	m.mode = modeConfirmDelete
	return m, m.confirmForm.Init()
}

func (m Model) deleteItem(kind model.ItemKind, id, status string) tea.Cmd {
	ws := m.ws
	return tea.Sequence(
		run(status, func(ctx context.Context) error {
			return ws.DeleteItem(ctx, kind, id)
		}),
		func() tea.Msg { return ItemDeletedMsg{ID: id} },
	)
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		m.mode = modeBrowse
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	switch m.confirmForm.State {
	case huh.StateCompleted:
		m.mode = modeBrowse
		if m.confirm != nil && *m.confirm && m.pending != nil {
			do := m.pending
			m.pending = nil
			return m, do()
		}
		return m, nil
	case huh.StateAborted:
		m.mode = modeBrowse
		m.pending = nil
		return m, nil
	}
	return m, cmd
}

// View renders the three columns and the status line.
func (m Model) View() string {
	if m.mode == modeConfirmDelete && m.confirmForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	layout := ui.NewLayout(m.width, m.height)
	widths := layout.ColumnWidths(3)
	colHeight := m.height - 4
	if colHeight < 3 {
		colHeight = 3
	}

	cols := []string{
		theme.ColumnStyle(m.focus == ColumnChapters).Width(widths[0]).Height(colHeight).Render(m.viewChapters(widths[0])),
		theme.ColumnStyle(m.focus == ColumnScenes || m.mode == modeLink).Width(widths[1]).Height(colHeight).Render(m.viewScenes(widths[1])),
		theme.ColumnStyle(m.focus == ColumnBeats).Width(widths[2]).Height(colHeight).Render(m.viewBeats(widths[2])),
	}
	board := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	status := m.statusMsg
	if m.busy {
		status = "Working..."
	}
	return lipgloss.JoinVertical(lipgloss.Left, board,
		lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(status))
}

func heading(s string) string {
	return lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(s)
}

func row(selected bool, width int, label string) string {
	label = truncate(label, width-3)
	if selected {
		return theme.SelectedItemStyle.Render(label)
	}
	return theme.ListItemStyle.Render(label)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (m Model) viewChapters(width int) string {
	var b strings.Builder
	b.WriteString(heading("Chapters"))
	b.WriteString("\n")
	sel, _ := m.ws.Selected()
	chapters := m.ws.Chapters()
	if len(chapters) == 0 {
		b.WriteString(theme.HelpStyle.Render("No chapters. Press C."))
	}
	for i, ch := range chapters {
		marker := "  "
		if ch.ID == sel.ID {
			marker = "▸ "
		}
		b.WriteString(row(m.focus == ColumnChapters && i == m.cursor[ColumnChapters], width, marker+ch.Title))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewScenes(width int) string {
	var b strings.Builder
	b.WriteString(heading("Scenes"))
	b.WriteString("\n")
	scenes := m.ws.Scenes()
	if _, ok := m.ws.Selected(); ok && len(scenes) == 0 {
		b.WriteString(theme.HelpStyle.Render("No scenes. Press n."))
	}
	active := m.focus == ColumnScenes || m.mode == modeLink
	for i, sc := range scenes {
		d := version.DisplayContent(sc)
		label := fmt.Sprintf("%d. %s", i+1, d.Title)
		if !version.Active(sc).IsBase() {
			label += " " + theme.DimmedStyle.Render("["+version.Label(sc, version.Active(sc))+"]")
		}
		b.WriteString(row(active && i == m.cursor[ColumnScenes], width, label))
		b.WriteString("\n")
		b.WriteString(theme.ListItemStyle.Render(theme.DimmedStyle.Render(
			fmt.Sprintf("   %d words", manuscript.WordCount(d.Text)))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewBeats(width int) string {
	var b strings.Builder
	b.WriteString(heading("Beats"))
	b.WriteString("\n")
	beats := m.ws.Beats()
	if _, ok := m.ws.Selected(); ok && len(beats) == 0 {
		b.WriteString(theme.HelpStyle.Render("No beats. Press n."))
	}
	for i, bt := range beats {
		label := bt.Title
		if bt.IsLinked() {
			if sc, ok := m.ws.Scene(*bt.LinkedSceneID); ok {
				label += " " + theme.LinkBadgeStyle.Render("⇄ "+version.DisplayContent(sc).Title)
			}
		}
		b.WriteString(row(m.focus == ColumnBeats && i == m.cursor[ColumnBeats], width, label))
		b.WriteString("\n")
	}
	return b.String()
}

// SetSize updates the board dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SelectedSceneID returns the scene under the scene cursor.
func (m Model) SelectedSceneID() (string, bool) {
	sc, ok := m.selectedScene()
	return sc.ID, ok
}
