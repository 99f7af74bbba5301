package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/novelstudio/internal/chapter"
	"github.com/nhle/novelstudio/internal/editor"
	"github.com/nhle/novelstudio/internal/events"
	"github.com/nhle/novelstudio/internal/keys"
	"github.com/nhle/novelstudio/internal/logging"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/store"
	appsync "github.com/nhle/novelstudio/internal/sync"
	"github.com/nhle/novelstudio/internal/ui"
	"github.com/nhle/novelstudio/internal/ui/board"
	"github.com/nhle/novelstudio/internal/ui/chapterform"
	"github.com/nhle/novelstudio/internal/ui/command"
	configview "github.com/nhle/novelstudio/internal/ui/config"
	"github.com/nhle/novelstudio/internal/ui/editorview"
	helpview "github.com/nhle/novelstudio/internal/ui/help"
	"github.com/nhle/novelstudio/internal/ui/manuscriptview"
	"github.com/nhle/novelstudio/internal/ui/projectmgr"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewProjects ViewState = iota
	ViewBoard
	ViewEditor
	ViewManuscript
	ViewHelp
	ViewCommand
	ViewSettings
	ViewChapterForm
)

// Options carries what the root model needs from the command line.
type Options struct {
	Store      store.Store
	UserID     string
	Config     *model.AppConfig
	Logger     *logging.Logger
	ExportDir  string
	ConfigPath string
}

// project is everything opened for one novel.
type project struct {
	info       model.Project
	ws         *chapter.Workspace
	session    *editor.Session
	poller     *appsync.Poller
	board      board.Model
	editor     editorview.Model
	manuscript manuscriptview.Model
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and the open project.
type Model struct {
	opts         Options
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	bus          *events.Bus
	projectView  projectmgr.Model
	helpView     helpview.Model
	commandView  command.Model
	settingsView configview.Model
	chapterForm  chapterform.Model
	open         *project
	words        int
	wordsAt      time.Time
	statusMsg    string
	ready        bool
}

// New creates a new root application model.
func New(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Config == nil {
		opts.Config = model.DefaultConfig()
	}
	k := keys.DefaultKeyMap()
	return Model{
		opts:         opts,
		currentView:  ViewProjects,
		keys:         k,
		bus:          events.NewBus(),
		projectView:  projectmgr.New(opts.Store, opts.UserID, k, 80, 24),
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
		settingsView: configview.New(*opts.Config, opts.ConfigPath, configview.IMAPValidator, k, 80, 24),
		chapterForm:  chapterform.New(80, 24),
	}
}

// Init loads the project list.
func (m Model) Init() tea.Cmd {
	return m.projectView.Init()
}

// openProject builds the workspace, editor session and poller for p and
// tears down whatever was open before.
func (m *Model) openProject(p model.Project) tea.Cmd {
	m.closeProject()

	log := m.opts.Logger.With("project_id", p.ID)
	key := store.ProjectKey{UserID: m.opts.UserID, ProjectID: p.ID}
	ws := chapter.New(m.opts.Store, key, chapter.WithEventBus(m.bus), chapter.WithLogger(log))
	session := editor.NewSession(ws,
		editor.WithLogger(log),
		editor.WithAutosaveInterval(time.Duration(m.opts.Config.Editor.AutosaveIntervalSec)*time.Second),
	)
	poller := appsync.New(ws,
		appsync.WithBus(m.bus),
		appsync.WithAutosave(session.AutosaveResults()),
	)

	w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
	m.open = &project{
		info:       p,
		ws:         ws,
		session:    session,
		poller:     poller,
		board:      board.New(ws, m.keys, w, h),
		editor:     editorview.New(session, ws, m.keys, w, h),
		manuscript: manuscriptview.New(ws, m.keys, m.opts.Config.Display.WrapWidth, w, h),
	}
	m.words = p.CurrentWordCount
	m.wordsAt = time.Time{}
	m.currentView = ViewBoard
	log.Info("project opened", "title", p.Title)
	return tea.Batch(m.open.board.Init(), poller.Start())
}

func (m *Model) closeProject() {
	if m.open == nil {
		return
	}
	m.open.poller.Stop()
	m.open.session.Close()
	m.open = nil
}

// Shutdown stops background work. The command wires it after the program exits.
func (m Model) Shutdown() {
	if m.open != nil {
		m.open.poller.Stop()
		m.open.session.Close()
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.closeProject()
	return m, tea.Quit
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.projectView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.chapterForm.SetSize(w, h)
		if m.open != nil {
			m.open.board.SetSize(w, h)
			m.open.editor.SetSize(w, h)
			m.open.manuscript.SetSize(w, h)
		}
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case projectmgr.ProjectOpenMsg:
		return m, m.openProject(msg.Project)

	case projectmgr.ProjectListCloseMsg:
		if m.open != nil {
			m.currentView = ViewBoard
		}
		return m, nil

	case projectmgr.ProjectChangedMsg:
		return m, nil

	case appsync.WordCountMsg:
		if msg.Err == nil {
			m.words = msg.Words
			m.wordsAt = msg.At
		} else {
			m.opts.Logger.Warn("word count refresh failed", "error", msg.Err)
		}
		return m, m.waitPoller()

	case appsync.EventMsg:
		return m, m.waitPoller()

	case appsync.AutosaveMsg:
		if msg.Result.Err != nil {
			m.statusMsg = "Autosave failed: " + msg.Result.Err.Error()
		} else {
			m.statusMsg = "Beat autosaved"
		}
		return m, m.waitPoller()

	case board.OpenItemMsg:
		if m.open == nil {
			return m, nil
		}
		if err := m.open.session.Open(msg.Kind, msg.ID, ""); err != nil {
			m.open.board.SetStatus("Error: " + err.Error())
			return m, nil
		}
		m.currentView = ViewEditor
		m.statusMsg = ""
		return m, m.open.editor.Load()

	case board.ItemDeletedMsg:
		if m.open != nil {
			m.open.session.CloseIf(msg.ID)
			m.open.poller.Refresh()
		}
		return m, nil

	case board.OpenManuscriptMsg:
		if m.open == nil {
			return m, nil
		}
		m.currentView = ViewManuscript
		return m, m.open.manuscript.Load()

	case board.EditChapterMsg:
		m.currentView = ViewChapterForm
		return m, m.chapterForm.StartEdit(msg.Chapter)

	case chapterform.SubmittedMsg:
		m.currentView = ViewBoard
		if m.open == nil {
			return m, nil
		}
		return m, m.saveChapter(msg)

	case chapterform.CancelMsg:
		m.currentView = ViewBoard
		return m, nil

	case board.DoneMsg:
		if m.open == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.open.board, cmd = m.open.board.Update(msg)
		m.open.poller.Refresh()
		return m, cmd

	case editorview.CloseMsg:
		return m, m.leaveEditor()

	case editorview.SavedMsg:
		if m.open == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.open.editor, cmd = m.open.editor.Update(msg)
		m.open.poller.Refresh()
		return m, cmd

	case manuscriptview.CloseMsg:
		m.currentView = ViewBoard
		return m, nil

	case manuscriptview.LoadedMsg:
		if m.open == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.open.manuscript, cmd = m.open.manuscript.Update(msg)
		return m, cmd

	case commandResultMsg:
		m.statusMsg = msg.status
		if msg.err != nil {
			m.statusMsg = "Error: " + msg.err.Error()
		}
		if m.open != nil {
			m.open.poller.Refresh()
			if m.currentView == ViewManuscript {
				return m, m.open.manuscript.Load()
			}
		}
		return m, nil

	case configview.ConfigDoneMsg:
		m.currentView = m.previousView
		return m, nil

	case configview.ConfigSavedMsg:
		cfg := msg.Config
		m.opts.Config = &cfg
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
		if msg.String() == "ctrl+c" || (msg.String() == "q" && m.canQuit()) {
			return m.quit()
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

func (m Model) waitPoller() tea.Cmd {
	if m.open == nil {
		return nil
	}
	return m.open.poller.WaitForNextResult()
}

// capturesText reports whether the active view is taking typed text, so
// single-character global keys must pass through.
func (m Model) capturesText() bool {
	switch m.currentView {
	case ViewEditor, ViewCommand:
		return true
	case ViewSettings:
		return m.settingsView.Editing()
	case ViewChapterForm:
		return true
	case ViewProjects:
		return m.projectView.Editing()
	case ViewBoard:
		return m.open != nil && m.open.board.Editing()
	}
	return false
}

func (m Model) canQuit() bool {
	return (m.currentView == ViewProjects || m.currentView == ViewBoard) && !m.capturesText()
}

func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.capturesText() {
		if m.currentView == ViewCommand && msg.String() == "esc" {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, false
	}

	switch msg.String() {
	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true

	case ":":
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus(), true

	case "esc":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return nil, true
		}

	case "s":
		if m.currentView == ViewBoard || m.currentView == ViewProjects {
			m.previousView = m.currentView
			m.currentView = ViewSettings
			return m.settingsView.Init(), true
		}

	case "p":
		if m.currentView == ViewBoard {
			m.currentView = ViewProjects
			return m.projectView.Init(), true
		}
	}
	return nil, false
}

// leaveEditor returns to the board, saving a dirty draft first.
func (m *Model) leaveEditor() tea.Cmd {
	m.currentView = ViewBoard
	if m.open == nil {
		return nil
	}
	session := m.open.session
	if session.Snapshot().State != editor.Dirty {
		session.Close()
		return nil
	}
	return func() tea.Msg {
		err := session.Save(context.Background())
		if err == nil {
			session.Close()
			return commandResultMsg{status: "Draft saved"}
		}
		return commandResultMsg{err: fmt.Errorf("draft kept open, save failed: %w", err)}
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewProjects:
		m.projectView, cmd = m.projectView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewChapterForm:
		m.chapterForm, cmd = m.chapterForm.Update(msg)
	case ViewBoard:
		if m.open != nil {
			m.open.board, cmd = m.open.board.Update(msg)
		}
	case ViewEditor:
		if m.open != nil {
			m.open.editor, cmd = m.open.editor.Update(msg)
		}
	case ViewManuscript:
		if m.open != nil {
			m.open.manuscript, cmd = m.open.manuscript.Update(msg)
		}
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := "Novel Studio"
	if m.open != nil {
		headerTitle = "Novel Studio · " + m.open.info.Title
		if ch, ok := m.open.ws.Selected(); ok {
			headerTitle += " · " + ch.Title
		}
	}
	header := m.layout.RenderHeader(headerTitle, m.wordStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewProjects:
		return m.projectView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewChapterForm:
		return m.chapterForm.View()
	}
	if m.open == nil {
		return ""
	}
	switch m.currentView {
	case ViewBoard:
		return m.open.board.View()
	case ViewEditor:
		return m.open.editor.View()
	case ViewManuscript:
		return m.open.manuscript.View()
	default:
		return ""
	}
}

// wordStatus returns the project word count against its goal.
func (m Model) wordStatus() string {
	if m.open == nil {
		return ""
	}
	p := m.open.info
	p.CurrentWordCount = m.words
	s := fmt.Sprintf("%d words", m.words)
	if p.GoalWordCount > 0 {
		s = fmt.Sprintf("%d / %d words (%.1f%%)", m.words, p.GoalWordCount, p.Progress())
	}
	return s
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMsg != "" && (m.currentView == ViewBoard || m.currentView == ViewEditor) {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewProjects:
		return "enter open | n new | e edit | d delete | q quit"
	case ViewEditor:
		return "ctrl+s save | esc back"
	case ViewManuscript:
		return "j/k scroll | r reload | esc back"
	case ViewSettings:
		return "e edit | t test | esc back"
	case ViewChapterForm:
		return "enter next | esc cancel"
	default:
		return "q quit | ? help | n new | N scene+beat | C chapter | e edit chapter | enter open | L link | J/K move | m manuscript | p projects"
	}
}
