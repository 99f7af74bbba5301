package projectmgr

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/novelstudio/internal/keys"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/store"
	"github.com/nhle/novelstudio/internal/theme"
)

// ProjectListCloseMsg signals the parent to close the project view.
type ProjectListCloseMsg struct{}

// ProjectOpenMsg asks the parent to open the chapter board of a project.
type ProjectOpenMsg struct {
	Project model.Project
}

// ProjectChangedMsg signals that projects were modified (created/updated/deleted).
type ProjectChangedMsg struct{}

type projectMode int

const (
	modeList projectMode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	title   string
	status  string
	goal    string
	confirm bool
}

type projectsLoadedMsg struct {
	projects []model.Project
	err      error
}

type projectSavedMsg struct{ err error }
type projectDeletedMsg struct{ err error }

// Model is the Bubble Tea model for novel project management.
type Model struct {
	mode        projectMode
	store       store.Store
	userID      string
	keys        *keys.KeyMap
	projects    []model.Project
	selectedIdx int
	editingID   string
	isNew       bool
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new project manager model for the given user.
func New(s store.Store, userID string, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:   modeList,
		store:  s,
		userID: userID,
		keys:   k,
		fb:     &formBindings{},
		width:  width, height: height,
	}
}

// Init loads projects from the store.
func (m Model) Init() tea.Cmd {
	return m.loadProjects()
}

// Projects returns the loaded projects.
func (m Model) Projects() []model.Project {
	return m.projects
}

// Editing reports whether a form is open, so global keys should not apply.
func (m Model) Editing() bool {
	return m.mode != modeList
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case projectsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.projects = msg.projects
		if m.selectedIdx >= len(m.projects) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.projects) - 1
		}
		return m, nil

	case projectSavedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Project saved"
		}
		m.mode = modeList
		return m, tea.Batch(m.loadProjects(), func() tea.Msg { return ProjectChangedMsg{} })

	case projectDeletedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Project deleted"
		}
		m.mode = modeList
		return m, tea.Batch(m.loadProjects(), func() tea.Msg { return ProjectChangedMsg{} })

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList:
		return m.handleListKey(msg)
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ProjectListCloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.projects) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.projects)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.projects) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.projects) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if len(m.projects) == 0 {
			return m, nil
		}
		p := m.projects[m.selectedIdx]
		return m, func() tea.Msg { return ProjectOpenMsg{Project: p} }

	case key.Matches(msg, m.keys.NewItem):
		m.isNew = true
		m.editingID = ""
		m.fb.title = ""
		m.fb.status = model.ProjectStatusPlanning
		m.fb.goal = "80000"
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case msg.String() == "e":
		if len(m.projects) == 0 {
			return m, nil
		}
		p := m.projects[m.selectedIdx]
		m.isNew = false
		m.editingID = p.ID
		m.fb.title = p.Title
		m.fb.status = p.Status
		m.fb.goal = strconv.Itoa(p.GoalWordCount)
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		if len(m.projects) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func validateGoal(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return fmt.Errorf("goal must be a non-negative number")
	}
	return nil
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("Working title").
				Value(&m.fb.title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Status").
				Options(
					huh.NewOption(model.ProjectStatusPlanning, model.ProjectStatusPlanning),
					huh.NewOption(model.ProjectStatusInProgress, model.ProjectStatusInProgress),
					huh.NewOption(model.ProjectStatusCompleted, model.ProjectStatusCompleted),
				).
				Value(&m.fb.status),
			huh.NewInput().
				Title("Goal word count").
				Placeholder("80000").
				Value(&m.fb.goal).
				Validate(validateGoal),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm() *huh.Form {
	title := ""
	if m.selectedIdx < len(m.projects) {
		title = m.projects[m.selectedIdx].Title
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete project %q?", title)).
				Description("Its chapters, scenes and beats are removed as well.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		return m, m.saveProject()
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		if m.fb.confirm {
			p := m.projects[m.selectedIdx]
			return m, m.deleteProject(p.ID)
		}
		m.mode = modeList
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

// View renders the project manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmDelete:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Projects"))
	b.WriteString("\n\n")

	if len(m.projects) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No novels yet. Press 'n' to start one."))
	} else {
		for i, p := range m.projects {
			label := fmt.Sprintf("%s  %s  %s",
				p.Title,
				theme.StatusStyle(p.Status).Render(p.Status),
				theme.DimmedStyle.Render(fmt.Sprintf("%d / %d words (%.1f%%)", p.CurrentWordCount, p.GoalWordCount, p.Progress())),
			)

			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"enter open | n new | e edit | d delete | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func (m Model) loadProjects() tea.Cmd {
	s, uid := m.store, m.userID
	return func() tea.Msg {
		projects, err := s.ListProjects(context.Background(), uid)
		return projectsLoadedMsg{projects: projects, err: err}
	}
}

func (m Model) saveProject() tea.Cmd {
	s, uid := m.store, m.userID
	fb := *m.fb
	editID := m.editingID
	isNew := m.isNew
	return func() tea.Msg {
		title := strings.TrimSpace(fb.title)
		goal, _ := strconv.Atoi(strings.TrimSpace(fb.goal))
		if isNew {
			_, err := s.CreateProject(context.Background(), uid, model.Project{
				Title:         title,
				Status:        fb.status,
				GoalWordCount: goal,
			})
			return projectSavedMsg{err: err}
		}
		err := s.UpdateProject(context.Background(), store.ProjectKey{UserID: uid, ProjectID: editID}, store.ProjectUpdate{
			Title:         &title,
			Status:        &fb.status,
			GoalWordCount: &goal,
		})
		return projectSavedMsg{err: err}
	}
}

func (m Model) deleteProject(id string) tea.Cmd {
	s, uid := m.store, m.userID
	return func() tea.Msg {
		err := s.DeleteProject(context.Background(), store.ProjectKey{UserID: uid, ProjectID: id})
		return projectDeletedMsg{err: err}
	}
}
