package chapterform

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/theme"
)

// Chapter status values offered by the form.
const (
	StatusDraft    = "Draft"
	StatusRevision = "Revision"
	StatusFinal    = "Final"
)

// SubmittedMsg is dispatched when the form is completed. ID is empty for
// a new chapter.
type SubmittedMsg struct {
	ID              string
	Title           string
	Status          string
	TargetWordCount int
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title  string
	status string
	target string
}

// Model is the Bubble Tea model for the chapter create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editMode bool
	editID   string
	width    int
	height   int
}

// New creates a new chapter form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{status: StatusDraft},
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for a new chapter with a suggested title.
func (m *Model) StartCreate(defaultTitle string) tea.Cmd {
	m.editMode = false
	m.editID = ""
	*m.fb = formBindings{title: defaultTitle, status: StatusDraft, target: "0"}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form for an existing chapter.
func (m *Model) StartEdit(ch model.Chapter) tea.Cmd {
	m.editMode = true
	m.editID = ch.ID
	status := ch.Status
	if status == "" {
		status = StatusDraft
	}
	*m.fb = formBindings{title: ch.Title, status: status, target: strconv.Itoa(ch.TargetWordCount)}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the chapter form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the chapter form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Chapter"
	if m.editMode {
		titleText = "Edit Chapter"
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1).Render(titleText)

	return lipgloss.NewStyle().Padding(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, m.form.View()),
	)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
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
					huh.NewOption(StatusDraft, StatusDraft),
					huh.NewOption(StatusRevision, StatusRevision),
					huh.NewOption(StatusFinal, StatusFinal),
				).
				Value(&m.fb.status),
			huh.NewInput().
				Title("Target word count").
				Placeholder("0").
				Value(&m.fb.target).
				Validate(func(s string) error {
					if n, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || n < 0 {
						return fmt.Errorf("target must be a non-negative number")
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

func (m Model) handleSubmit() tea.Cmd {
	target, _ := strconv.Atoi(strings.TrimSpace(m.fb.target))
	msg := SubmittedMsg{
		ID:              m.editID,
		Title:           strings.TrimSpace(m.fb.title),
		Status:          m.fb.status,
		TargetWordCount: target,
	}
	return func() tea.Msg { return msg }
}
