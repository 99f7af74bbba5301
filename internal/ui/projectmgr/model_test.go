package projectmgr

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/novelstudio/internal/keys"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/testutil"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCreateAndEditProject(t *testing.T) {
	s := testutil.NewStore(t)
	m := New(s, "u1", keys.DefaultKeyMap(), 100, 40)
	m, _ = m.Update(m.Init()())
	assert.Empty(t, m.Projects())

	m, _ = m.Update(runes("n"))
	require.True(t, m.Editing())
	assert.Equal(t, "80000", m.fb.goal)
	m.fb.title = "  The Long Night "
	m, cmd := m.Update(m.saveProject()())
	assert.False(t, m.Editing())
	require.NotNil(t, cmd)
	m, _ = m.Update(m.loadProjects()())

	require.Len(t, m.Projects(), 1)
	p := m.Projects()[0]
	assert.Equal(t, "The Long Night", p.Title)
	assert.Equal(t, model.ProjectStatusPlanning, p.Status)
	assert.Equal(t, 80000, p.GoalWordCount)

	m, _ = m.Update(runes("e"))
	require.True(t, m.Editing())
	assert.Equal(t, "The Long Night", m.fb.title)
	m.fb.goal = "1000"
	m, _ = m.Update(m.saveProject()())
	m, _ = m.Update(m.loadProjects()())
	assert.Equal(t, 1000, m.Projects()[0].GoalWordCount)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	open, ok := cmd().(ProjectOpenMsg)
	require.True(t, ok)
	assert.Equal(t, p.ID, open.Project.ID)
}

func TestDeleteProject(t *testing.T) {
	s := testutil.NewStore(t)
	_, err := s.CreateProject(context.Background(), "u1", model.Project{Title: "Draft"})
	require.NoError(t, err)

	m := New(s, "u1", keys.DefaultKeyMap(), 100, 40)
	m, _ = m.Update(m.Init()())
	require.Len(t, m.Projects(), 1)

	m, _ = m.Update(m.deleteProject(m.Projects()[0].ID)())
	m, _ = m.Update(m.loadProjects()())
	assert.Empty(t, m.Projects())
}

func TestValidateGoal(t *testing.T) {
	assert.NoError(t, validateGoal(" 500 "))
	assert.Error(t, validateGoal("-1"))
	assert.Error(t, validateGoal("lots"))
}
