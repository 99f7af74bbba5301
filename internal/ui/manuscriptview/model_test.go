package manuscriptview_test

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/novelstudio/internal/chapter"
	"github.com/nhle/novelstudio/internal/keys"
	"github.com/nhle/novelstudio/internal/manuscript"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/store"
	"github.com/nhle/novelstudio/internal/testutil"
	"github.com/nhle/novelstudio/internal/ui/manuscriptview"
)

func newWorkspace(t *testing.T) *chapter.Workspace {
	t.Helper()
	ctx := context.Background()
	s := testutil.NewStore(t)
	p, err := s.CreateProject(ctx, "u1", model.Project{Title: "Novel"})
	require.NoError(t, err)
	ws := chapter.New(s, store.ProjectKey{UserID: "u1", ProjectID: p.ID})
	require.NoError(t, ws.LoadChapters(ctx))
	_, err = ws.CreateChapter(ctx, "Arrival")
	require.NoError(t, err)
	return ws
}

func TestLoadRendersScenesAndComments(t *testing.T) {
	ctx := context.Background()
	ws := newWorkspace(t)

	sc, err := ws.CreateScene(ctx, "Gate")
	require.NoError(t, err)
	text := "the dark tower"
	require.NoError(t, ws.UpdateScene(ctx, sc.ID, store.SceneUpdate{Text: &text}))
	_, err = ws.CreateScene(ctx, "Blank")
	require.NoError(t, err)
	_, err = ws.AddComment(ctx, sc.ID, "ominous", "dark")
	require.NoError(t, err)

	m := manuscriptview.New(ws, keys.DefaultKeyMap(), 80, 100, 40)
	assert.Contains(t, m.View(), "Composing manuscript")

	m, _ = m.Update(m.Load()())
	view := m.View()
	assert.Contains(t, view, "Chapter 1: Arrival")
	assert.Contains(t, view, "Gate")
	assert.Contains(t, view, "tower")
	assert.Contains(t, view, `"dark": ominous`)
	assert.Contains(t, view, manuscript.EmptyScenePlaceholder)
	assert.Equal(t, 3, m.Chapter().Words)
}

func TestBackAndReloadKeys(t *testing.T) {
	ws := newWorkspace(t)
	m := manuscriptview.New(ws, keys.DefaultKeyMap(), 80, 100, 40)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, manuscriptview.CloseMsg{}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	assert.IsType(t, manuscriptview.LoadedMsg{}, cmd())
}
