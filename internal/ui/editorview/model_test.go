package editorview_test

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/novelstudio/internal/chapter"
	"github.com/nhle/novelstudio/internal/editor"
	"github.com/nhle/novelstudio/internal/keys"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/store"
	"github.com/nhle/novelstudio/internal/testutil"
	"github.com/nhle/novelstudio/internal/ui/editorview"
)

func openScene(t *testing.T) (editorview.Model, *chapter.Workspace, *editor.Session, string) {
	t.Helper()
	ctx := context.Background()
	s := testutil.NewStore(t)
	p, err := s.CreateProject(ctx, "u1", model.Project{Title: "Novel"})
	require.NoError(t, err)
	ws := chapter.New(s, store.ProjectKey{UserID: "u1", ProjectID: p.ID})
	require.NoError(t, ws.LoadChapters(ctx))
	_, err = ws.CreateChapter(ctx, "One")
	require.NoError(t, err)
	sc, err := ws.CreateScene(ctx, "Gate")
	require.NoError(t, err)

	sess := editor.NewSession(ws)
	t.Cleanup(sess.Close)
	require.NoError(t, sess.Open(model.KindScene, sc.ID, ""))

	m := editorview.New(sess, ws, keys.DefaultKeyMap(), 120, 40)
	m.Load()
	return m, ws, sess, sc.ID
}

func TestTypingMarksDirty(t *testing.T) {
	m, _, sess, _ := openScene(t)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("!")})

	snap := sess.Snapshot()
	assert.Equal(t, editor.Dirty, snap.State)
	assert.Equal(t, "Gate!", snap.Title)
	assert.Contains(t, m.View(), "unsaved")
}

func TestNewVersionThenSave(t *testing.T) {
	m, ws, sess, id := openScene(t)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	require.NotNil(t, cmd)
	saved, ok := cmd().(editorview.SavedMsg)
	require.True(t, ok)
	require.NoError(t, saved.Err)
	m, _ = m.Update(saved)

	sc, ok := ws.Scene(id)
	require.True(t, ok)
	require.Len(t, sc.Versions, 1)
	assert.Equal(t, sc.Versions[0].ID, sess.Snapshot().VersionID)
	assert.Contains(t, m.View(), "Version 2")
}

func TestDeleteBaseVersionRefused(t *testing.T) {
	m, _, _, _ := openScene(t)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Nil(t, cmd)
	assert.False(t, m.Editing())
	assert.Contains(t, m.View(), "The base version cannot be deleted")
}

func TestEscCloses(t *testing.T) {
	m, _, _, _ := openScene(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, editorview.CloseMsg{}, cmd())
}
