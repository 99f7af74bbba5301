package board_test

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/novelstudio/internal/chapter"
	"github.com/nhle/novelstudio/internal/keys"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/store"
	"github.com/nhle/novelstudio/internal/testutil"
	"github.com/nhle/novelstudio/internal/ui/board"
)

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drive feeds a key to the board and runs the resulting command, feeding
// its message back the way the runtime would.
func drive(t *testing.T, m board.Model, key string) (board.Model, tea.Msg) {
	t.Helper()
	m, cmd := m.Update(press(key))
	if cmd == nil {
		return m, nil
	}
	msg := cmd()
	if done, ok := msg.(board.DoneMsg); ok {
		m, _ = m.Update(done)
	}
	return m, msg
}

func newBoard(t *testing.T) (board.Model, *chapter.Workspace) {
	t.Helper()
	s := testutil.NewStore(t)
	p, err := s.CreateProject(context.Background(), "u1", model.Project{Title: "Novel"})
	require.NoError(t, err)
	ws := chapter.New(s, store.ProjectKey{UserID: "u1", ProjectID: p.ID})

	m := board.New(ws, keys.DefaultKeyMap(), 120, 40)
	done := m.Init()()
	m, _ = m.Update(done)
	return m, ws
}

func TestBoardCreatesChapterSceneAndBeat(t *testing.T) {
	m, ws := newBoard(t)

	m, msg := drive(t, m, "C")
	require.IsType(t, board.DoneMsg{}, msg)
	assert.NoError(t, msg.(board.DoneMsg).Err)
	require.Len(t, ws.Chapters(), 1)

	m, _ = drive(t, m, "l")
	assert.Equal(t, board.ColumnScenes, m.Focus())
	m, _ = drive(t, m, "n")
	m, _ = drive(t, m, "N")
	assert.Len(t, ws.Scenes(), 2)
	assert.Len(t, ws.Beats(), 1)

	view := m.View()
	assert.Contains(t, view, "Scene 1")
	assert.Contains(t, view, "Chapters")
}

func TestBoardOpenSceneEmitsOpenItem(t *testing.T) {
	m, ws := newBoard(t)
	m, _ = drive(t, m, "C")
	m, _ = drive(t, m, "l")
	m, _ = drive(t, m, "n")

	_, msg := drive(t, m, "enter")
	open, ok := msg.(board.OpenItemMsg)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, model.KindScene, open.Kind)
	assert.Equal(t, ws.Scenes()[0].ID, open.ID)
}

func TestBoardReorderAndLink(t *testing.T) {
	m, ws := newBoard(t)
	m, _ = drive(t, m, "C")
	m, _ = drive(t, m, "l")
	m, _ = drive(t, m, "n")
	m, _ = drive(t, m, "n")
	first := ws.Scenes()[0].ID

	m, msg := drive(t, m, "J")
	require.IsType(t, board.DoneMsg{}, msg)
	require.NoError(t, msg.(board.DoneMsg).Err)
	assert.Equal(t, first, ws.Scenes()[1].ID)

	// Beats column: create a beat then link it to the scene under the cursor.
	m, _ = drive(t, m, "l")
	m, _ = drive(t, m, "n")
	m, _ = drive(t, m, "L")
	assert.True(t, m.Editing())
	m, msg = drive(t, m, "enter")
	require.IsType(t, board.DoneMsg{}, msg)
	require.NoError(t, msg.(board.DoneMsg).Err)
	assert.False(t, m.Editing())

	beats := ws.Beats()
	require.Len(t, beats, 1)
	assert.True(t, beats[0].LinkedTo(first))

	m, _ = drive(t, m, "U")
	assert.False(t, ws.Beats()[0].IsLinked())
}

func TestBoardLinkCancel(t *testing.T) {
	m, ws := newBoard(t)
	m, _ = drive(t, m, "C")
	m, _ = drive(t, m, "N")
	m, _ = drive(t, m, "h")
	assert.Equal(t, board.ColumnBeats, m.Focus())

	// Unlink first so the picker has something to do.
	m, _ = drive(t, m, "U")
	m, _ = drive(t, m, "L")
	require.True(t, m.Editing())
	m, _ = drive(t, m, "esc")
	assert.False(t, m.Editing())
	assert.False(t, ws.Beats()[0].IsLinked())
}

func TestBoardManuscriptNeedsChapter(t *testing.T) {
	m, _ := newBoard(t)
	m, msg := drive(t, m, "m")
	assert.Nil(t, msg)
	assert.Contains(t, m.View(), "Select a chapter first")

	m, _ = drive(t, m, "C")
	_, msg = drive(t, m, "m")
	assert.IsType(t, board.OpenManuscriptMsg{}, msg)
}

func TestBoardEditChapter(t *testing.T) {
	m, ws := newBoard(t)
	_, msg := drive(t, m, "e")
	assert.Nil(t, msg, "no chapter to edit")

	m, _ = drive(t, m, "C")
	_, msg = drive(t, m, "e")
	edit, ok := msg.(board.EditChapterMsg)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, ws.Chapters()[0].ID, edit.Chapter.ID)
}
