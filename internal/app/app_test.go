package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/store"
	"github.com/nhle/novelstudio/internal/testutil"
	"github.com/nhle/novelstudio/internal/ui/board"
	"github.com/nhle/novelstudio/internal/ui/chapterform"
	"github.com/nhle/novelstudio/internal/ui/command"
	"github.com/nhle/novelstudio/internal/ui/projectmgr"
)

func openTestProject(t *testing.T) Model {
	t.Helper()
	s := testutil.NewStore(t)
	p, err := s.CreateProject(context.Background(), "u1", model.Project{Title: "Novel", GoalWordCount: 100})
	require.NoError(t, err)

	m := New(Options{Store: s, UserID: "u1", ExportDir: t.TempDir()})
	mdl, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = mdl.(Model)

	mdl, cmd := m.Update(projectmgr.ProjectOpenMsg{Project: *p})
	m = mdl.(Model)
	require.NotNil(t, cmd)
	t.Cleanup(m.Shutdown)

	require.NotNil(t, m.open)
	require.NoError(t, m.open.ws.LoadChapters(context.Background()))
	return m
}

func runCommand(t *testing.T, m Model, line string) (Model, commandResultMsg) {
	t.Helper()
	mdl, cmd := m.Update(command.CommandMsg(line))
	m = mdl.(Model)
	require.NotNil(t, cmd)
	msg, ok := cmd().(commandResultMsg)
	require.True(t, ok)
	mdl, _ = m.Update(msg)
	return mdl.(Model), msg
}

func TestOpenProjectShowsBoard(t *testing.T) {
	m := openTestProject(t)
	assert.Equal(t, ViewBoard, m.currentView)
	assert.Contains(t, m.View(), "Novel Studio · Novel")
	assert.Contains(t, m.View(), "0 / 100 words")
}

func TestCommandsDriveWorkspace(t *testing.T) {
	m := openTestProject(t)

	m, res := runCommand(t, m, "chapter The Storm")
	require.NoError(t, res.err)
	ch, ok := m.open.ws.Selected()
	require.True(t, ok)
	assert.Equal(t, "The Storm", ch.Title)

	m, res = runCommand(t, m, "rename Calm")
	require.NoError(t, res.err)
	ch, _ = m.open.ws.Selected()
	assert.Equal(t, "Calm", ch.Title)

	m, res = runCommand(t, m, "goal abc")
	assert.Error(t, res.err)
	assert.Contains(t, m.statusMsg, "usage: goal")

	_, res = runCommand(t, m, "frobnicate")
	assert.Error(t, res.err)
}

func TestExportCommandWritesFile(t *testing.T) {
	m := openTestProject(t)
	m, res := runCommand(t, m, "chapter One")
	require.NoError(t, res.err)

	sc, err := m.open.ws.CreateScene(context.Background(), "Opening")
	require.NoError(t, err)
	text := "the dark tower"
	require.NoError(t, m.open.ws.UpdateScene(context.Background(), sc.ID, store.SceneUpdate{Text: &text}))

	out := filepath.Join(t.TempDir(), "one.txt")
	_, res = runCommand(t, m, "export chapter "+out)
	require.NoError(t, res.err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "the dark tower")
}

func TestOpenItemSwitchesToEditor(t *testing.T) {
	m := openTestProject(t)
	_, err := m.open.ws.CreateChapter(context.Background(), "One")
	require.NoError(t, err)
	b, err := m.open.ws.CreateBeat(context.Background(), "Inciting incident")
	require.NoError(t, err)

	mdl, _ := m.Update(board.OpenItemMsg{Kind: model.KindBeat, ID: b.ID})
	m = mdl.(Model)
	assert.Equal(t, ViewEditor, m.currentView)
	assert.True(t, m.open.session.Snapshot().Open())

	// Typing "q" in the editor is text, not quit.
	mdl, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = mdl.(Model)
	assert.Equal(t, ViewEditor, m.currentView)

	mdl, _ = m.Update(board.ItemDeletedMsg{ID: b.ID})
	m = mdl.(Model)
	assert.False(t, m.open.session.Snapshot().Open())
}

func TestChapterFormUpdatesChapter(t *testing.T) {
	m := openTestProject(t)
	ch, err := m.open.ws.CreateChapter(context.Background(), "One")
	require.NoError(t, err)

	mdl, _ := m.Update(board.EditChapterMsg{Chapter: *ch})
	m = mdl.(Model)
	assert.Equal(t, ViewChapterForm, m.currentView)
	assert.Contains(t, m.View(), "Edit Chapter")

	mdl, cmd := m.Update(chapterform.SubmittedMsg{ID: ch.ID, Title: "Storm", Status: chapterform.StatusRevision, TargetWordCount: 4000})
	m = mdl.(Model)
	assert.Equal(t, ViewBoard, m.currentView)
	require.NotNil(t, cmd)
	res := cmd().(commandResultMsg)
	require.NoError(t, res.err)

	got, ok := m.open.ws.Selected()
	require.True(t, ok)
	assert.Equal(t, "Storm", got.Title)
	assert.Equal(t, chapterform.StatusRevision, got.Status)
	assert.Equal(t, 4000, got.TargetWordCount)
}
