package chapter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/novelstudio/internal/chapter"
	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/events"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/store"
	"github.com/nhle/novelstudio/internal/testutil"
)

func strp(s string) *string { return &s }

func newWorkspace(t *testing.T, s store.Store, opts ...chapter.Option) *chapter.Workspace {
	t.Helper()
	p, err := s.CreateProject(context.Background(), "u1", model.Project{Title: "Novel", GoalWordCount: 1000})
	require.NoError(t, err)
	return chapter.New(s, store.ProjectKey{UserID: "u1", ProjectID: p.ID}, opts...)
}

func sceneTitles(scenes []model.Scene) []string {
	out := make([]string, len(scenes))
	for i, s := range scenes {
		out[i] = s.Title
	}
	return out
}

func TestCreateChapterLoadsIt(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, testutil.NewStore(t))
	require.NoError(t, w.LoadChapters(ctx))

	_, ok := w.Selected()
	assert.False(t, ok)
	assert.Equal(t, "Chapter 1", w.DefaultChapterTitle())

	_, err := w.CreateChapter(ctx, "   ")
	assert.True(t, common.IsValidation(err))

	one, err := w.CreateChapter(ctx, "One")
	require.NoError(t, err)
	two, err := w.CreateChapter(ctx, "Two")
	require.NoError(t, err)

	assert.Equal(t, int64(0), one.OrderIndex)
	assert.Equal(t, int64(1), two.OrderIndex)

	sel, ok := w.Selected()
	require.True(t, ok)
	assert.Equal(t, two.ID, sel.ID)
	assert.Len(t, w.Chapters(), 2)
	assert.Equal(t, "Chapter 3", w.DefaultChapterTitle())
}

func TestLoadChaptersSelectsFirst(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	w := newWorkspace(t, s)
	_, err := s.CreateChapter(ctx, w.Project(), model.Chapter{Title: "B", OrderIndex: 1})
	require.NoError(t, err)
	a, err := s.CreateChapter(ctx, w.Project(), model.Chapter{Title: "A", OrderIndex: 0})
	require.NoError(t, err)

	require.NoError(t, w.LoadChapters(ctx))
	sel, ok := w.Selected()
	require.True(t, ok)
	assert.Equal(t, a.ID, sel.ID)

	err = w.SelectChapter(ctx, "missing")
	assert.True(t, common.IsNotFound(err))
}

func TestDeleteChapterSelectsRemaining(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, testutil.NewStore(t))
	require.NoError(t, w.LoadChapters(ctx))
	one, err := w.CreateChapter(ctx, "One")
	require.NoError(t, err)
	two, err := w.CreateChapter(ctx, "Two")
	require.NoError(t, err)

	require.NoError(t, w.DeleteChapter(ctx, two.ID))
	sel, ok := w.Selected()
	require.True(t, ok)
	assert.Equal(t, one.ID, sel.ID)

	require.NoError(t, w.DeleteChapter(ctx, one.ID))
	_, ok = w.Selected()
	assert.False(t, ok)
	assert.Empty(t, w.Scenes())
	assert.Empty(t, w.Chapters())
}

func TestCreateItemsRequireChapter(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, testutil.NewStore(t))

	_, err := w.CreateScene(ctx, "")
	assert.ErrorIs(t, err, common.ErrNoChapter)
	_, err = w.CreateBeat(ctx, "")
	assert.ErrorIs(t, err, common.ErrNoChapter)
}

func TestCreateSceneAndBeatDefaults(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, testutil.NewStore(t))
	_, err := w.CreateChapter(ctx, "One")
	require.NoError(t, err)

	s1, err := w.CreateScene(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Scene 1", s1.Title)
	assert.Equal(t, model.BaseVersionID, s1.ActiveVersionID)

	b1, err := w.CreateBeat(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Beat 1", b1.Title)
	assert.False(t, b1.IsLinked())

	s2, b2, err := w.CreateSceneAndBeat(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Scene 2", s2.Title)
	assert.Equal(t, "Beat 2", b2.Title)
	assert.True(t, b2.LinkedTo(s2.ID))
	assert.Equal(t, s2.OrderIndex, b2.OrderIndex)

	linked, ok := w.LinkedBeat(s2.ID)
	require.True(t, ok)
	assert.Equal(t, b2.ID, linked.ID)

	_, err = w.CreateBeatForScene(ctx, s2.ID)
	assert.True(t, common.IsConflict(err))
	assert.Len(t, w.Beats(), 2)
}

func TestLinkBeatConflict(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, testutil.NewStore(t))
	_, err := w.CreateChapter(ctx, "One")
	require.NoError(t, err)
	sc, err := w.CreateScene(ctx, "Opening")
	require.NoError(t, err)
	b1, err := w.CreateBeat(ctx, "")
	require.NoError(t, err)
	b2, err := w.CreateBeat(ctx, "")
	require.NoError(t, err)

	require.NoError(t, w.LinkBeat(ctx, b1.ID, sc.ID))
	require.NoError(t, w.LinkBeat(ctx, b1.ID, sc.ID))

	err = w.LinkBeat(ctx, b2.ID, sc.ID)
	var conflict *common.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, b1.ID, conflict.OtherBeatID)

	got, ok := w.Beat(b2.ID)
	require.True(t, ok)
	assert.False(t, got.IsLinked())

	require.NoError(t, w.UnlinkBeat(ctx, b1.ID))
	require.NoError(t, w.LinkBeat(ctx, b2.ID, sc.ID))

	assert.True(t, common.IsNotFound(w.LinkBeat(ctx, "nope", sc.ID)))
	assert.True(t, common.IsNotFound(w.LinkBeat(ctx, b1.ID, "nope")))
}

func TestReorderScenesMovesLinkedBeats(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	w := newWorkspace(t, s)
	_, err := w.CreateChapter(ctx, "One")
	require.NoError(t, err)

	a, ba, err := w.CreateSceneAndBeat(ctx)
	require.NoError(t, err)
	b, err := w.CreateScene(ctx, "")
	require.NoError(t, err)
	c, bc, err := w.CreateSceneAndBeat(ctx)
	require.NoError(t, err)
	loose, err := w.CreateBeat(ctx, "Loose")
	require.NoError(t, err)

	res, err := w.ReorderScenes(ctx, 2, 0)
	require.NoError(t, err)
	assert.False(t, res.Reloaded)
	assert.Equal(t, []string{c.Title, a.Title, b.Title}, sceneTitles(w.Scenes()))

	want := map[string]int64{bc.ID: 0, ba.ID: 1, loose.ID: 3}
	for _, bt := range w.Beats() {
		assert.Equal(t, want[bt.ID], bt.OrderIndex, bt.Title)
	}

	key, err := w.ChapterKey()
	require.NoError(t, err)
	stored, err := s.ListScenes(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, []string{stored[0].ID, stored[1].ID, stored[2].ID})

	_, err = w.ReorderScenes(ctx, 5, 0)
	assert.True(t, common.IsValidation(err))
}

func TestReorderFailureReloads(t *testing.T) {
	ctx := context.Background()
	failing := &testutil.FailingDocStore{Store: testutil.NewDocStore(t)}
	w := newWorkspace(t, store.New(failing))
	_, err := w.CreateChapter(ctx, "One")
	require.NoError(t, err)
	first, err := w.CreateScene(ctx, "First")
	require.NoError(t, err)
	_, err = w.CreateScene(ctx, "Second")
	require.NoError(t, err)

	failing.FailCommit = true
	res, err := w.ReorderScenes(ctx, 0, 1)
	require.Error(t, err)
	assert.True(t, common.IsRemote(err))
	assert.True(t, res.Reloaded)
	assert.Equal(t, first.ID, w.Scenes()[0].ID)
}

func TestReorderReloadFailureIsNotReported(t *testing.T) {
	ctx := context.Background()
	failing := &testutil.FailingDocStore{Store: testutil.NewDocStore(t)}
	w := newWorkspace(t, store.New(failing))
	_, err := w.CreateChapter(ctx, "One")
	require.NoError(t, err)
	_, err = w.CreateScene(ctx, "First")
	require.NoError(t, err)
	_, err = w.CreateScene(ctx, "Second")
	require.NoError(t, err)

	failing.FailCommit = true
	failing.FailList = true
	res, err := w.ReorderScenes(ctx, 0, 1)
	require.Error(t, err)
	assert.True(t, common.IsRemote(err))
	assert.False(t, res.Reloaded)
}

func TestReorderSucceedsWhenBeatRefetchFails(t *testing.T) {
	ctx := context.Background()
	failing := &testutil.FailingDocStore{Store: testutil.NewDocStore(t)}
	w := newWorkspace(t, store.New(failing))
	_, err := w.CreateChapter(ctx, "One")
	require.NoError(t, err)
	first, err := w.CreateScene(ctx, "First")
	require.NoError(t, err)
	second, err := w.CreateScene(ctx, "Second")
	require.NoError(t, err)

	failing.FailList = true
	res, err := w.ReorderScenes(ctx, 0, 1)
	require.NoError(t, err)
	assert.False(t, res.Reloaded)
	assert.Equal(t, second.ID, w.Scenes()[0].ID)

	failing.FailList = false
	key, err := w.ChapterKey()
	require.NoError(t, err)
	stored, err := store.New(failing).ListScenes(ctx, key)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, []string{second.ID, first.ID}, []string{stored[0].ID, stored[1].ID})
}

func TestLoadFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	failing := &testutil.FailingDocStore{Store: testutil.NewDocStore(t)}
	w := newWorkspace(t, store.New(failing))
	_, err := w.CreateChapter(ctx, "One")
	require.NoError(t, err)
	_, err = w.CreateScene(ctx, "Kept")
	require.NoError(t, err)

	failing.FailList = true
	err = w.Reload(ctx)
	require.Error(t, err)
	assert.True(t, common.IsRemote(err))
	assert.Len(t, w.Scenes(), 1)
}

func TestDeleteSceneUnlinksBeats(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, testutil.NewStore(t))
	_, err := w.CreateChapter(ctx, "One")
	require.NoError(t, err)
	sc, bt, err := w.CreateSceneAndBeat(ctx)
	require.NoError(t, err)

	require.NoError(t, w.DeleteItem(ctx, model.KindScene, sc.ID))
	assert.Empty(t, w.Scenes())
	got, ok := w.Beat(bt.ID)
	require.True(t, ok)
	assert.False(t, got.IsLinked())

	require.NoError(t, w.DeleteItem(ctx, model.KindBeat, bt.ID))
	assert.Empty(t, w.Beats())

	assert.True(t, common.IsValidation(w.DeleteItem(ctx, model.ItemKind("chapter"), "x")))
}

func TestUpdateSceneRefreshesWordCount(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewStore(t)
	w := newWorkspace(t, s)
	_, err := w.CreateChapter(ctx, "One")
	require.NoError(t, err)
	sc, err := w.CreateScene(ctx, "")
	require.NoError(t, err)

	require.NoError(t, w.UpdateScene(ctx, sc.ID, store.SceneUpdate{Text: strp("three little words")}))
	got, ok := w.Scene(sc.ID)
	require.True(t, ok)
	assert.Equal(t, "three little words", got.Text)

	p, err := s.GetProject(ctx, w.Project())
	require.NoError(t, err)
	assert.Equal(t, 3, p.CurrentWordCount)
	assert.False(t, p.LastEdited.IsZero())
}

func TestAnnotations(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, testutil.NewStore(t))
	_, err := w.CreateChapter(ctx, "One")
	require.NoError(t, err)
	sc, err := w.CreateScene(ctx, "")
	require.NoError(t, err)
	require.NoError(t, w.UpdateScene(ctx, sc.ID, store.SceneUpdate{Text: strp("the dark tower rose")}))

	h, err := w.AddHighlight(ctx, sc.ID, "dark tower", "")
	require.NoError(t, err)
	assert.Equal(t, 4, h.Start)
	assert.Equal(t, 14, h.End)
	assert.Equal(t, model.HighlightYellow, h.Color)

	c, err := w.AddComment(ctx, sc.ID, "ominous", "rose")
	require.NoError(t, err)

	comments, highlights, err := w.Annotations(ctx)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
	assert.Len(t, highlights, 1)

	require.NoError(t, w.DeleteComment(ctx, c.ID))
	require.NoError(t, w.DeleteHighlight(ctx, h.ID))
	assert.True(t, common.IsNotFound(w.DeleteHighlight(ctx, h.ID)))
}

func TestEventsPublished(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus()
	ch, cancel := bus.Subscribe(16)
	defer cancel()

	w := newWorkspace(t, testutil.NewStore(t), chapter.WithEventBus(bus))
	_, err := w.CreateChapter(ctx, "One")
	require.NoError(t, err)

	var kinds []events.Kind
	for len(ch) > 0 {
		kinds = append(kinds, (<-ch).Kind)
	}
	assert.Contains(t, kinds, events.ChapterCreated)
	assert.Contains(t, kinds, events.ChapterLoaded)
}

func TestExportManuscript(t *testing.T) {
	ctx := context.Background()
	w := newWorkspace(t, testutil.NewStore(t))
	_, err := w.CreateChapter(ctx, "Beginnings")
	require.NoError(t, err)
	s1, err := w.CreateScene(ctx, "")
	require.NoError(t, err)
	require.NoError(t, w.UpdateScene(ctx, s1.ID, store.SceneUpdate{Text: strp("First.")}))
	s2, err := w.CreateScene(ctx, "")
	require.NoError(t, err)
	require.NoError(t, w.UpdateScene(ctx, s2.ID, store.SceneUpdate{Text: strp("Second.")}))

	_, err = w.CreateChapter(ctx, "")
	assert.True(t, common.IsValidation(err))
	_, err = w.CreateChapter(ctx, "Endings")
	require.NoError(t, err)
	s3, err := w.CreateScene(ctx, "")
	require.NoError(t, err)
	require.NoError(t, w.UpdateScene(ctx, s3.ID, store.SceneUpdate{Text: strp("Last.")}))

	text, name, err := w.ExportManuscript(ctx, "chapter")
	require.NoError(t, err)
	assert.Equal(t, "Chapter 2: Endings\n\nLast.", text)
	assert.Equal(t, "Endings.txt", name)

	text, name, err = w.ExportManuscript(ctx, "novel")
	require.NoError(t, err)
	assert.Equal(t, "Chapter 1: Beginnings\n\nFirst.\n\nSecond.\n\nChapter 2: Endings\n\nLast.", text)
	assert.Equal(t, "novel.txt", name)

	_, _, err = w.ExportManuscript(ctx, "poem")
	assert.True(t, common.IsValidation(err))

	m, err := w.Manuscript(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Number)
	require.Len(t, m.Blocks, 1)
	assert.Equal(t, "Last.", m.Blocks[0].Text)
}

// gatedStore blocks ListScenes for one chapter until gate is closed.
type gatedStore struct {
	store.Store
	chapterID string
	started   chan struct{}
	gate      chan struct{}
}

func (g *gatedStore) ListScenes(ctx context.Context, key store.ChapterKey) ([]model.Scene, error) {
	if key.ChapterID == g.chapterID {
		close(g.started)
		<-g.gate
	}
	return g.Store.ListScenes(ctx, key)
}

func TestStaleChapterLoadIsDropped(t *testing.T) {
	ctx := context.Background()
	base := testutil.NewStore(t)
	setup := newWorkspace(t, base)
	a, err := setup.CreateChapter(ctx, "A")
	require.NoError(t, err)
	b, err := setup.CreateChapter(ctx, "B")
	require.NoError(t, err)

	gs := &gatedStore{Store: base, chapterID: a.ID, started: make(chan struct{}), gate: make(chan struct{})}
	ws := chapter.New(gs, setup.Project())

	done := make(chan error, 1)
	go func() { done <- ws.LoadChapter(ctx, a) }()
	<-gs.started

	require.NoError(t, ws.LoadChapter(ctx, b))
	close(gs.gate)
	require.NoError(t, <-done)

	sel, ok := ws.Selected()
	require.True(t, ok)
	assert.Equal(t, b.ID, sel.ID, "the slower, older load must not win")
}
