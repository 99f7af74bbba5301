package editor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/novelstudio/internal/chapter"
	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/editor"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/store"
	"github.com/nhle/novelstudio/internal/testutil"
	"github.com/nhle/novelstudio/internal/version"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped chan struct{}
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop() {
	select {
	case <-f.stopped:
	default:
		close(f.stopped)
	}
}

type tickers struct {
	made chan *fakeTicker
}

func newTickers() *tickers { return &tickers{made: make(chan *fakeTicker, 8)} }

func (t *tickers) factory(time.Duration) editor.Ticker {
	f := &fakeTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
	t.made <- f
	return f
}

func setup(t *testing.T, s store.Store) (*chapter.Workspace, context.Context) {
	t.Helper()
	ctx := context.Background()
	p, err := s.CreateProject(ctx, "u1", model.Project{Title: "Novel"})
	require.NoError(t, err)
	w := chapter.New(s, store.ProjectKey{UserID: "u1", ProjectID: p.ID})
	_, err = w.CreateChapter(ctx, "One")
	require.NoError(t, err)
	return w, ctx
}

func TestOpenSceneUsesActiveVersion(t *testing.T) {
	w, ctx := setup(t, testutil.NewStore(t))
	sc, err := w.CreateScene(ctx, "Opening")
	require.NoError(t, err)
	versions := []model.SceneVersion{{ID: "ver-1", Title: "Alt", Text: "alt text"}}
	active := "ver-1"
	require.NoError(t, w.UpdateScene(ctx, sc.ID, store.SceneUpdate{Text: strp("base text"), Versions: &versions, ActiveVersionID: &active}))

	s := editor.NewSession(w)
	assert.False(t, s.Snapshot().Open())

	require.NoError(t, s.Open(model.KindScene, sc.ID, ""))
	snap := s.Snapshot()
	assert.Equal(t, editor.Clean, snap.State)
	assert.Equal(t, "ver-1", snap.VersionID)
	assert.Equal(t, "Alt", snap.Title)
	assert.Equal(t, "alt text", snap.Body)

	require.NoError(t, s.SelectVersion(model.BaseVersionID))
	snap = s.Snapshot()
	assert.Equal(t, model.BaseVersionID, snap.VersionID)
	assert.Equal(t, "base text", snap.Body)

	require.NoError(t, s.SelectVersion("gone"))
	assert.Equal(t, model.BaseVersionID, s.Snapshot().VersionID)

	assert.True(t, common.IsNotFound(s.Open(model.KindScene, "missing", "")))
}

func strp(s string) *string { return &s }

func TestEditMarksDirty(t *testing.T) {
	w, ctx := setup(t, testutil.NewStore(t))
	sc, err := w.CreateScene(ctx, "")
	require.NoError(t, err)

	s := editor.NewSession(w)
	s.SetBody("ignored while idle")
	assert.Equal(t, editor.Idle, s.Snapshot().State)

	require.NoError(t, s.Open(model.KindScene, sc.ID, ""))
	s.SetBody("hello")
	assert.Equal(t, editor.Dirty, s.Snapshot().State)

	require.NoError(t, s.Save(ctx))
	assert.Equal(t, editor.Saved, s.Snapshot().State)

	got, _ := w.Scene(sc.ID)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, model.BaseVersionID, got.ActiveVersionID)

	s.Settle(0)
	assert.Equal(t, editor.Clean, s.Snapshot().State)
}

func TestSaveNewVersionAndPublish(t *testing.T) {
	w, ctx := setup(t, testutil.NewStore(t))
	sc, err := w.CreateScene(ctx, "Opening")
	require.NoError(t, err)

	s := editor.NewSession(w, editor.WithClock(func() time.Time { return time.UnixMilli(1700000000000) }))
	require.NoError(t, s.Open(model.KindScene, sc.ID, ""))
	s.SetBody("draft two")

	v2, err := s.SaveNewVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Version 2", v2.Label)
	assert.Equal(t, "ver-1700000000000", v2.ID)

	v3, err := s.SaveNewVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Version 3", v3.Label)
	assert.Equal(t, "ver-1700000000000-2", v3.ID)

	got, _ := w.Scene(sc.ID)
	require.Len(t, got.Versions, 2)
	assert.Equal(t, v3.ID, got.Versions[0].ID)
	assert.Equal(t, model.BaseVersionID, got.ActiveVersionID)
	assert.Equal(t, v3.ID, s.Snapshot().VersionID)

	s.SetBody("final words")
	require.NoError(t, s.Publish(ctx))
	got, _ = w.Scene(sc.ID)
	assert.Equal(t, v3.ID, got.ActiveVersionID)
	assert.Equal(t, "final words", got.ManuscriptText)
	assert.Equal(t, "final words", version.DisplayContent(got).Text)
	assert.Empty(t, got.Text)
}

func TestPublishBaseMirrorsContent(t *testing.T) {
	w, ctx := setup(t, testutil.NewStore(t))
	sc, err := w.CreateScene(ctx, "Opening")
	require.NoError(t, err)

	s := editor.NewSession(w)
	require.NoError(t, s.Open(model.KindScene, sc.ID, ""))
	s.SetTitle("New title")
	s.SetBody("base body")
	require.NoError(t, s.Publish(ctx))

	got, _ := w.Scene(sc.ID)
	assert.Equal(t, "New title", got.Title)
	assert.Equal(t, "base body", got.Text)
	assert.Equal(t, "New title", got.ManuscriptTitle)
	assert.Equal(t, "base body", got.ManuscriptText)
}

func TestSaveBaseMakesBaseActive(t *testing.T) {
	w, ctx := setup(t, testutil.NewStore(t))
	sc, err := w.CreateScene(ctx, "Opening")
	require.NoError(t, err)

	s := editor.NewSession(w)
	require.NoError(t, s.Open(model.KindScene, sc.ID, ""))
	s.SetBody("alt")
	v, err := s.SaveNewVersion(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Publish(ctx))
	got, _ := w.Scene(sc.ID)
	require.Equal(t, v.ID, got.ActiveVersionID)

	require.NoError(t, s.SelectVersion(model.BaseVersionID))
	s.SetBody("base again")
	require.NoError(t, s.SaveCurrentVersion(ctx))

	got, _ = w.Scene(sc.ID)
	assert.Equal(t, model.BaseVersionID, got.ActiveVersionID)
	assert.Equal(t, "base again", got.Text)
	require.Len(t, got.Versions, 1)
	assert.Equal(t, "alt", got.Versions[0].Text)

	// The stored version is no longer active, so deleting it keeps the
	// published manuscript.
	require.NoError(t, s.SelectVersion(v.ID))
	require.NoError(t, s.DeleteCurrentVersion(ctx, true))
	got, _ = w.Scene(sc.ID)
	assert.Equal(t, "alt", got.ManuscriptText)
}

func TestSaveStoredVersionKeepsActive(t *testing.T) {
	w, ctx := setup(t, testutil.NewStore(t))
	sc, err := w.CreateScene(ctx, "Opening")
	require.NoError(t, err)

	s := editor.NewSession(w)
	require.NoError(t, s.Open(model.KindScene, sc.ID, ""))
	s.SetBody("alt")
	v, err := s.SaveNewVersion(ctx)
	require.NoError(t, err)

	s.SetBody("alt, edited")
	require.NoError(t, s.SaveCurrentVersion(ctx))
	got, _ := w.Scene(sc.ID)
	assert.Equal(t, model.BaseVersionID, got.ActiveVersionID)
	require.Len(t, got.Versions, 1)
	assert.Equal(t, v.ID, got.Versions[0].ID)
	assert.Equal(t, "alt, edited", got.Versions[0].Text)
}

func TestPublishTwiceIsStable(t *testing.T) {
	w, ctx := setup(t, testutil.NewStore(t))
	sc, err := w.CreateScene(ctx, "Opening")
	require.NoError(t, err)

	s := editor.NewSession(w)
	require.NoError(t, s.Open(model.KindScene, sc.ID, ""))

	publishTwice := func(name string) {
		require.NoError(t, s.Publish(ctx), name)
		first, _ := w.Scene(sc.ID)
		require.NoError(t, s.Publish(ctx), name)
		second, _ := w.Scene(sc.ID)
		assert.Equal(t, first.ManuscriptTitle, second.ManuscriptTitle, name)
		assert.Equal(t, first.ManuscriptText, second.ManuscriptText, name)
		assert.Equal(t, first.ActiveVersionID, second.ActiveVersionID, name)
	}

	s.SetTitle("Opening, reworked")
	s.SetBody("stored words")
	v, err := s.SaveNewVersion(ctx)
	require.NoError(t, err)
	publishTwice("stored version")
	got, _ := w.Scene(sc.ID)
	assert.Equal(t, v.ID, got.ActiveVersionID)
	assert.Equal(t, "stored words", got.ManuscriptText)

	require.NoError(t, s.SelectVersion(model.BaseVersionID))
	s.SetBody("base words")
	publishTwice("base version")
	got, _ = w.Scene(sc.ID)
	assert.Equal(t, model.BaseVersionID, got.ActiveVersionID)
	assert.Equal(t, "base words", got.ManuscriptText)
}

func TestSaveNewVersionKeepsTypedTitle(t *testing.T) {
	w, ctx := setup(t, testutil.NewStore(t))
	sc, err := w.CreateScene(ctx, "Opening")
	require.NoError(t, err)

	s := editor.NewSession(w)
	require.NoError(t, s.Open(model.KindScene, sc.ID, ""))
	s.SetTitle("A darker opening")
	s.SetBody("It was dark.")

	v, err := s.SaveNewVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Version 2", v.Label)
	assert.Equal(t, "A darker opening", v.Title)

	snap := s.Snapshot()
	assert.Equal(t, v.ID, snap.VersionID)
	assert.Equal(t, "A darker opening", snap.Title)

	got, _ := w.Scene(sc.ID)
	require.Len(t, got.Versions, 1)
	assert.Equal(t, "A darker opening", got.Versions[0].Title)
	assert.Equal(t, "Opening", got.Title)
}

func TestDeleteCurrentVersion(t *testing.T) {
	w, ctx := setup(t, testutil.NewStore(t))
	sc, err := w.CreateScene(ctx, "Opening")
	require.NoError(t, err)
	require.NoError(t, w.UpdateScene(ctx, sc.ID, store.SceneUpdate{Text: strp("base")}))

	s := editor.NewSession(w)
	require.NoError(t, s.Open(model.KindScene, sc.ID, ""))
	assert.ErrorIs(t, s.DeleteCurrentVersion(ctx, true), common.ErrBaseVersionPermanent)

	s.SetBody("alt")
	v, err := s.SaveNewVersion(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Publish(ctx))

	assert.ErrorIs(t, s.DeleteCurrentVersion(ctx, false), common.ErrConfirmationRequired)
	got, _ := w.Scene(sc.ID)
	assert.Len(t, got.Versions, 1)

	require.NoError(t, s.DeleteCurrentVersion(ctx, true))
	got, _ = w.Scene(sc.ID)
	assert.Empty(t, got.Versions)
	assert.Equal(t, model.BaseVersionID, got.ActiveVersionID)
	assert.Empty(t, got.ManuscriptText)
	assert.Equal(t, "base", version.DisplayContent(got).Text)

	snap := s.Snapshot()
	assert.Equal(t, model.BaseVersionID, snap.VersionID)
	assert.Equal(t, "base", snap.Body)
	assert.NotEqual(t, v.ID, snap.VersionID)
}

func TestWriteFailureKeepsDirty(t *testing.T) {
	failing := &testutil.FailingDocStore{Store: testutil.NewDocStore(t)}
	w, ctx := setup(t, store.New(failing))
	b, err := w.CreateBeat(ctx, "Beat")
	require.NoError(t, err)

	s := editor.NewSession(w, editor.WithAutosaveInterval(0))
	require.NoError(t, s.Open(model.KindBeat, b.ID, ""))
	s.SetBody("notes")

	failing.FailUpdate = true
	err = s.Save(ctx)
	require.Error(t, err)
	snap := s.Snapshot()
	assert.Equal(t, editor.Dirty, snap.State)
	assert.Error(t, snap.Err)

	failing.FailUpdate = false
	require.NoError(t, s.Save(ctx))
	assert.NoError(t, s.Snapshot().Err)
	got, _ := w.Beat(b.ID)
	assert.Equal(t, "notes", got.Description)
}

func TestAutosaveBeat(t *testing.T) {
	w, ctx := setup(t, testutil.NewStore(t))
	b, err := w.CreateBeat(ctx, "Beat")
	require.NoError(t, err)

	tk := newTickers()
	s := editor.NewSession(w, editor.WithTicker(tk.factory))
	require.NoError(t, s.Open(model.KindBeat, b.ID, ""))
	ft := <-tk.made
	assert.True(t, s.Autosaving())

	s.SetBody("autosaved notes")
	ft.ch <- time.Now()

	select {
	case res := <-s.AutosaveResults():
		require.NoError(t, res.Err)
		assert.Equal(t, b.ID, res.BeatID)
	case <-time.After(5 * time.Second):
		t.Fatal("no autosave result")
	}
	assert.Equal(t, editor.Autosaved, s.Snapshot().State)
	got, _ := w.Beat(b.ID)
	assert.Equal(t, "autosaved notes", got.Description)

	s.Close()
	assert.False(t, s.Autosaving())
	select {
	case <-ft.stopped:
	default:
		t.Fatal("ticker not stopped on close")
	}
}

func TestAutosaveStopsOnTargetChange(t *testing.T) {
	w, ctx := setup(t, testutil.NewStore(t))
	b1, err := w.CreateBeat(ctx, "One")
	require.NoError(t, err)
	sc, err := w.CreateScene(ctx, "")
	require.NoError(t, err)

	tk := newTickers()
	s := editor.NewSession(w, editor.WithTicker(tk.factory))
	require.NoError(t, s.Open(model.KindBeat, b1.ID, ""))
	ft := <-tk.made

	require.NoError(t, s.Open(model.KindScene, sc.ID, ""))
	assert.False(t, s.Autosaving())
	<-ft.stopped

	s.SetBody("scene text is never autosaved")
	select {
	case tk2 := <-tk.made:
		t.Fatalf("unexpected ticker for scene: %v", tk2)
	default:
	}
	got, _ := w.Scene(sc.ID)
	assert.Empty(t, got.Text)
}

func TestCloseIf(t *testing.T) {
	w, ctx := setup(t, testutil.NewStore(t))
	sc, err := w.CreateScene(ctx, "")
	require.NoError(t, err)

	s := editor.NewSession(w)
	require.NoError(t, s.Open(model.KindScene, sc.ID, ""))
	s.CloseIf("other")
	assert.True(t, s.Snapshot().Open())
	s.CloseIf(sc.ID)
	assert.False(t, s.Snapshot().Open())
	assert.ErrorIs(t, s.Save(ctx), common.ErrNoEditorTarget)
}
