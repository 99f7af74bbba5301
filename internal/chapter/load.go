package chapter

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/events"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/store"
)

// LoadChapters fetches the project's chapters. When no chapter is selected
// yet, the first one is loaded.
func (w *Workspace) LoadChapters(ctx context.Context) error {
	chapters, err := w.store.ListChapters(ctx, w.project)
	if err != nil {
		w.log.Error("loading chapters failed", "project_id", w.project.ProjectID, "error", err)
		return common.ReadFailed("load chapters", err)
	}

	w.mu.Lock()
	w.chapters = chapters
	needFirst := w.selected == nil && len(chapters) > 0
	w.mu.Unlock()

	w.publish(events.ChaptersLoaded, "", "")

	if needFirst {
		first := chapters[0]
		return w.LoadChapter(ctx, &first)
	}
	return nil
}

// LoadChapter fetches a chapter's scenes and beats concurrently and replaces
// the mirror with them. A nil chapter is a no-op. On failure the previous
// state is kept. A result that completes after a newer load was started is
// dropped.
func (w *Workspace) LoadChapter(ctx context.Context, ch *model.Chapter) error {
	if ch == nil {
		return nil
	}

	w.mu.Lock()
	w.loadSeq++
	seq := w.loadSeq
	w.mu.Unlock()

	key := store.ChapterKey{ProjectKey: w.project, ChapterID: ch.ID}
	var (
		scenes []model.Scene
		beats  []model.Beat
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		scenes, err = w.store.ListScenes(gctx, key)
		return err
	})
	g.Go(func() error {
		var err error
		beats, err = w.store.ListBeats(gctx, key)
		return err
	})
	if err := g.Wait(); err != nil {
		w.log.Error("loading chapter failed", "chapter_id", ch.ID, "error", err)
		return common.ReadFailed(fmt.Sprintf("load chapter %s", ch.ID), err)
	}

	for i := range scenes {
		if scenes[i].ActiveVersionID == "" {
			scenes[i].ActiveVersionID = model.BaseVersionID
		}
	}

	w.mu.Lock()
	if seq != w.loadSeq {
		w.mu.Unlock()
		w.log.Debug("discarding stale chapter load", "chapter_id", ch.ID)
		return nil
	}
	selected := *ch
	w.selected = &selected
	w.scenes = scenes
	w.beats = beats
	w.mu.Unlock()

	w.publish(events.ChapterLoaded, ch.ID, "")
	return nil
}

// SelectChapter loads a chapter of the project by id.
func (w *Workspace) SelectChapter(ctx context.Context, id string) error {
	w.mu.RLock()
	var found *model.Chapter
	for i := range w.chapters {
		if w.chapters[i].ID == id {
			c := w.chapters[i]
			found = &c
			break
		}
	}
	w.mu.RUnlock()

	if found == nil {
		return fmt.Errorf("chapter %s: %w", id, common.ErrNotFound)
	}
	return w.LoadChapter(ctx, found)
}

// Reload refetches the selected chapter.
func (w *Workspace) Reload(ctx context.Context) error {
	ch, ok := w.Selected()
	if !ok {
		return nil
	}
	return w.LoadChapter(ctx, &ch)
}

// refetchBeats replaces the mirror's beats with the stored ones, unless a
// chapter load started since seq or another chapter is selected.
func (w *Workspace) refetchBeats(ctx context.Context, key store.ChapterKey, seq uint64) error {
	beats, err := w.store.ListBeats(ctx, key)
	if err != nil {
		w.log.Warn("refetching beats failed", "chapter_id", key.ChapterID, "error", err)
		return common.ReadFailed("refetch beats", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if seq != w.loadSeq || !w.isSelected(key.ChapterID) {
		return nil
	}
	w.beats = beats
	return nil
}

// currentSeq returns the key of the selected chapter and the current load
// sequence number.
func (w *Workspace) currentSeq() (store.ChapterKey, uint64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	key, err := w.chapterKeyLocked()
	return key, w.loadSeq, err
}
