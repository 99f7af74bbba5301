package chapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/events"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/reorder"
	"github.com/nhle/novelstudio/internal/store"
)

// DefaultChapterTitle suggests a title for the next chapter.
func (w *Workspace) DefaultChapterTitle() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return fmt.Sprintf("Chapter %d", len(w.chapters)+1)
}

// CreateChapter adds a chapter after the existing ones and loads it.
func (w *Workspace) CreateChapter(ctx context.Context, title string) (*model.Chapter, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, common.Required("title")
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.RLock()
	next := int64(0)
	for i, c := range w.chapters {
		if i == 0 || c.OrderIndex+1 > next {
			next = c.OrderIndex + 1
		}
	}
	w.mu.RUnlock()

	ch, err := w.store.CreateChapter(ctx, w.project, model.Chapter{Title: title, OrderIndex: next})
	if err != nil {
		w.log.Error("creating chapter failed", "project_id", w.project.ProjectID, "error", err)
		return nil, common.WriteFailed("create chapter", err)
	}

	w.mu.Lock()
	w.chapters = append(w.chapters, *ch)
	sortChapters(w.chapters)
	w.mu.Unlock()
	w.publish(events.ChapterCreated, ch.ID, ch.ID)

	if err := w.LoadChapter(ctx, ch); err != nil {
		return ch, err
	}
	return ch, nil
}

// UpdateChapter changes a chapter's fields.
func (w *Workspace) UpdateChapter(ctx context.Context, id string, upd store.ChapterUpdate) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	key := store.ChapterKey{ProjectKey: w.project, ChapterID: id}
	if err := w.store.UpdateChapter(ctx, key, upd); err != nil {
		if common.IsValidation(err) {
			return err
		}
		w.log.Error("updating chapter failed", "chapter_id", id, "error", err)
		return common.WriteFailed("update chapter", err)
	}

	w.mu.Lock()
	for i := range w.chapters {
		if w.chapters[i].ID == id {
			applyChapterUpdate(&w.chapters[i], upd)
		}
	}
	if w.isSelected(id) {
		applyChapterUpdate(w.selected, upd)
	}
	sortChapters(w.chapters)
	w.mu.Unlock()
	return nil
}

func applyChapterUpdate(c *model.Chapter, upd store.ChapterUpdate) {
	if upd.Title != nil {
		c.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Status != nil {
		c.Status = *upd.Status
	}
	if upd.OrderIndex != nil {
		c.OrderIndex = *upd.OrderIndex
	}
	if upd.TargetWordCount != nil {
		c.TargetWordCount = *upd.TargetWordCount
	}
}

// DeleteChapter removes a chapter and its content. When it was selected, the
// first remaining chapter is loaded, or the mirror is cleared.
func (w *Workspace) DeleteChapter(ctx context.Context, id string) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	key := store.ChapterKey{ProjectKey: w.project, ChapterID: id}
	if err := w.store.DeleteChapter(ctx, key); err != nil {
		w.log.Error("deleting chapter failed", "chapter_id", id, "error", err)
		return common.WriteFailed("delete chapter", err)
	}

	w.mu.Lock()
	remaining := make([]model.Chapter, 0, len(w.chapters))
	for _, c := range w.chapters {
		if c.ID != id {
			remaining = append(remaining, c)
		}
	}
	w.chapters = remaining
	wasSelected := w.isSelected(id)
	if wasSelected && len(remaining) == 0 {
		w.loadSeq++
		w.selected = nil
		w.scenes = nil
		w.beats = nil
	}
	w.mu.Unlock()

	w.publish(events.ChapterDeleted, id, id)

	if wasSelected && len(remaining) > 0 {
		first := remaining[0]
		return w.LoadChapter(ctx, &first)
	}
	return nil
}

// CreateScene appends a scene to the selected chapter. An empty title
// becomes "Scene N".
func (w *Workspace) CreateScene(ctx context.Context, title string) (*model.Scene, error) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.createScene(ctx, title)
}

func (w *Workspace) createScene(ctx context.Context, title string) (*model.Scene, error) {
	w.mu.RLock()
	key, err := w.chapterKeyLocked()
	n := len(w.scenes)
	w.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(title) == "" {
		title = fmt.Sprintf("Scene %d", n+1)
	}
	sc, err := w.store.CreateScene(ctx, key, model.Scene{
		Title:           title,
		OrderIndex:      int64(n),
		ActiveVersionID: model.BaseVersionID,
	})
	if err != nil {
		w.log.Error("creating scene failed", "chapter_id", key.ChapterID, "error", err)
		return nil, common.WriteFailed("create scene", err)
	}

	w.mu.Lock()
	if w.isSelected(key.ChapterID) {
		w.scenes = append(w.scenes, *sc)
	}
	w.mu.Unlock()
	w.publish(events.SceneCreated, key.ChapterID, sc.ID)
	return sc, nil
}

// CreateBeat appends an unlinked beat. An empty title becomes "Beat N".
func (w *Workspace) CreateBeat(ctx context.Context, title string) (*model.Beat, error) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.createBeat(ctx, title, nil)
}

// CreateBeatForScene adds a beat linked to sceneID on the scene's row. It
// fails with a ConflictError, before writing, when another beat already
// links to the scene.
func (w *Workspace) CreateBeatForScene(ctx context.Context, sceneID string) (*model.Beat, error) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.createBeat(ctx, "", &sceneID)
}

func (w *Workspace) createBeat(ctx context.Context, title string, sceneID *string) (*model.Beat, error) {
	w.mu.RLock()
	key, err := w.chapterKeyLocked()
	n := len(w.beats)
	orderIndex := int64(n)
	if err == nil && sceneID != nil {
		i := indexOfScene(w.scenes, *sceneID)
		if i < 0 {
			err = fmt.Errorf("scene %s: %w", *sceneID, common.ErrNotFound)
		} else {
			orderIndex = w.scenes[i].OrderIndex
			err = reorder.CheckLink(w.beats, "", *sceneID)
		}
	}
	w.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(title) == "" {
		title = fmt.Sprintf("Beat %d", n+1)
	}
	b, err := w.store.CreateBeat(ctx, key, model.Beat{
		Title:         title,
		OrderIndex:    orderIndex,
		LinkedSceneID: sceneID,
	})
	if err != nil {
		w.log.Error("creating beat failed", "chapter_id", key.ChapterID, "error", err)
		return nil, common.WriteFailed("create beat", err)
	}

	w.mu.Lock()
	if w.isSelected(key.ChapterID) {
		w.beats = append(w.beats, *b)
		sortBeats(w.beats)
	}
	w.mu.Unlock()
	w.publish(events.BeatCreated, key.ChapterID, b.ID)
	if sceneID != nil {
		w.publish(events.BeatLinked, key.ChapterID, b.ID)
	}
	return b, nil
}

// CreateSceneAndBeat adds a scene and a beat linked to it on the same row.
// If the beat cannot be written the scene is kept and returned with the error.
func (w *Workspace) CreateSceneAndBeat(ctx context.Context) (*model.Scene, *model.Beat, error) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	sc, err := w.createScene(ctx, "")
	if err != nil {
		return nil, nil, err
	}
	id := sc.ID
	b, err := w.createBeat(ctx, "", &id)
	if err != nil {
		return sc, nil, err
	}
	return sc, b, nil
}

// UpdateScene writes scene fields and mirrors them on success.
func (w *Workspace) UpdateScene(ctx context.Context, id string, upd store.SceneUpdate) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	key, err := w.ChapterKey()
	if err != nil {
		return err
	}
	if err := w.store.UpdateScene(ctx, key, id, upd); err != nil {
		w.log.Error("updating scene failed", "scene_id", id, "error", err)
		return common.WriteFailed("update scene", err)
	}

	w.mu.Lock()
	if w.isSelected(key.ChapterID) {
		if i := indexOfScene(w.scenes, id); i >= 0 {
			applySceneUpdate(&w.scenes[i], upd)
		}
	}
	w.mu.Unlock()
	w.publish(events.SceneUpdated, key.ChapterID, id)

	if upd.Text != nil || upd.ManuscriptText != nil || upd.ActiveVersionID != nil || upd.Versions != nil {
		if _, err := w.refreshWordCount(ctx); err != nil {
			w.log.Warn("refreshing word count failed", "project_id", w.project.ProjectID, "error", err)
		}
	}
	return nil
}

func applySceneUpdate(s *model.Scene, upd store.SceneUpdate) {
	if upd.Title != nil {
		s.Title = *upd.Title
	}
	if upd.Text != nil {
		s.Text = *upd.Text
	}
	if upd.OrderIndex != nil {
		s.OrderIndex = *upd.OrderIndex
	}
	if upd.ActiveVersionID != nil {
		s.ActiveVersionID = *upd.ActiveVersionID
	}
	if upd.Versions != nil {
		s.Versions = append([]model.SceneVersion(nil), (*upd.Versions)...)
	}
	if upd.ManuscriptTitle != nil {
		s.ManuscriptTitle = *upd.ManuscriptTitle
	}
	if upd.ManuscriptText != nil {
		s.ManuscriptText = *upd.ManuscriptText
	}
}

// UpdateBeat writes beat fields and mirrors them on success.
func (w *Workspace) UpdateBeat(ctx context.Context, id string, upd store.BeatUpdate) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	key, err := w.ChapterKey()
	if err != nil {
		return err
	}
	if err := w.store.UpdateBeat(ctx, key, id, upd); err != nil {
		w.log.Error("updating beat failed", "beat_id", id, "error", err)
		return common.WriteFailed("update beat", err)
	}

	w.mu.Lock()
	if w.isSelected(key.ChapterID) {
		if i := indexOfBeat(w.beats, id); i >= 0 {
			b := &w.beats[i]
			if upd.Title != nil {
				b.Title = *upd.Title
			}
			if upd.Description != nil {
				b.Description = *upd.Description
			}
			if upd.OrderIndex != nil {
				b.OrderIndex = *upd.OrderIndex
				sortBeats(w.beats)
			}
		}
	}
	w.mu.Unlock()
	w.publish(events.BeatUpdated, key.ChapterID, id)
	return nil
}

// DeleteItem removes a scene or a beat from the selected chapter. Beats
// linked to a deleted scene are unlinked first and the beats are refetched
// afterwards.
func (w *Workspace) DeleteItem(ctx context.Context, kind model.ItemKind, id string) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	key, seq, err := w.currentSeq()
	if err != nil {
		return err
	}

	switch kind {
	case model.KindScene:
		return w.deleteScene(ctx, key, seq, id)
	case model.KindBeat:
		if err := w.store.DeleteBeat(ctx, key, id); err != nil {
			w.log.Error("deleting beat failed", "beat_id", id, "error", err)
			return common.WriteFailed("delete beat", err)
		}
		w.mu.Lock()
		if w.isSelected(key.ChapterID) {
			if i := indexOfBeat(w.beats, id); i >= 0 {
				w.beats = append(w.beats[:i:i], w.beats[i+1:]...)
			}
		}
		w.mu.Unlock()
		w.publish(events.BeatDeleted, key.ChapterID, id)
		return nil
	default:
		return &common.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown item kind %q", kind)}
	}
}

func (w *Workspace) deleteScene(ctx context.Context, key store.ChapterKey, seq uint64, id string) error {
	w.mu.RLock()
	linked := reorder.LinkedBeats(w.beats, id)
	w.mu.RUnlock()

	for _, beatID := range linked {
		if err := w.store.SetBeatLink(ctx, key, beatID, nil); err != nil {
			w.log.Error("unlinking beat before scene delete failed", "beat_id", beatID, "scene_id", id, "error", err)
			return common.WriteFailed("unlink beat", err)
		}
		w.mu.Lock()
		if w.isSelected(key.ChapterID) {
			if i := indexOfBeat(w.beats, beatID); i >= 0 {
				w.beats[i].LinkedSceneID = nil
			}
		}
		w.mu.Unlock()
		w.publish(events.BeatUnlinked, key.ChapterID, beatID)
	}

	if err := w.store.DeleteScene(ctx, key, id); err != nil {
		w.log.Error("deleting scene failed", "scene_id", id, "error", err)
		return common.WriteFailed("delete scene", err)
	}

	w.mu.Lock()
	if w.isSelected(key.ChapterID) {
		if i := indexOfScene(w.scenes, id); i >= 0 {
			w.scenes = append(w.scenes[:i:i], w.scenes[i+1:]...)
		}
	}
	w.mu.Unlock()
	w.publish(events.SceneDeleted, key.ChapterID, id)

	if err := w.refetchBeats(ctx, key, seq); err != nil {
		return err
	}
	if _, err := w.refreshWordCount(ctx); err != nil {
		w.log.Warn("refreshing word count failed", "project_id", w.project.ProjectID, "error", err)
	}
	return nil
}
