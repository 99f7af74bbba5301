package chapter

import (
	"context"
	"fmt"

	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/events"
	"github.com/nhle/novelstudio/internal/reorder"
)

// LinkBeat links a beat to a scene of the selected chapter. A beat already
// linked to the scene is a no-op; another beat linked to it is a conflict
// and nothing is written.
func (w *Workspace) LinkBeat(ctx context.Context, beatID, sceneID string) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.RLock()
	key, err := w.chapterKeyLocked()
	if err == nil {
		switch {
		case indexOfBeat(w.beats, beatID) < 0:
			err = fmt.Errorf("beat %s: %w", beatID, common.ErrNotFound)
		case indexOfScene(w.scenes, sceneID) < 0:
			err = fmt.Errorf("scene %s: %w", sceneID, common.ErrNotFound)
		case w.beats[indexOfBeat(w.beats, beatID)].LinkedTo(sceneID):
			w.mu.RUnlock()
			return nil
		default:
			err = reorder.CheckLink(w.beats, beatID, sceneID)
		}
	}
	w.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := w.store.SetBeatLink(ctx, key, beatID, &sceneID); err != nil {
		w.log.Error("linking beat failed", "beat_id", beatID, "scene_id", sceneID, "error", err)
		return common.WriteFailed("link beat", err)
	}

	w.mu.Lock()
	if w.isSelected(key.ChapterID) {
		if i := indexOfBeat(w.beats, beatID); i >= 0 {
			id := sceneID
			w.beats[i].LinkedSceneID = &id
		}
	}
	w.mu.Unlock()
	w.publish(events.BeatLinked, key.ChapterID, beatID)
	return nil
}

// UnlinkBeat clears a beat's linked scene.
func (w *Workspace) UnlinkBeat(ctx context.Context, beatID string) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.RLock()
	key, err := w.chapterKeyLocked()
	if err == nil && indexOfBeat(w.beats, beatID) < 0 {
		err = fmt.Errorf("beat %s: %w", beatID, common.ErrNotFound)
	}
	w.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := w.store.SetBeatLink(ctx, key, beatID, nil); err != nil {
		w.log.Error("unlinking beat failed", "beat_id", beatID, "error", err)
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
	return nil
}

// ReorderResult reports what a reorder wrote.
type ReorderResult struct {
	Plan reorder.Plan
	// Reloaded is set when the write failed and the chapter was then
	// reloaded from the store.
	Reloaded bool
}

// ReorderScenes moves the scene at dragIndex to dropIndex. Linked beats
// follow their scenes. The mirror is updated before the batch is written;
// when the write fails the chapter is reloaded and the write error returned.
// Once the batch is committed the reorder has succeeded, even if the beat
// refetch that follows fails.
func (w *Workspace) ReorderScenes(ctx context.Context, dragIndex, dropIndex int) (ReorderResult, error) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.Lock()
	key, err := w.chapterKeyLocked()
	if err != nil {
		w.mu.Unlock()
		return ReorderResult{}, err
	}
	moved, err := reorder.Move(w.scenes, dragIndex, dropIndex)
	if err != nil {
		w.mu.Unlock()
		return ReorderResult{}, err
	}
	plan := reorder.PlanOrder(moved, w.beats)
	w.scenes, w.beats = reorder.Apply(plan, moved, w.beats)
	sortBeats(w.beats)
	seq := w.loadSeq
	selected := *w.selected
	w.mu.Unlock()

	res := ReorderResult{Plan: plan}
	if err := w.store.ApplyOrder(ctx, key, plan); err != nil {
		w.log.Error("writing scene order failed", "chapter_id", key.ChapterID, "error", err)
		if rerr := w.LoadChapter(ctx, &selected); rerr != nil {
			w.log.Warn("reloading chapter after reorder failure failed", "chapter_id", key.ChapterID, "error", rerr)
		} else {
			res.Reloaded = true
		}
		return res, common.WriteFailed("reorder scenes", err)
	}

	w.publish(events.ScenesReordered, key.ChapterID, "")
	if err := w.refetchBeats(ctx, key, seq); err != nil {
		w.log.Warn("refetching beats after reorder failed", "chapter_id", key.ChapterID, "error", err)
	}
	return res, nil
}
