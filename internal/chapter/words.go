package chapter

import (
	"context"
	"time"

	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/manuscript"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/store"
)

// RefreshWordCount recomputes the project's word count over all chapters
// and stores it along with the edit time.
func (w *Workspace) RefreshWordCount(ctx context.Context) (int, error) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.refreshWordCount(ctx)
}

func (w *Workspace) refreshWordCount(ctx context.Context) (int, error) {
	w.mu.RLock()
	chapters := append([]model.Chapter(nil), w.chapters...)
	var selectedID string
	if w.selected != nil {
		selectedID = w.selected.ID
	}
	selectedScenes := append([]model.Scene(nil), w.scenes...)
	w.mu.RUnlock()

	total := 0
	for _, c := range chapters {
		if c.ID == selectedID {
			total += manuscript.ChapterWords(selectedScenes)
			continue
		}
		scenes, err := w.store.ListScenes(ctx, store.ChapterKey{ProjectKey: w.project, ChapterID: c.ID})
		if err != nil {
			return 0, common.ReadFailed("list scenes", err)
		}
		total += manuscript.ChapterWords(scenes)
	}

	now := time.Now().UTC()
	if err := w.store.UpdateProject(ctx, w.project, store.ProjectUpdate{
		CurrentWordCount: &total,
		LastEdited:       &now,
	}); err != nil {
		return total, common.WriteFailed("update word count", err)
	}
	return total, nil
}
