package chapter

import (
	"context"

	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/manuscript"
	"github.com/nhle/novelstudio/internal/store"
)

// Manuscript composes the selected chapter with its comments and
// highlights.
func (w *Workspace) Manuscript(ctx context.Context) (manuscript.Chapter, error) {
	ch, ok := w.Selected()
	if !ok {
		return manuscript.Chapter{}, common.ErrNoChapter
	}
	comments, highlights, err := w.Annotations(ctx)
	if err != nil {
		return manuscript.Chapter{}, err
	}
	number := manuscript.ChapterNumber(w.Chapters(), ch.ID)
	return manuscript.Compose(ch, number, w.Scenes(), comments, highlights), nil
}

// ExportManuscript renders the selected chapter or the whole novel as
// plain text and returns it with a suggested file name.
func (w *Workspace) ExportManuscript(ctx context.Context, scope string) (text, fileName string, err error) {
	switch scope {
	case manuscript.ScopeChapter, "":
		ch, ok := w.Selected()
		if !ok {
			return "", "", common.ErrNoChapter
		}
		number := manuscript.ChapterNumber(w.Chapters(), ch.ID)
		return manuscript.ExportChapter(ch.Title, w.Scenes(), number), manuscript.FileName(manuscript.ScopeChapter, ch.Title), nil

	case manuscript.ScopeNovel:
		selected, _ := w.Selected()
		selectedScenes := w.Scenes()
		chapters := w.Chapters()
		parts := make([]manuscript.ChapterScenes, 0, len(chapters))
		for _, ch := range chapters {
			if ch.ID == selected.ID {
				parts = append(parts, manuscript.ChapterScenes{Chapter: ch, Scenes: selectedScenes})
				continue
			}
			scenes, err := w.store.ListScenes(ctx, store.ChapterKey{ProjectKey: w.project, ChapterID: ch.ID})
			if err != nil {
				w.log.Error("listing scenes for export failed", "chapter_id", ch.ID, "error", err)
				return "", "", common.ReadFailed("list scenes", err)
			}
			parts = append(parts, manuscript.ChapterScenes{Chapter: ch, Scenes: scenes})
		}
		return manuscript.ExportNovel(parts), manuscript.FileName(manuscript.ScopeNovel, ""), nil

	default:
		return "", "", &common.ValidationError{Field: "scope", Reason: "must be chapter or novel"}
	}
}
