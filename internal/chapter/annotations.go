package chapter

import (
	"context"
	"fmt"

	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/manuscript"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/version"
)

// Annotations returns the comments and highlights of the selected chapter.
func (w *Workspace) Annotations(ctx context.Context) ([]model.Comment, []model.Highlight, error) {
	key, err := w.ChapterKey()
	if err != nil {
		return nil, nil, err
	}
	comments, err := w.store.ListComments(ctx, key)
	if err != nil {
		return nil, nil, common.ReadFailed("list comments", err)
	}
	highlights, err := w.store.ListHighlights(ctx, key)
	if err != nil {
		return nil, nil, common.ReadFailed("list highlights", err)
	}
	return comments, highlights, nil
}

// AddComment attaches a comment to a scene of the selected chapter.
func (w *Workspace) AddComment(ctx context.Context, sceneID, text, selection string) (*model.Comment, error) {
	key, err := w.ChapterKey()
	if err != nil {
		return nil, err
	}
	c, err := w.store.CreateComment(ctx, key, model.Comment{SceneID: sceneID, Text: text, Selection: selection})
	if err != nil {
		if common.IsValidation(err) || common.IsNotFound(err) {
			return nil, err
		}
		return nil, common.WriteFailed("create comment", err)
	}
	return c, nil
}

// AddHighlight marks text in a scene. The offsets are taken from the first
// occurrence of text in the scene's displayed content.
func (w *Workspace) AddHighlight(ctx context.Context, sceneID, text, color string) (*model.Highlight, error) {
	key, err := w.ChapterKey()
	if err != nil {
		return nil, err
	}
	sc, ok := w.Scene(sceneID)
	if !ok {
		return nil, fmt.Errorf("scene %s: %w", sceneID, common.ErrNotFound)
	}

	h := model.Highlight{SceneID: sceneID, Text: text, Color: color}
	if start, end, ok := manuscript.LocateHighlight(version.DisplayContent(sc).Text, text); ok {
		h.Start, h.End = start, end
	}
	out, err := w.store.CreateHighlight(ctx, key, h)
	if err != nil {
		if common.IsValidation(err) || common.IsNotFound(err) {
			return nil, err
		}
		return nil, common.WriteFailed("create highlight", err)
	}
	return out, nil
}

// DeleteComment removes a comment.
func (w *Workspace) DeleteComment(ctx context.Context, id string) error {
	key, err := w.ChapterKey()
	if err != nil {
		return err
	}
	if err := w.store.DeleteComment(ctx, key, id); err != nil {
		if common.IsNotFound(err) {
			return err
		}
		return common.WriteFailed("delete comment", err)
	}
	return nil
}

// DeleteHighlight removes a highlight.
func (w *Workspace) DeleteHighlight(ctx context.Context, id string) error {
	key, err := w.ChapterKey()
	if err != nil {
		return err
	}
	if err := w.store.DeleteHighlight(ctx, key, id); err != nil {
		if common.IsNotFound(err) {
			return err
		}
		return common.WriteFailed("delete highlight", err)
	}
	return nil
}
