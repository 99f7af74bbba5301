package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/docstore"
	"github.com/nhle/novelstudio/internal/model"
)

var newestFirst = docstore.OrderBy{Field: fCreatedAt, Desc: true}

func setComment(c *model.Comment, d docstore.Document)     { c.ID = d.ID }
func setHighlight(h *model.Highlight, d docstore.Document) { h.ID = d.ID }

// ListComments returns a chapter's comments, newest first.
func (s *DocStore) ListComments(ctx context.Context, key ChapterKey) ([]model.Comment, error) {
	docs, err := s.ds.List(ctx, chapterChild(key, colComments), newestFirst)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return decodeAll(docs, setComment)
}

// CreateComment attaches a comment to a scene of the chapter.
func (s *DocStore) CreateComment(ctx context.Context, key ChapterKey, c model.Comment) (*model.Comment, error) {
	if c.SceneID == "" {
		return nil, common.Required("sceneId")
	}
	if strings.TrimSpace(c.Text) == "" {
		return nil, common.Required("text")
	}
	if _, err := s.GetScene(ctx, key, c.SceneID); err != nil {
		return nil, err
	}

	col := chapterChild(key, colComments)
	id, err := s.ds.Create(ctx, col, map[string]any{
		fSceneID:   c.SceneID,
		fText:      c.Text,
		fSelection: c.Selection,
	})
	if err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}
	d, err := s.ds.Get(ctx, col.Doc(id))
	if err != nil {
		return nil, fmt.Errorf("getting comment %s: %w", id, err)
	}
	return decodeOne(d, setComment)
}

// DeleteComment removes a comment.
func (s *DocStore) DeleteComment(ctx context.Context, key ChapterKey, id string) error {
	if err := s.ds.Delete(ctx, chapterChild(key, colComments).Doc(id)); err != nil {
		return fmt.Errorf("deleting comment %s: %w", id, err)
	}
	return nil
}

// ListHighlights returns a chapter's highlights, newest first.
func (s *DocStore) ListHighlights(ctx context.Context, key ChapterKey) ([]model.Highlight, error) {
	docs, err := s.ds.List(ctx, chapterChild(key, colHighlights), newestFirst)
	if err != nil {
		return nil, fmt.Errorf("listing highlights: %w", err)
	}
	return decodeAll(docs, setHighlight)
}

// CreateHighlight stores a highlight. The color defaults to yellow.
func (s *DocStore) CreateHighlight(ctx context.Context, key ChapterKey, h model.Highlight) (*model.Highlight, error) {
	if h.SceneID == "" {
		return nil, common.Required("sceneId")
	}
	if h.Text == "" {
		return nil, common.Required("text")
	}
	if h.Color == "" {
		h.Color = model.HighlightYellow
	}
	if !model.ValidHighlightColor(h.Color) {
		return nil, &common.ValidationError{Field: "color", Reason: "must be yellow, green or pink"}
	}
	if _, err := s.GetScene(ctx, key, h.SceneID); err != nil {
		return nil, err
	}

	col := chapterChild(key, colHighlights)
	id, err := s.ds.Create(ctx, col, map[string]any{
		fSceneID: h.SceneID,
		fText:    h.Text,
		fColor:   h.Color,
		fStart:   h.Start,
		fEnd:     h.End,
	})
	if err != nil {
		return nil, fmt.Errorf("creating highlight: %w", err)
	}
	d, err := s.ds.Get(ctx, col.Doc(id))
	if err != nil {
		return nil, fmt.Errorf("getting highlight %s: %w", id, err)
	}
	return decodeOne(d, setHighlight)
}

// DeleteHighlight removes a highlight.
func (s *DocStore) DeleteHighlight(ctx context.Context, key ChapterKey, id string) error {
	if err := s.ds.Delete(ctx, chapterChild(key, colHighlights).Doc(id)); err != nil {
		return fmt.Errorf("deleting highlight %s: %w", id, err)
	}
	return nil
}
