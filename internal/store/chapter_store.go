package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/docstore"
	"github.com/nhle/novelstudio/internal/model"
)

func chapterSetter(key ProjectKey) func(*model.Chapter, docstore.Document) {
	return func(c *model.Chapter, d docstore.Document) {
		c.ID = d.ID
		c.ProjectID = key.ProjectID
	}
}

// ListChapters returns a project's chapters by ascending orderIndex.
func (s *DocStore) ListChapters(ctx context.Context, key ProjectKey) ([]model.Chapter, error) {
	docs, err := s.ds.List(ctx, chaptersPath(key), docstore.OrderBy{Field: fOrderIndex})
	if err != nil {
		return nil, fmt.Errorf("listing chapters: %w", err)
	}
	return decodeAll(docs, chapterSetter(key))
}

// GetChapter returns one chapter.
func (s *DocStore) GetChapter(ctx context.Context, key ChapterKey) (*model.Chapter, error) {
	d, err := s.ds.Get(ctx, chapterPath(key))
	if err != nil {
		return nil, fmt.Errorf("getting chapter %s: %w", key.ChapterID, err)
	}
	return decodeOne(d, chapterSetter(key.ProjectKey))
}

// CreateChapter inserts a chapter with the given orderIndex.
func (s *DocStore) CreateChapter(ctx context.Context, key ProjectKey, chapter model.Chapter) (*model.Chapter, error) {
	if strings.TrimSpace(chapter.Title) == "" {
		return nil, common.Required("title")
	}
	data := map[string]any{
		fTitle:           strings.TrimSpace(chapter.Title),
		fOrderIndex:      chapter.OrderIndex,
		fTargetWordCount: chapter.TargetWordCount,
	}
	if chapter.Status != "" {
		data[fStatus] = chapter.Status
	}
	id, err := s.ds.Create(ctx, chaptersPath(key), data)
	if err != nil {
		return nil, fmt.Errorf("creating chapter: %w", err)
	}
	return s.GetChapter(ctx, ChapterKey{ProjectKey: key, ChapterID: id})
}

// UpdateChapter updates the given fields of a chapter.
func (s *DocStore) UpdateChapter(ctx context.Context, key ChapterKey, upd ChapterUpdate) error {
	patch := map[string]any{}
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return common.Required("title")
		}
		patch[fTitle] = strings.TrimSpace(*upd.Title)
	}
	if upd.Status != nil {
		patch[fStatus] = *upd.Status
	}
	if upd.OrderIndex != nil {
		patch[fOrderIndex] = *upd.OrderIndex
	}
	if upd.TargetWordCount != nil {
		patch[fTargetWordCount] = *upd.TargetWordCount
	}
	if len(patch) == 0 {
		return nil
	}
	if err := s.ds.Update(ctx, chapterPath(key), patch); err != nil {
		return fmt.Errorf("updating chapter %s: %w", key.ChapterID, err)
	}
	return nil
}

// DeleteChapter removes a chapter and everything it owns.
func (s *DocStore) DeleteChapter(ctx context.Context, key ChapterKey) error {
	if err := s.ds.Delete(ctx, chapterPath(key)); err != nil {
		return fmt.Errorf("deleting chapter %s: %w", key.ChapterID, err)
	}
	return nil
}
