package store

import (
	"context"
	"fmt"

	"github.com/nhle/novelstudio/internal/docstore"
	"github.com/nhle/novelstudio/internal/model"
)

func sceneSetter(key ChapterKey) func(*model.Scene, docstore.Document) {
	return func(sc *model.Scene, d docstore.Document) {
		sc.ID = d.ID
		sc.ChapterID = key.ChapterID
	}
}

// ListScenes returns a chapter's scenes by ascending orderIndex.
func (s *DocStore) ListScenes(ctx context.Context, key ChapterKey) ([]model.Scene, error) {
	docs, err := s.ds.List(ctx, chapterChild(key, colScenes), docstore.OrderBy{Field: fOrderIndex})
	if err != nil {
		return nil, fmt.Errorf("listing scenes: %w", err)
	}
	return decodeAll(docs, sceneSetter(key))
}

// GetScene returns one scene.
func (s *DocStore) GetScene(ctx context.Context, key ChapterKey, id string) (*model.Scene, error) {
	d, err := s.ds.Get(ctx, chapterChild(key, colScenes).Doc(id))
	if err != nil {
		return nil, fmt.Errorf("getting scene %s: %w", id, err)
	}
	return decodeOne(d, sceneSetter(key))
}

// CreateScene inserts a scene. An empty activeVersionId is stored as the
// base sentinel.
func (s *DocStore) CreateScene(ctx context.Context, key ChapterKey, scene model.Scene) (*model.Scene, error) {
	if scene.ActiveVersionID == "" {
		scene.ActiveVersionID = model.BaseVersionID
	}
	versions := scene.Versions
	if versions == nil {
		versions = []model.SceneVersion{}
	}
	data := map[string]any{
		fTitle:           scene.Title,
		fText:            scene.Text,
		fOrderIndex:      scene.OrderIndex,
		fActiveVersionID: scene.ActiveVersionID,
		fVersions:        versions,
	}
	if scene.ManuscriptTitle != "" {
		data[fManuscriptTitle] = scene.ManuscriptTitle
	}
	if scene.ManuscriptText != "" {
		data[fManuscriptText] = scene.ManuscriptText
	}

	id, err := s.ds.Create(ctx, chapterChild(key, colScenes), data)
	if err != nil {
		return nil, fmt.Errorf("creating scene: %w", err)
	}
	return s.GetScene(ctx, key, id)
}

func (u SceneUpdate) patch() map[string]any {
	p := map[string]any{}
	if u.Title != nil {
		p[fTitle] = *u.Title
	}
	if u.Text != nil {
		p[fText] = *u.Text
	}
	if u.OrderIndex != nil {
		p[fOrderIndex] = *u.OrderIndex
	}
	if u.ActiveVersionID != nil {
		p[fActiveVersionID] = *u.ActiveVersionID
	}
	if u.Versions != nil {
		vs := *u.Versions
		if vs == nil {
			vs = []model.SceneVersion{}
		}
		p[fVersions] = vs
	}
	if u.ManuscriptTitle != nil {
		p[fManuscriptTitle] = *u.ManuscriptTitle
	}
	if u.ManuscriptText != nil {
		p[fManuscriptText] = *u.ManuscriptText
	}
	return p
}

// UpdateScene updates the given fields of a scene.
func (s *DocStore) UpdateScene(ctx context.Context, key ChapterKey, id string, upd SceneUpdate) error {
	patch := upd.patch()
	if len(patch) == 0 {
		return nil
	}
	if err := s.ds.Update(ctx, chapterChild(key, colScenes).Doc(id), patch); err != nil {
		return fmt.Errorf("updating scene %s: %w", id, err)
	}
	return nil
}

// DeleteScene removes a scene. Callers unlink beats first.
func (s *DocStore) DeleteScene(ctx context.Context, key ChapterKey, id string) error {
	if err := s.ds.Delete(ctx, chapterChild(key, colScenes).Doc(id)); err != nil {
		return fmt.Errorf("deleting scene %s: %w", id, err)
	}
	return nil
}
