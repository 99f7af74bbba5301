package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/novelstudio/internal/docstore"
	"github.com/nhle/novelstudio/internal/reorder"
)

// DocStore implements Store on top of a docstore backend.
type DocStore struct {
	ds docstore.Store
}

// New wraps a document store backend.
func New(ds docstore.Store) *DocStore {
	return &DocStore{ds: ds}
}

// Close closes the underlying backend.
func (s *DocStore) Close() error {
	return s.ds.Close()
}

// Documents exposes the underlying backend.
func (s *DocStore) Documents() docstore.Store {
	return s.ds
}

func stamp(t time.Time) string {
	return t.UTC().Format(docstore.TimeLayout)
}

func decodeAll[T any](docs []docstore.Document, set func(*T, docstore.Document)) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := d.Decode(&v); err != nil {
			return nil, err
		}
		set(&v, d)
		out = append(out, v)
	}
	return out, nil
}

func decodeOne[T any](d docstore.Document, set func(*T, docstore.Document)) (*T, error) {
	var v T
	if err := d.Decode(&v); err != nil {
		return nil, err
	}
	set(&v, d)
	return &v, nil
}

// ApplyOrder writes every scene and beat order index of the plan in one batch.
func (s *DocStore) ApplyOrder(ctx context.Context, key ChapterKey, plan reorder.Plan) error {
	writes := make([]docstore.Write, 0, len(plan.Scenes)+len(plan.Beats))
	for _, a := range plan.Scenes {
		writes = append(writes, docstore.Write{
			Path:  chapterChild(key, colScenes).Doc(a.ID),
			Patch: map[string]any{fOrderIndex: a.OrderIndex},
		})
	}
	for _, a := range plan.Beats {
		writes = append(writes, docstore.Write{
			Path:  chapterChild(key, colBeats).Doc(a.ID),
			Patch: map[string]any{fOrderIndex: a.OrderIndex},
		})
	}
	if err := s.ds.Commit(ctx, writes); err != nil {
		return fmt.Errorf("committing reorder of chapter %s: %w", key.ChapterID, err)
	}
	return nil
}
