package store

import (
	"context"
	"fmt"

	"github.com/nhle/novelstudio/internal/docstore"
	"github.com/nhle/novelstudio/internal/model"
)

func beatSetter(key ChapterKey) func(*model.Beat, docstore.Document) {
	return func(b *model.Beat, d docstore.Document) {
		b.ID = d.ID
		b.ChapterID = key.ChapterID
	}
}

// ListBeats returns a chapter's beats by ascending orderIndex.
func (s *DocStore) ListBeats(ctx context.Context, key ChapterKey) ([]model.Beat, error) {
	docs, err := s.ds.List(ctx, chapterChild(key, colBeats), docstore.OrderBy{Field: fOrderIndex})
	if err != nil {
		return nil, fmt.Errorf("listing beats: %w", err)
	}
	return decodeAll(docs, beatSetter(key))
}

// GetBeat returns one beat.
func (s *DocStore) GetBeat(ctx context.Context, key ChapterKey, id string) (*model.Beat, error) {
	d, err := s.ds.Get(ctx, chapterChild(key, colBeats).Doc(id))
	if err != nil {
		return nil, fmt.Errorf("getting beat %s: %w", id, err)
	}
	return decodeOne(d, beatSetter(key))
}

// CreateBeat inserts a beat.
func (s *DocStore) CreateBeat(ctx context.Context, key ChapterKey, beat model.Beat) (*model.Beat, error) {
	var linked any
	if beat.IsLinked() {
		linked = *beat.LinkedSceneID
	}
	id, err := s.ds.Create(ctx, chapterChild(key, colBeats), map[string]any{
		fTitle:         beat.Title,
		fDescription:   beat.Description,
		fOrderIndex:    beat.OrderIndex,
		fLinkedSceneID: linked,
	})
	if err != nil {
		return nil, fmt.Errorf("creating beat: %w", err)
	}
	return s.GetBeat(ctx, key, id)
}

// UpdateBeat updates the given fields of a beat.
func (s *DocStore) UpdateBeat(ctx context.Context, key ChapterKey, id string, upd BeatUpdate) error {
	patch := map[string]any{}
	if upd.Title != nil {
		patch[fTitle] = *upd.Title
	}
	if upd.Description != nil {
		patch[fDescription] = *upd.Description
	}
	if upd.OrderIndex != nil {
		patch[fOrderIndex] = *upd.OrderIndex
	}
	if len(patch) == 0 {
		return nil
	}
	if err := s.ds.Update(ctx, chapterChild(key, colBeats).Doc(id), patch); err != nil {
		return fmt.Errorf("updating beat %s: %w", id, err)
	}
	return nil
}

// SetBeatLink stores a beat's linked scene, or null when sceneID is nil.
func (s *DocStore) SetBeatLink(ctx context.Context, key ChapterKey, beatID string, sceneID *string) error {
	var v any
	if sceneID != nil {
		v = *sceneID
	}
	if err := s.ds.Update(ctx, chapterChild(key, colBeats).Doc(beatID), map[string]any{fLinkedSceneID: v}); err != nil {
		return fmt.Errorf("setting link of beat %s: %w", beatID, err)
	}
	return nil
}

// DeleteBeat removes a beat.
func (s *DocStore) DeleteBeat(ctx context.Context, key ChapterKey, id string) error {
	if err := s.ds.Delete(ctx, chapterChild(key, colBeats).Doc(id)); err != nil {
		return fmt.Errorf("deleting beat %s: %w", id, err)
	}
	return nil
}
