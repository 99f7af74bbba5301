package model

import "time"

// Beat is a story-structure note. It may be linked to at most one scene, and
// no two beats in a chapter may share a linked scene.
type Beat struct {
	ID            string    `json:"-"`
	ChapterID     string    `json:"-"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	OrderIndex    int64     `json:"orderIndex"`
	LinkedSceneID *string   `json:"linkedSceneId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// IsLinked reports whether the beat points at a scene.
func (b Beat) IsLinked() bool {
	return b.LinkedSceneID != nil && *b.LinkedSceneID != ""
}

// LinkedTo reports whether the beat is linked to the given scene.
func (b Beat) LinkedTo(sceneID string) bool {
	return b.IsLinked() && *b.LinkedSceneID == sceneID
}
