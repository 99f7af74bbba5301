package model

import "time"

// BaseVersionID is the persisted sentinel naming a scene's own title/text.
const BaseVersionID = "base-version"

// SceneVersion is an alternate draft stored inside its scene. The ID is
// unique within the owning scene only.
type SceneVersion struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Scene is a unit of prose. Title and Text hold the base content; Versions
// holds alternate drafts, most recently created first.
type Scene struct {
	ID        string `json:"-"`
	ChapterID string `json:"-"`

	Title      string `json:"title"`
	Text       string `json:"text"`
	OrderIndex int64  `json:"orderIndex"`

	// ActiveVersionID is BaseVersionID or the id of an entry in Versions.
	ActiveVersionID string         `json:"activeVersionId"`
	Versions        []SceneVersion `json:"versions"`

	// ManuscriptTitle and ManuscriptText mirror the published version.
	ManuscriptTitle string `json:"manuscriptTitle,omitempty"`
	ManuscriptText  string `json:"manuscriptText,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FindVersion returns the index of the stored version with the given id,
// or -1.
func (s Scene) FindVersion(id string) int {
	for i, v := range s.Versions {
		if v.ID == id {
			return i
		}
	}
	return -1
}
