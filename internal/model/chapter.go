package model

import "time"

// Chapter groups scenes, beats, comments and highlights within a project.
// OrderIndex is a sort key and is not required to be contiguous.
type Chapter struct {
	ID              string    `json:"-"`
	ProjectID       string    `json:"-"`
	Title           string    `json:"title"`
	OrderIndex      int64     `json:"orderIndex"`
	Status          string    `json:"status,omitempty"`
	TargetWordCount int       `json:"targetWordCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
