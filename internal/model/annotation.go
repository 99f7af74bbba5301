package model

import "time"

// Highlight colors.
const (
	HighlightYellow = "yellow"
	HighlightGreen  = "green"
	HighlightPink   = "pink"
)

// ValidHighlightColor reports whether c is a supported highlight color.
func ValidHighlightColor(c string) bool {
	switch c {
	case HighlightYellow, HighlightGreen, HighlightPink:
		return true
	}
	return false
}

// Comment is a note attached to a selection of a scene's text.
type Comment struct {
	ID        string    `json:"-"`
	SceneID   string    `json:"sceneId"`
	Text      string    `json:"text"`
	Selection string    `json:"selection"`
	CreatedAt time.Time `json:"createdAt"`
}

// Highlight marks a substring of a scene's displayed text. Start and End are
// rune offsets captured when the highlight was made; End <= Start means the
// offsets are unknown and the text is located by search instead.
type Highlight struct {
	ID        string    `json:"-"`
	SceneID   string    `json:"sceneId"`
	Text      string    `json:"text"`
	Color     string    `json:"color"`
	Start     int       `json:"start"`
	End       int       `json:"end"`
	CreatedAt time.Time `json:"createdAt"`
}
