package model

import (
	"math"
	"time"
)

// Project status values.
const (
	ProjectStatusPlanning   = "Planning"
	ProjectStatusInProgress = "In Progress"
	ProjectStatusCompleted  = "Completed"
)

// ValidProjectStatus reports whether s is one of the known project statuses.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusInProgress, ProjectStatusCompleted:
		return true
	}
	return false
}

// Project is a novel being written. It owns an ordered set of chapters.
type Project struct {
	ID               string    `json:"-"`
	Title            string    `json:"title"`
	Status           string    `json:"status"`
	GoalWordCount    int       `json:"goalWordCount"`
	CurrentWordCount int       `json:"currentWordCount"`
	LastEdited       time.Time `json:"lastEdited"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Progress returns the completion percentage toward the word goal, rounded
// to one decimal. A project without a goal reports 0.
func (p Project) Progress() float64 {
	if p.GoalWordCount <= 0 {
		return 0
	}
	pct := float64(p.CurrentWordCount) / float64(p.GoalWordCount) * 100
	return math.Round(pct*10) / 10
}
