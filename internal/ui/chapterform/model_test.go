package chapterform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/novelstudio/internal/model"
)

func TestStartEditPrefills(t *testing.T) {
	m := New(80, 24)
	m.StartEdit(model.Chapter{ID: "c1", Title: "Storm", TargetWordCount: 3000})

	assert.True(t, m.editMode)
	assert.Equal(t, "Storm", m.fb.title)
	assert.Equal(t, StatusDraft, m.fb.status, "empty status defaults to draft")
	assert.Equal(t, "3000", m.fb.target)

	msg := m.handleSubmit()().(SubmittedMsg)
	assert.Equal(t, SubmittedMsg{ID: "c1", Title: "Storm", Status: StatusDraft, TargetWordCount: 3000}, msg)
	assert.Contains(t, m.View(), "Edit Chapter")
}

func TestStartCreateResets(t *testing.T) {
	m := New(80, 24)
	m.StartEdit(model.Chapter{ID: "c1", Title: "Storm", Status: StatusFinal})
	m.StartCreate("Chapter 2")

	assert.False(t, m.editMode)
	msg := m.handleSubmit()().(SubmittedMsg)
	assert.Equal(t, SubmittedMsg{Title: "Chapter 2", Status: StatusDraft}, msg)
	assert.Contains(t, m.View(), "New Chapter")
}
