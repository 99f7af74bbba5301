package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestContentHeight(t *testing.T) {
	assert.Equal(t, 38, NewLayout(120, 40).ContentHeight())
}

func TestHeaderKeepsStatusWhenNarrow(t *testing.T) {
	l := NewLayout(30, 10)
	out := l.RenderHeader("Novel Studio · A Very Long Novel Title Indeed", "120 words")

	assert.Contains(t, out, "120 words")
	assert.Contains(t, out, "…")
	assert.LessOrEqual(t, lipgloss.Width(out), 30)
}

func TestColumnWidths(t *testing.T) {
	assert.Equal(t, []int{36, 36, 38}, NewLayout(122, 40).ColumnWidths(3))
	assert.Equal(t, []int{10, 10}, NewLayout(20, 40).ColumnWidths(2))
	assert.Nil(t, NewLayout(20, 40).ColumnWidths(0))
}
