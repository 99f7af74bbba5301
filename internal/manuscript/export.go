package manuscript

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/version"
)

// DefaultChapterTitle is used in export headings for untitled chapters.
const DefaultChapterTitle = "Untitled Chapter"

// Export scopes.
const (
	ScopeChapter = "chapter"
	ScopeNovel   = "novel"
)

// ChapterScenes pairs a chapter with its scenes in display order.
type ChapterScenes struct {
	Chapter model.Chapter
	Scenes  []model.Scene
}

// ExportChapter renders a chapter as plain text: a heading, a blank line,
// then each scene's displayed text separated by blank lines. number is the
// 1-based chapter position; 0 omits the "Chapter N: " prefix.
func ExportChapter(title string, scenes []model.Scene, number int) string {
	if title == "" {
		title = DefaultChapterTitle
	}
	lines := make([]string, 0, 2*len(scenes)+2)
	if number > 0 {
		lines = append(lines, fmt.Sprintf("Chapter %d: %s", number, title))
	} else {
		lines = append(lines, title)
	}
	lines = append(lines, "")
	for i, sc := range scenes {
		lines = append(lines, version.DisplayContent(sc).Text)
		if i != len(scenes)-1 {
			lines = append(lines, "")
		}
	}
	return strings.Join(lines, "\n")
}

// SortChapters orders chapters by orderIndex, keeping the given order on ties.
func SortChapters(chapters []ChapterScenes) []ChapterScenes {
	out := append([]ChapterScenes(nil), chapters...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Chapter.OrderIndex < out[j].Chapter.OrderIndex
	})
	return out
}

// ExportNovel renders every chapter in orderIndex order, numbered from 1,
// separated by a blank line, with surrounding whitespace trimmed.
func ExportNovel(chapters []ChapterScenes) string {
	sorted := SortChapters(chapters)
	parts := make([]string, len(sorted))
	for i, c := range sorted {
		parts[i] = ExportChapter(c.Chapter.Title, c.Scenes, i+1)
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

// ChapterNumber returns the 1-based position of chapterID among chapters
// sorted by orderIndex, or 0 when absent.
func ChapterNumber(chapters []model.Chapter, chapterID string) int {
	sorted := append([]model.Chapter(nil), chapters...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OrderIndex < sorted[j].OrderIndex })
	for i, c := range sorted {
		if c.ID == chapterID {
			return i + 1
		}
	}
	return 0
}

// FileName returns a download name for an export.
func FileName(scope, chapterTitle string) string {
	if scope == ScopeNovel {
		return "novel.txt"
	}
	if chapterTitle == "" {
		chapterTitle = "chapter"
	}
	return chapterTitle + ".txt"
}
