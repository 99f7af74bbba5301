// Package manuscript assembles the read-only manuscript of a chapter: the
// published text of each scene in order, with comments and highlights
// attached, plus plain-text export and word counts.
package manuscript

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/version"
)

// EmptyScenePlaceholder stands in for a scene with no displayed text.
const EmptyScenePlaceholder = "[No content for this scene]"

// Segment is a run of scene text, highlighted when Color is set.
type Segment struct {
	Text        string
	HighlightID string
	Color       string
}

// Block is one scene of the manuscript.
type Block struct {
	Scene      model.Scene
	Number     int
	Title      string
	Text       string
	Empty      bool
	Words      int
	Segments   []Segment
	Comments   []model.Comment
	Highlights []model.Highlight
}

// Chapter is the composed manuscript of one chapter.
type Chapter struct {
	Chapter model.Chapter
	Number  int
	Blocks  []Block
	Words   int
}

// Compose builds the manuscript of a chapter. Scenes are taken in the order
// given; every scene gets a block even when it has no text.
func Compose(ch model.Chapter, number int, scenes []model.Scene, comments []model.Comment, highlights []model.Highlight) Chapter {
	out := Chapter{Chapter: ch, Number: number, Blocks: make([]Block, 0, len(scenes))}
	for i, sc := range scenes {
		d := version.DisplayContent(sc)
		b := Block{
			Scene:      sc,
			Number:     i + 1,
			Title:      d.Title,
			Text:       d.Text,
			Empty:      d.Text == "",
			Words:      WordCount(d.Text),
			Comments:   commentsFor(comments, sc.ID),
			Highlights: highlightsFor(highlights, sc.ID),
		}
		if b.Empty {
			b.Segments = []Segment{{Text: EmptyScenePlaceholder}}
		} else {
			b.Segments = Segments(d.Text, b.Highlights)
		}
		out.Words += b.Words
		out.Blocks = append(out.Blocks, b)
	}
	return out
}

func commentsFor(all []model.Comment, sceneID string) []model.Comment {
	var out []model.Comment
	for _, c := range all {
		if c.SceneID == sceneID {
			out = append(out, c)
		}
	}
	return out
}

func highlightsFor(all []model.Highlight, sceneID string) []model.Highlight {
	var out []model.Highlight
	for _, h := range all {
		if h.SceneID == sceneID {
			out = append(out, h)
		}
	}
	return out
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ChapterWords sums the displayed word counts of scenes.
func ChapterWords(scenes []model.Scene) int {
	n := 0
	for _, sc := range scenes {
		n += WordCount(version.DisplayContent(sc).Text)
	}
	return n
}

// LocateHighlight returns the rune offsets of the first occurrence of sub in
// text.
func LocateHighlight(text, sub string) (start, end int, ok bool) {
	if sub == "" {
		return 0, 0, false
	}
	i := strings.Index(text, sub)
	if i < 0 {
		return 0, 0, false
	}
	start = utf8.RuneCountInString(text[:i])
	return start, start + utf8.RuneCountInString(sub), true
}

type span struct {
	start, end int
	h          model.Highlight
}

func overlaps(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && s.start < end {
			return true
		}
	}
	return false
}

// Segments splits text into plain and highlighted runs. Highlights whose
// stored offsets still match the text are placed there; the rest take the
// first occurrence of their text not already covered. Overlapping
// highlights are skipped.
func Segments(text string, highlights []model.Highlight) []Segment {
	runes := []rune(text)
	var spans []span

	var fallback []model.Highlight
	for _, h := range highlights {
		if h.Text == "" {
			continue
		}
		if h.Start >= 0 && h.End > h.Start && h.End <= len(runes) && string(runes[h.Start:h.End]) == h.Text {
			if !overlaps(spans, h.Start, h.End) {
				spans = append(spans, span{h.Start, h.End, h})
			}
			continue
		}
		fallback = append(fallback, h)
	}

	for _, h := range fallback {
		needle := []rune(h.Text)
		for i := 0; i+len(needle) <= len(runes); i++ {
			if string(runes[i:i+len(needle)]) != h.Text {
				continue
			}
			if overlaps(spans, i, i+len(needle)) {
				continue
			}
			spans = append(spans, span{i, i + len(needle), h})
			break
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var out []Segment
	pos := 0
	for _, s := range spans {
		if s.start > pos {
			out = append(out, Segment{Text: string(runes[pos:s.start])})
		}
		color := s.h.Color
		if color == "" {
			color = model.HighlightYellow
		}
		out = append(out, Segment{Text: string(runes[s.start:s.end]), HighlightID: s.h.ID, Color: color})
		pos = s.end
	}
	if pos < len(runes) {
		out = append(out, Segment{Text: string(runes[pos:])})
	}
	return out
}
