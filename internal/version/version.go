// Package version computes the selectable versions of a scene and the content
// that the manuscript shows for it. A scene's own title and text act as an
// implicit first version that is never stored in its versions list.
package version

import (
	"fmt"
	"time"

	"github.com/nhle/novelstudio/internal/model"
)

// DefaultSceneTitle is shown when a scene has no title.
const DefaultSceneTitle = "Untitled Scene"

// BaseLabel is the label of the implicit base version.
const BaseLabel = "Version 1"

// Ref names either the base version or a stored version. The zero value is
// the base version.
type Ref struct {
	id string
}

// Base returns the reference to the base version.
func Base() Ref { return Ref{} }

// Stored returns a reference to the stored version with the given id.
// The persisted base sentinel and the empty string map to Base.
func Stored(id string) Ref { return ParseRef(id) }

// ParseRef converts a persisted version id to a Ref.
func ParseRef(id string) Ref {
	if id == "" || id == model.BaseVersionID {
		return Ref{}
	}
	return Ref{id: id}
}

// IsBase reports whether r names the base version.
func (r Ref) IsBase() bool { return r.id == "" }

// ID returns the stored version id, or the persisted base sentinel.
func (r Ref) ID() string {
	if r.IsBase() {
		return model.BaseVersionID
	}
	return r.id
}

func (r Ref) String() string { return r.ID() }

// Version is one selectable version of a scene.
type Version struct {
	Ref       Ref
	Title     string
	Text      string
	Label     string
	CreatedAt time.Time
}

// Display is the title and text the manuscript shows for a scene.
type Display struct {
	Title string
	Text  string
}

func base(scene model.Scene) Version {
	return Version{
		Ref:       Base(),
		Title:     orDefault(scene.Title, DefaultSceneTitle),
		Text:      scene.Text,
		Label:     BaseLabel,
		CreatedAt: scene.CreatedAt,
	}
}

func stored(v model.SceneVersion) Version {
	return Version{
		Ref:       Ref{id: v.ID},
		Title:     v.Title,
		Text:      v.Text,
		Label:     v.Label,
		CreatedAt: v.CreatedAt,
	}
}

// Options returns the base version followed by the stored versions in
// stored order. The result is never empty.
func Options(scene model.Scene) []Version {
	out := make([]Version, 0, len(scene.Versions)+1)
	out = append(out, base(scene))
	for _, v := range scene.Versions {
		out = append(out, stored(v))
	}
	return out
}

// Label returns the label of the version named by ref, falling back to the
// base version when ref is unknown. Missing labels fall back to the title
// and then to "Version N".
func Label(scene model.Scene, ref Ref) string {
	opts := Options(scene)
	idx := 0
	for i, v := range opts {
		if v.Ref == ref {
			idx = i
			break
		}
	}
	v := opts[idx]
	switch {
	case v.Label != "":
		return v.Label
	case v.Title != "":
		return v.Title
	default:
		return fmt.Sprintf("Version %d", idx+1)
	}
}

// ByID returns the version named by ref. The base version always exists; a
// stored ref that no longer matches an entry reports false.
func ByID(scene model.Scene, ref Ref) (Version, bool) {
	switch {
	case ref.IsBase():
		return base(scene), true
	default:
		if i := scene.FindVersion(ref.id); i >= 0 {
			return stored(scene.Versions[i]), true
		}
		return Version{}, false
	}
}

// Active returns the ref stored as the scene's active version, repaired to
// Base when it points at a version that no longer exists.
func Active(scene model.Scene) Ref {
	ref := ParseRef(scene.ActiveVersionID)
	if _, ok := ByID(scene, ref); !ok {
		return Base()
	}
	return ref
}

// DisplayContent resolves what the manuscript shows for a scene. Published
// manuscript fields win, then the active stored version, then the base
// content. Empty strings count as missing.
func DisplayContent(scene model.Scene) Display {
	var active Version
	if ref := ParseRef(scene.ActiveVersionID); !ref.IsBase() {
		active, _ = ByID(scene, ref)
	}
	return Display{
		Title: firstNonEmpty(scene.ManuscriptTitle, active.Title, scene.Title, DefaultSceneTitle),
		Text:  firstNonEmpty(scene.ManuscriptText, active.Text, scene.Text),
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
