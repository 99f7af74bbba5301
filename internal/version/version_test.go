package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/novelstudio/internal/model"
)

func sampleScene() model.Scene {
	return model.Scene{
		ID:              "s1",
		Title:           "Opening",
		Text:            "It was dark.",
		ActiveVersionID: model.BaseVersionID,
		Versions: []model.SceneVersion{
			{ID: "ver-2", Title: "Opening, again", Text: "It was very dark.", Label: "Version 3"},
			{ID: "ver-1", Title: "Opening redux", Text: "Dark it was."},
		},
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRefParsing(t *testing.T) {
	t.Parallel()
	assert.True(t, ParseRef("").IsBase())
	assert.True(t, ParseRef(model.BaseVersionID).IsBase())
	assert.Equal(t, model.BaseVersionID, Base().ID())

	r := ParseRef("ver-9")
	assert.False(t, r.IsBase())
	assert.Equal(t, "ver-9", r.String())
	assert.Equal(t, r, Stored("ver-9"))
}

func TestOptionsAlwaysStartWithBase(t *testing.T) {
	t.Parallel()
	for _, sc := range []model.Scene{{}, {Versions: []model.SceneVersion{}}, sampleScene()} {
		opts := Options(sc)
		require.NotEmpty(t, opts)
		assert.True(t, opts[0].Ref.IsBase())
		assert.Equal(t, BaseLabel, opts[0].Label)
		assert.Len(t, opts, len(sc.Versions)+1)
	}

	assert.Equal(t, DefaultSceneTitle, Options(model.Scene{})[0].Title)
	opts := Options(sampleScene())
	assert.Equal(t, "ver-2", opts[1].Ref.ID())
	assert.Equal(t, "ver-1", opts[2].Ref.ID())
}

func TestLabel(t *testing.T) {
	t.Parallel()
	sc := sampleScene()
	assert.Equal(t, "Version 1", Label(sc, Base()))
	assert.Equal(t, "Version 3", Label(sc, Stored("ver-2")))
	assert.Equal(t, "Opening redux", Label(sc, Stored("ver-1")))
	assert.Equal(t, "Version 1", Label(sc, Stored("missing")))

	sc.Versions[1].Title = ""
	assert.Equal(t, "Version 3", Label(sc, Stored("ver-1")))
}

func TestByIDRoundTrip(t *testing.T) {
	t.Parallel()
	sc := sampleScene()
	for _, opt := range Options(sc) {
		v, ok := ByID(sc, opt.Ref)
		require.True(t, ok, opt.Ref.ID())
		assert.Equal(t, opt, v)
	}
	_, ok := ByID(sc, Stored("gone"))
	assert.False(t, ok)
}

func TestActiveRepairsDanglingRef(t *testing.T) {
	t.Parallel()
	sc := sampleScene()
	sc.ActiveVersionID = "ver-1"
	assert.Equal(t, Stored("ver-1"), Active(sc))
	sc.ActiveVersionID = "deleted"
	assert.True(t, Active(sc).IsBase())
}

func TestDisplayContent(t *testing.T) {
	t.Parallel()

	sc := sampleScene()
	assert.Equal(t, Display{Title: "Opening", Text: "It was dark."}, DisplayContent(sc))

	sc.ActiveVersionID = "ver-1"
	assert.Equal(t, Display{Title: "Opening redux", Text: "Dark it was."}, DisplayContent(sc))

	sc.ManuscriptTitle = "Published"
	sc.ManuscriptText = "Published text."
	assert.Equal(t, Display{Title: "Published", Text: "Published text."}, DisplayContent(sc))

	sc = sampleScene()
	sc.ActiveVersionID = "deleted"
	assert.Equal(t, Display{Title: "Opening", Text: "It was dark."}, DisplayContent(sc))

	assert.Equal(t, Display{Title: DefaultSceneTitle}, DisplayContent(model.Scene{}))
}
