package reorder

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/model"
)

func ptr(s string) *string { return &s }

func scenes(ids ...string) []model.Scene {
	out := make([]model.Scene, len(ids))
	for i, id := range ids {
		out[i] = model.Scene{ID: id, OrderIndex: int64(i)}
	}
	return out
}

func beatIndex(plan Plan, id string) int64 {
	for _, a := range plan.Beats {
		if a.ID == id {
			return a.OrderIndex
		}
	}
	return -1
}

func TestMove(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"last to first", 2, 0, []string{"c", "a", "b"}},
		{"first to last", 0, 2, []string{"b", "c", "a"}},
		{"middle down", 1, 2, []string{"a", "c", "b"}},
		{"no-op", 1, 1, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []string{"a", "b", "c"}
			got, err := Move(in, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{"a", "b", "c"}, in)
		})
	}

	_, err := Move([]string{"a"}, 1, 0)
	assert.True(t, common.IsValidation(err))
	_, err = Move([]string{"a", "b"}, 0, 2)
	assert.True(t, common.IsValidation(err))
	_, err = Move([]string{}, 0, 0)
	assert.Error(t, err)
}

func TestPlanAlignsLinkedBeatWithScene(t *testing.T) {
	t.Parallel()
	moved, err := Move(scenes("S0", "S1", "S2"), 2, 0)
	require.NoError(t, err)

	plan := PlanOrder(moved, []model.Beat{{ID: "Bx", LinkedSceneID: ptr("S2")}})
	assert.Equal(t, []Assignment{{"S2", 0}, {"S0", 1}, {"S1", 2}}, plan.Scenes)
	assert.Equal(t, int64(0), beatIndex(plan, "Bx"))
}

func TestPlanUnlinkedBeatsTrail(t *testing.T) {
	t.Parallel()
	beats := []model.Beat{
		{ID: "B0", LinkedSceneID: ptr("S1")},
		{ID: "B1"},
		{ID: "B2", LinkedSceneID: ptr("")},
	}
	for _, order := range [][2]int{{0, 1}, {1, 0}, {0, 0}} {
		moved, err := Move(scenes("S0", "S1"), order[0], order[1])
		require.NoError(t, err)
		plan := PlanOrder(moved, beats)

		b1, b2 := beatIndex(plan, "B1"), beatIndex(plan, "B2")
		assert.GreaterOrEqual(t, b1, int64(2))
		assert.GreaterOrEqual(t, b2, int64(2))
		assert.Less(t, b1, b2)
	}
}

func TestPlanTreatsDanglingLinkAsUnlinked(t *testing.T) {
	t.Parallel()
	plan := PlanOrder(scenes("S0"), []model.Beat{{ID: "B0", LinkedSceneID: ptr("gone")}, {ID: "B1"}})
	assert.Equal(t, int64(1), beatIndex(plan, "B0"))
	assert.Equal(t, int64(2), beatIndex(plan, "B1"))
}

func TestPlanLinkedBeatsMatchScenePositions(t *testing.T) {
	t.Parallel()
	sc := scenes("a", "b", "c", "d", "e")
	beats := []model.Beat{
		{ID: "x", LinkedSceneID: ptr("e")},
		{ID: "y", LinkedSceneID: ptr("a")},
		{ID: "z"},
		{ID: "w", LinkedSceneID: ptr("c")},
	}
	for from := range sc {
		for to := range sc {
			moved, err := Move(sc, from, to)
			require.NoError(t, err)
			plan := PlanOrder(moved, beats)
			newS, newB := Apply(plan, moved, beats)

			pos := map[string]int64{}
			for _, s := range newS {
				pos[s.ID] = s.OrderIndex
			}
			for _, b := range newB {
				if b.IsLinked() {
					assert.Equal(t, pos[*b.LinkedSceneID], b.OrderIndex)
				} else {
					assert.GreaterOrEqual(t, b.OrderIndex, int64(len(sc)))
				}
			}
			assert.True(t, sort.SliceIsSorted(newS, func(i, j int) bool { return newS[i].OrderIndex < newS[j].OrderIndex }))
		}
	}
}

func TestCheckLink(t *testing.T) {
	t.Parallel()
	beats := []model.Beat{{ID: "b1", LinkedSceneID: ptr("s1")}, {ID: "b2"}}

	err := CheckLink(beats, "b2", "s1")
	require.Error(t, err)
	var ce *common.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "b1", ce.OtherBeatID)

	assert.NoError(t, CheckLink(beats, "b1", "s1"))
	assert.NoError(t, CheckLink(beats, "b2", "s2"))
	assert.Equal(t, []string{"b1"}, LinkedBeats(beats, "s1"))
}
