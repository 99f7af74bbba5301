// Package reorder holds the pure part of scene reordering and beat linking:
// list moves, the order-index plan that keeps linked beats on their scene's
// row, and the one-beat-per-scene link check.
package reorder

import (
	"fmt"

	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/model"
)

// Move returns a copy of list with the element at from removed and
// reinserted at to. to is an index into the list after removal.
func Move[T any](list []T, from, to int) ([]T, error) {
	n := len(list)
	if from < 0 || from >= n {
		return nil, &common.ValidationError{Field: "dragIndex", Reason: fmt.Sprintf("out of range [0,%d)", n)}
	}
	if to < 0 || to >= n {
		return nil, &common.ValidationError{Field: "dropIndex", Reason: fmt.Sprintf("out of range [0,%d)", n)}
	}

	out := make([]T, 0, n)
	out = append(out, list[:from]...)
	out = append(out, list[from+1:]...)

	moved := list[from]
	out = append(out, moved)
	copy(out[to+1:], out[to:n-1])
	out[to] = moved
	return out, nil
}

// Assignment is a new order index for one scene or beat.
type Assignment struct {
	ID         string
	OrderIndex int64
}

// Plan is the set of order-index writes produced by a reorder.
type Plan struct {
	Scenes []Assignment
	Beats  []Assignment
}

// PlanOrder computes order indices for scenes already in their new order and
// for beats in their current order. Scene i gets i. A linked beat gets its
// scene's index. Beats that are unlinked, or linked to a scene not in the
// list, get len(scenes)+k in their existing relative order.
func PlanOrder(scenes []model.Scene, beats []model.Beat) Plan {
	plan := Plan{
		Scenes: make([]Assignment, len(scenes)),
		Beats:  make([]Assignment, 0, len(beats)),
	}

	pos := make(map[string]int64, len(scenes))
	for i, s := range scenes {
		pos[s.ID] = int64(i)
		plan.Scenes[i] = Assignment{ID: s.ID, OrderIndex: int64(i)}
	}

	next := int64(len(scenes))
	for _, b := range beats {
		if b.IsLinked() {
			if idx, ok := pos[*b.LinkedSceneID]; ok {
				plan.Beats = append(plan.Beats, Assignment{ID: b.ID, OrderIndex: idx})
				continue
			}
		}
		plan.Beats = append(plan.Beats, Assignment{ID: b.ID, OrderIndex: next})
		next++
	}
	return plan
}

// Apply returns copies of scenes and beats with the plan's indices written in.
// Entries the plan does not mention are left unchanged.
func Apply(plan Plan, scenes []model.Scene, beats []model.Beat) ([]model.Scene, []model.Beat) {
	sIdx := make(map[string]int64, len(plan.Scenes))
	for _, a := range plan.Scenes {
		sIdx[a.ID] = a.OrderIndex
	}
	bIdx := make(map[string]int64, len(plan.Beats))
	for _, a := range plan.Beats {
		bIdx[a.ID] = a.OrderIndex
	}

	outS := make([]model.Scene, len(scenes))
	for i, s := range scenes {
		if idx, ok := sIdx[s.ID]; ok {
			s.OrderIndex = idx
		}
		outS[i] = s
	}
	outB := make([]model.Beat, len(beats))
	for i, b := range beats {
		if idx, ok := bIdx[b.ID]; ok {
			b.OrderIndex = idx
		}
		outB[i] = b
	}
	return outS, outB
}

// CheckLink returns a ConflictError when a beat other than beatID is already
// linked to sceneID.
func CheckLink(beats []model.Beat, beatID, sceneID string) error {
	for _, b := range beats {
		if b.ID != beatID && b.LinkedTo(sceneID) {
			return &common.ConflictError{BeatID: beatID, SceneID: sceneID, OtherBeatID: b.ID}
		}
	}
	return nil
}

// LinkedBeats returns the ids of beats linked to sceneID.
func LinkedBeats(beats []model.Beat, sceneID string) []string {
	var ids []string
	for _, b := range beats {
		if b.LinkedTo(sceneID) {
			ids = append(ids, b.ID)
		}
	}
	return ids
}
