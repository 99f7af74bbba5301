// Package chapter keeps the in-memory mirror of one project's chapters and
// of the scenes and beats of the selected chapter, and applies every
// mutation to the document store and the mirror together.
package chapter

import (
	"sort"
	"sync"

	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/events"
	"github.com/nhle/novelstudio/internal/logging"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/store"
)

// Workspace is the single in-memory source of truth for one project. Reads
// return copies. Mutations are serialised; chapter loads are not, and a load
// that finishes after a newer one was started is discarded.
type Workspace struct {
	store   store.Store
	project store.ProjectKey
	bus     *events.Bus
	log     *logging.Logger

	// writeMu serialises mutations so link checks and reorders see a
	// stable mirror.
	writeMu sync.Mutex

	mu       sync.RWMutex
	chapters []model.Chapter
	selected *model.Chapter
	scenes   []model.Scene
	beats    []model.Beat
	loadSeq  uint64
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithEventBus publishes changes to bus.
func WithEventBus(bus *events.Bus) Option {
	return func(w *Workspace) { w.bus = bus }
}

// WithLogger sets the logger used for caught remote failures.
func WithLogger(l *logging.Logger) Option {
	return func(w *Workspace) { w.log = l }
}

// New creates an empty workspace for a project. Call LoadChapters to fill it.
func New(s store.Store, project store.ProjectKey, opts ...Option) *Workspace {
	w := &Workspace{store: s, project: project, log: logging.Nop()}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Project returns the project key.
func (w *Workspace) Project() store.ProjectKey { return w.project }

// Store returns the repository the workspace writes to.
func (w *Workspace) Store() store.Store { return w.store }

// Chapters returns the chapters by ascending orderIndex.
func (w *Workspace) Chapters() []model.Chapter {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]model.Chapter(nil), w.chapters...)
}

// Selected returns the loaded chapter.
func (w *Workspace) Selected() (model.Chapter, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.selected == nil {
		return model.Chapter{}, false
	}
	return *w.selected, true
}

// Scenes returns the selected chapter's scenes in display order.
func (w *Workspace) Scenes() []model.Scene {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]model.Scene(nil), w.scenes...)
}

// Beats returns the selected chapter's beats in display order.
func (w *Workspace) Beats() []model.Beat {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]model.Beat(nil), w.beats...)
}

// Scene returns one scene of the selected chapter.
func (w *Workspace) Scene(id string) (model.Scene, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if i := indexOfScene(w.scenes, id); i >= 0 {
		return w.scenes[i], true
	}
	return model.Scene{}, false
}

// Beat returns one beat of the selected chapter.
func (w *Workspace) Beat(id string) (model.Beat, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if i := indexOfBeat(w.beats, id); i >= 0 {
		return w.beats[i], true
	}
	return model.Beat{}, false
}

// LinkedBeat returns the beat linked to a scene, if any.
func (w *Workspace) LinkedBeat(sceneID string) (model.Beat, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, b := range w.beats {
		if b.LinkedTo(sceneID) {
			return b, true
		}
	}
	return model.Beat{}, false
}

// ChapterKey returns the store key of the selected chapter.
func (w *Workspace) ChapterKey() (store.ChapterKey, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.chapterKeyLocked()
}

func (w *Workspace) chapterKeyLocked() (store.ChapterKey, error) {
	if w.selected == nil {
		return store.ChapterKey{}, common.ErrNoChapter
	}
	return store.ChapterKey{ProjectKey: w.project, ChapterID: w.selected.ID}, nil
}

func (w *Workspace) isSelected(chapterID string) bool {
	return w.selected != nil && w.selected.ID == chapterID
}

func (w *Workspace) publish(kind events.Kind, chapterID, itemID string) {
	w.bus.Publish(events.Event{
		Kind:      kind,
		UserID:    w.project.UserID,
		ProjectID: w.project.ProjectID,
		ChapterID: chapterID,
		ItemID:    itemID,
	})
}

func indexOfScene(scenes []model.Scene, id string) int {
	for i, s := range scenes {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func indexOfBeat(beats []model.Beat, id string) int {
	for i, b := range beats {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func sortChapters(cs []model.Chapter) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].OrderIndex < cs[j].OrderIndex })
}

func sortBeats(bs []model.Beat) {
	sort.SliceStable(bs, func(i, j int) bool { return bs[i].OrderIndex < bs[j].OrderIndex })
}

// Notify publishes an event about an item of the selected chapter. It lets
// collaborators such as the editor report changes they drive.
func (w *Workspace) Notify(kind events.Kind, itemID string) {
	w.mu.RLock()
	var chapterID string
	if w.selected != nil {
		chapterID = w.selected.ID
	}
	w.mu.RUnlock()
	w.publish(kind, chapterID, itemID)
}
