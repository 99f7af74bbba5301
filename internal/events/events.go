// Package events is a typed in-process publish/subscribe bus for studio
// changes. Publishing never blocks: a subscriber whose buffer is full misses
// the event.
package events

import (
	"sync"
	"time"
)

// Kind names a change.
type Kind string

const (
	ChaptersLoaded   Kind = "chapters.loaded"
	ChapterLoaded    Kind = "chapter.loaded"
	ChapterCreated   Kind = "chapter.created"
	ChapterDeleted   Kind = "chapter.deleted"
	SceneCreated     Kind = "scene.created"
	SceneUpdated     Kind = "scene.updated"
	SceneDeleted     Kind = "scene.deleted"
	BeatCreated      Kind = "beat.created"
	BeatUpdated      Kind = "beat.updated"
	BeatDeleted      Kind = "beat.deleted"
	BeatLinked       Kind = "beat.linked"
	BeatUnlinked     Kind = "beat.unlinked"
	ScenesReordered  Kind = "scenes.reordered"
	VersionSaved     Kind = "version.saved"
	VersionCreated   Kind = "version.created"
	VersionPublished Kind = "version.published"
	VersionDeleted   Kind = "version.deleted"
	BeatAutosaved    Kind = "beat.autosaved"
)

// Event describes one change.
type Event struct {
	Kind      Kind      `json:"kind"`
	UserID    string    `json:"-"`
	ProjectID string    `json:"projectId,omitempty"`
	ChapterID string    `json:"chapterId,omitempty"`
	ItemID    string    `json:"itemId,omitempty"`
	At        time.Time `json:"at"`
}

// Bus fans events out to subscribers.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// cancel func unregisters it and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers e to every subscriber with room for it. A nil bus drops
// the event.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
