// Package editor holds the editable draft of one scene or beat, its save
// state, and the version operations a scene supports.
package editor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/events"
	"github.com/nhle/novelstudio/internal/logging"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/store"
	"github.com/nhle/novelstudio/internal/version"
)

// DefaultBeatTitle is shown for a beat with an empty title.
const DefaultBeatTitle = "Untitled Beat"

// State is the save state of the open draft.
type State int

const (
	Idle State = iota
	Clean
	Dirty
	Saved
	Autosaved
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case Saved:
		return "saved"
	case Autosaved:
		return "autosaved"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Backend reads and writes the items the editor works on. It is satisfied
// by *chapter.Workspace.
type Backend interface {
	Scene(id string) (model.Scene, bool)
	Beat(id string) (model.Beat, bool)
	UpdateScene(ctx context.Context, id string, upd store.SceneUpdate) error
	UpdateBeat(ctx context.Context, id string, upd store.BeatUpdate) error
	Notify(kind events.Kind, itemID string)
}

// Snapshot is a copy of the session's visible state.
type Snapshot struct {
	Kind      model.ItemKind
	ItemID    string
	VersionID string
	Title     string
	Body      string
	State     State
	// Err is the last write failure, cleared by the next successful save
	// or by opening another item.
	Err error
}

// Open reports whether an item is loaded.
func (s Snapshot) Open() bool { return s.State != Idle }

// Session is one editor slot. All methods are safe for concurrent use.
type Session struct {
	backend Backend
	log     *logging.Logger
	now     func() time.Time

	autosaveInterval time.Duration
	newTicker        func(time.Duration) Ticker
	results          chan AutosaveResult

	// saveMu serialises writes so a manual save and an autosave of the same
	// draft never interleave.
	saveMu sync.Mutex

	mu      sync.Mutex
	kind    model.ItemKind
	id      string
	ref     version.Ref
	title   string
	body    string
	state   State
	err     error
	gen     uint64
	rev     uint64
	timer   *autosaveTimer
	savedAt time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for write failures.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithAutosaveInterval sets the beat autosave period.
func WithAutosaveInterval(d time.Duration) Option {
	return func(s *Session) { s.autosaveInterval = d }
}

// WithTicker replaces the ticker used by autosave.
func WithTicker(f func(time.Duration) Ticker) Option {
	return func(s *Session) { s.newTicker = f }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession creates an idle session over backend.
func NewSession(backend Backend, opts ...Option) *Session {
	s := &Session{
		backend:          backend,
		log:              logging.Nop(),
		now:              time.Now,
		autosaveInterval: DefaultAutosaveInterval,
		newTicker:        newTimeTicker,
		results:          make(chan AutosaveResult, 16),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Snapshot returns the current draft and state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Kind:   s.kind,
		ItemID: s.id,
		Title:  s.title,
		Body:   s.body,
		State:  s.state,
		Err:    s.err,
	}
	if s.kind == model.KindScene {
		snap.VersionID = s.ref.ID()
	}
	return snap
}

// Open loads an item into the editor, discarding any unsaved draft. For a
// scene, versionID picks the version to edit; when empty the scene's
// active version is used. An unknown version id falls back to the base.
func (s *Session) Open(kind model.ItemKind, id, versionID string) error {
	switch kind {
	case model.KindScene:
		sc, ok := s.backend.Scene(id)
		if !ok {
			return fmt.Errorf("scene %s: %w", id, common.ErrNotFound)
		}
		ref := version.Active(sc)
		if versionID != "" {
			ref = version.ParseRef(versionID)
		}
		v, ok := version.ByID(sc, ref)
		if !ok {
			v, _ = version.ByID(sc, version.Base())
		}

		s.mu.Lock()
		s.load(kind, id)
		s.ref = v.Ref
		s.title = firstNonEmpty(v.Title, sc.Title, version.DefaultSceneTitle)
		s.body = firstNonEmpty(v.Text, sc.Text)
		s.mu.Unlock()

	case model.KindBeat:
		b, ok := s.backend.Beat(id)
		if !ok {
			return fmt.Errorf("beat %s: %w", id, common.ErrNotFound)
		}

		s.mu.Lock()
		s.load(kind, id)
		s.title = firstNonEmpty(b.Title, DefaultBeatTitle)
		s.body = b.Description
		s.startAutosaveLocked()
		s.mu.Unlock()

	default:
		return &common.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown item kind %q", kind)}
	}
	return nil
}

// load resets the slot for a new target. It must be called with mu held.
func (s *Session) load(kind model.ItemKind, id string) {
	s.stopAutosaveLocked()
	s.gen++
	s.rev = 0
	s.kind = kind
	s.id = id
	s.ref = version.Base()
	s.state = Clean
	s.err = nil
}

// SelectVersion reopens the current scene on another version.
func (s *Session) SelectVersion(versionID string) error {
	s.mu.Lock()
	kind, id := s.kind, s.id
	s.mu.Unlock()
	if kind != model.KindScene {
		return common.ErrNoEditorTarget
	}
	return s.Open(kind, id, versionID)
}

// Close unloads the editor and stops autosave. Owners call it when the
// open item is deleted or the chapter changes.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopAutosaveLocked()
	s.gen++
	s.kind = ""
	s.id = ""
	s.ref = version.Base()
	s.title = ""
	s.body = ""
	s.state = Idle
	s.err = nil
}

// CloseIf closes the editor when it is open on the given item.
func (s *Session) CloseIf(id string) {
	s.mu.Lock()
	open := s.state != Idle && s.id == id
	s.mu.Unlock()
	if open {
		s.Close()
	}
}

// SetTitle replaces the draft title and marks the draft dirty.
func (s *Session) SetTitle(title string) {
	s.edit(func() { s.title = title })
}

// SetBody replaces the draft text and marks the draft dirty.
func (s *Session) SetBody(body string) {
	s.edit(func() { s.body = body })
}

func (s *Session) edit(apply func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Idle {
		return
	}
	apply()
	s.rev++
	s.state = Dirty
}

// draft is what a save writes, captured under mu.
type draft struct {
	kind  model.ItemKind
	id    string
	ref   version.Ref
	title string
	body  string
	gen   uint64
	rev   uint64
}

func (s *Session) capture() (draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Idle {
		return draft{}, common.ErrNoEditorTarget
	}
	return draft{
		kind:  s.kind,
		id:    s.id,
		ref:   s.ref,
		title: s.title,
		body:  s.body,
		gen:   s.gen,
		rev:   s.rev,
	}, nil
}

// finish records the outcome of a write of d. Edits made while the write
// was in flight keep the draft dirty.
func (s *Session) finish(d draft, state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != d.gen {
		return
	}
	if err != nil {
		s.err = err
		s.state = Dirty
		return
	}
	s.err = nil
	if s.rev != d.rev {
		s.state = Dirty
		return
	}
	s.state = state
	s.savedAt = s.now()
}

// Save writes the draft: the edited version for a scene, or the title and
// description for a beat.
func (s *Session) Save(ctx context.Context) error {
	d, err := s.capture()
	if err != nil {
		return err
	}
	if d.kind == model.KindScene {
		return s.SaveCurrentVersion(ctx)
	}
	return s.saveBeat(ctx, d, Saved)
}

func (s *Session) saveBeat(ctx context.Context, d draft, state State) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	err := s.backend.UpdateBeat(ctx, d.id, store.BeatUpdate{Title: &d.title, Description: &d.body})
	if err != nil {
		s.log.Error("saving beat failed", "beat_id", d.id, "error", err)
	}
	s.finish(d, state, err)
	return err
}

// Settle turns a transient saved or autosaved state back into clean once
// delay has passed since the save.
func (s *Session) Settle(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if (s.state == Saved || s.state == Autosaved) && s.now().Sub(s.savedAt) >= delay {
		s.state = Clean
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
