package editor

import (
	"context"
	"time"

	"github.com/nhle/novelstudio/internal/events"
	"github.com/nhle/novelstudio/internal/model"
)

// DefaultAutosaveInterval is the beat autosave period.
const DefaultAutosaveInterval = 10 * time.Second

// saveTimeout bounds a single autosave write.
const saveTimeout = 30 * time.Second

// Ticker delivers autosave ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// AutosaveResult reports one autosave attempt.
type AutosaveResult struct {
	BeatID string
	Err    error
}

// autosaveTimer is the ticker loop bound to one open beat. It lives from
// Open until the target changes or the session closes.
type autosaveTimer struct {
	gen    uint64
	ticker Ticker
	stopCh chan struct{}
}

// startAutosaveLocked starts the loop for the current target. It must be
// called with mu held after load.
func (s *Session) startAutosaveLocked() {
	if s.autosaveInterval <= 0 {
		return
	}
	t := &autosaveTimer{
		gen:    s.gen,
		ticker: s.newTicker(s.autosaveInterval),
		stopCh: make(chan struct{}),
	}
	s.timer = t
	go s.runAutosave(t)
}

// stopAutosaveLocked stops the running loop, if any. It does not wait for
// an in-flight save; that save is discarded by the generation check.
func (s *Session) stopAutosaveLocked() {
	if s.timer == nil {
		return
	}
	close(s.timer.stopCh)
	s.timer.ticker.Stop()
	s.timer = nil
}

func (s *Session) runAutosave(t *autosaveTimer) {
	for {
		select {
		case <-t.stopCh:
			return
		case <-t.ticker.C():
			select {
			case <-t.stopCh:
				return
			default:
			}
			s.autosave(t.gen)
		}
	}
}

// autosave saves the open beat when it is dirty and still the target the
// timer was started for.
func (s *Session) autosave(gen uint64) {
	s.mu.Lock()
	ok := s.gen == gen && s.kind == model.KindBeat && s.state == Dirty
	s.mu.Unlock()
	if !ok {
		return
	}

	d, err := s.capture()
	if err != nil || d.gen != gen {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	err = s.saveBeat(ctx, d, Autosaved)
	if err == nil {
		s.backend.Notify(events.BeatAutosaved, d.id)
	}
	s.sendResult(AutosaveResult{BeatID: d.id, Err: err})
}

// sendResult delivers a result without blocking.
func (s *Session) sendResult(r AutosaveResult) {
	select {
	case s.results <- r:
	default:
	}
}

// AutosaveResults returns the channel autosave results are sent on.
// Results are dropped when nobody reads them.
func (s *Session) AutosaveResults() <-chan AutosaveResult {
	return s.results
}

// Autosaving reports whether an autosave loop is running.
func (s *Session) Autosaving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}
