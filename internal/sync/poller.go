package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/novelstudio/internal/editor"
	"github.com/nhle/novelstudio/internal/events"
)

// WordCountMsg is a tea.Msg sent after the project word count was refreshed.
type WordCountMsg struct {
	Words int
	At    time.Time
	Err   error
}

// EventMsg is a tea.Msg carrying a studio change event.
type EventMsg struct {
	Event events.Event
}

// AutosaveMsg is a tea.Msg carrying the outcome of a beat autosave.
type AutosaveMsg struct {
	Result editor.AutosaveResult
}

// refreshTimeout is the maximum time allowed for a single word-count refresh.
const refreshTimeout = 30 * time.Second

// DefaultInterval is used when no refresh interval is configured.
const DefaultInterval = 2 * time.Minute

// Counter recomputes and stores the project word count.
type Counter interface {
	RefreshWordCount(ctx context.Context) (int, error)
}

// Poller funnels background activity into the Bubble Tea runtime: periodic
// word-count refreshes, bus events and autosave results.
type Poller struct {
	counter   Counter
	bus       *events.Bus
	autosave  <-chan editor.AutosaveResult
	interval  time.Duration
	resultCh  chan tea.Msg
	triggerCh chan struct{}
	stopCh    chan struct{}
	cancelSub func()
	mu        gosync.Mutex
	running   bool
	lastCount WordCountMsg
}

// Option configures a Poller.
type Option func(*Poller)

// WithBus forwards events published on the bus.
func WithBus(bus *events.Bus) Option {
	return func(p *Poller) { p.bus = bus }
}

// WithAutosave forwards results read from an editor session.
func WithAutosave(results <-chan editor.AutosaveResult) Option {
	return func(p *Poller) { p.autosave = results }
}

// WithInterval sets the word-count refresh interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// New creates a new Poller over the given counter.
func New(c Counter, opts ...Option) *Poller {
	p := &Poller{
		counter:   c,
		interval:  DefaultInterval,
		resultCh:  make(chan tea.Msg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start returns a tea.Cmd that starts the background goroutines and
// subscribes to their results.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	if p.bus != nil {
		ch, cancel := p.bus.Subscribe(32)
		p.cancelSub = cancel
		go p.forwardEvents(ch)
	}
	p.mu.Unlock()

	go p.pollWords()
	if p.autosave != nil {
		go p.forwardAutosave()
	}

	return p.waitForResult()
}

// Stop halts all polling goroutines.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	if p.cancelSub != nil {
		p.cancelSub()
	}
	p.running = false
}

// Refresh triggers an immediate word-count refresh.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// LastCount returns the most recent word-count result.
func (p *Poller) LastCount() WordCountMsg {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastCount
}

func (p *Poller) pollWords() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refresh()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.refresh()
		case <-p.triggerCh:
			p.refresh()
		}
	}
}

func (p *Poller) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	words, err := p.counter.RefreshWordCount(ctx)
	msg := WordCountMsg{Words: words, At: time.Now(), Err: err}

	p.mu.Lock()
	if err == nil {
		p.lastCount = msg
	}
	p.mu.Unlock()

	p.sendResult(msg)
}

func (p *Poller) forwardEvents(ch <-chan events.Event) {
	for e := range ch {
		p.sendResult(EventMsg{Event: e})
	}
}

func (p *Poller) forwardAutosave() {
	for {
		select {
		case <-p.stopCh:
			return
		case r := <-p.autosave:
			p.sendResult(AutosaveMsg{Result: r})
		}
	}
}

// sendResult queues a message without blocking.
func (p *Poller) sendResult(msg tea.Msg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next queued message.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-p.resultCh:
			return msg
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next message.
// Call it after handling a poller message to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
