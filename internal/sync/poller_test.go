package sync_test

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/novelstudio/internal/editor"
	"github.com/nhle/novelstudio/internal/events"
	studiosync "github.com/nhle/novelstudio/internal/sync"
)

type fakeCounter struct {
	words int
	err   error
	calls chan struct{}
}

func (f *fakeCounter) RefreshWordCount(context.Context) (int, error) {
	select {
	case f.calls <- struct{}{}:
	default:
	}
	return f.words, f.err
}

func next(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poller message")
		return nil
	}
}

func TestPollerRefreshesOnStart(t *testing.T) {
	c := &fakeCounter{words: 42, calls: make(chan struct{}, 4)}
	p := studiosync.New(c, studiosync.WithInterval(time.Hour))
	defer p.Stop()

	msg := next(t, p.Start())
	wc, ok := msg.(studiosync.WordCountMsg)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, 42, wc.Words)
	assert.NoError(t, wc.Err)
	assert.Equal(t, 42, p.LastCount().Words)

	assert.Nil(t, p.Start(), "second start is a no-op")
}

func TestPollerRefreshTriggerAndError(t *testing.T) {
	c := &fakeCounter{words: 7, calls: make(chan struct{}, 4)}
	p := studiosync.New(c, studiosync.WithInterval(time.Hour))
	defer p.Stop()

	_ = next(t, p.Start())

	c.err = errors.New("offline")
	p.Refresh()
	msg := next(t, p.WaitForNextResult())
	wc, ok := msg.(studiosync.WordCountMsg)
	require.True(t, ok)
	assert.EqualError(t, wc.Err, "offline")
	assert.Equal(t, 7, p.LastCount().Words, "failed refresh keeps the last good count")
}

func TestPollerForwardsEventsAndAutosave(t *testing.T) {
	bus := events.NewBus()
	results := make(chan editor.AutosaveResult, 1)
	c := &fakeCounter{calls: make(chan struct{}, 4)}
	p := studiosync.New(c,
		studiosync.WithInterval(time.Hour),
		studiosync.WithBus(bus),
		studiosync.WithAutosave(results),
	)
	defer p.Stop()

	_ = next(t, p.Start())

	bus.Publish(events.Event{Kind: events.SceneCreated, ItemID: "s1"})
	msg := next(t, p.WaitForNextResult())
	ev, ok := msg.(studiosync.EventMsg)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, events.SceneCreated, ev.Event.Kind)
	assert.Equal(t, "s1", ev.Event.ItemID)

	results <- editor.AutosaveResult{BeatID: "b1"}
	msg = next(t, p.WaitForNextResult())
	as, ok := msg.(studiosync.AutosaveMsg)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, "b1", as.Result.BeatID)
}

func TestPollerStopEndsWait(t *testing.T) {
	c := &fakeCounter{calls: make(chan struct{}, 4)}
	p := studiosync.New(c, studiosync.WithInterval(time.Hour))
	_ = next(t, p.Start())
	p.Stop()
	p.Stop()

	assert.Nil(t, next(t, p.WaitForNextResult()))
}
