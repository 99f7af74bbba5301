package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	t.Parallel()
	b := NewBus()
	ch, cancel := b.Subscribe(2)

	b.Publish(Event{Kind: SceneCreated, ItemID: "s1"})
	b.Publish(Event{Kind: SceneDeleted, ItemID: "s1"})
	b.Publish(Event{Kind: BeatLinked})

	e := <-ch
	assert.Equal(t, SceneCreated, e.Kind)
	assert.False(t, e.At.IsZero())
	assert.Equal(t, SceneDeleted, (<-ch).Kind)

	select {
	case e := <-ch:
		t.Fatalf("unexpected event %v", e)
	default:
	}

	cancel()
	cancel()
	_, ok := <-ch
	require.False(t, ok)
	b.Publish(Event{Kind: BeatUnlinked})
}

func TestNilBusPublish(t *testing.T) {
	t.Parallel()
	var b *Bus
	assert.NotPanics(t, func() { b.Publish(Event{Kind: ChapterLoaded}) })
}
