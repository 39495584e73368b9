package client

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestBus_OrderAndUnsubscribe(t *testing.T) {
	bus := NewBus(slog.Default())

	var got []string
	unsubA := bus.Subscribe(func(e Event) { got = append(got, "a:"+string(e.Kind)) })
	bus.Subscribe(func(e Event) { got = append(got, "b:"+string(e.Kind)) })

	bus.Publish(EventSyncStarted, nil)
	bus.Publish(EventSyncCompleted, nil)

	assert.Equal(t, []string{
		"a:sync.started", "b:sync.started",
		"a:sync.completed", "b:sync.completed",
	}, got)

	unsubA()
	unsubA()
	got = nil
	bus.Publish(EventOnlineChanged, true)
	assert.Equal(t, []string{"b:online.changed"}, got)
}

func TestBus_PanickingSubscriberIsIsolated(t *testing.T) {
	bus := NewBus(slog.Default())

	var delivered []Event
	bus.Subscribe(func(Event) { panic("boom") })
	bus.Subscribe(func(e Event) { delivered = append(delivered, e) })

	require.NotPanics(t, func() { bus.Publish(EventCaptureQueued, 42) })
	require.Len(t, delivered, 1)
	assert.Equal(t, 42, delivered[0].Data)
	assert.False(t, delivered[0].At.IsZero())
}

// recorder собирает события шины для проверок
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func record(bus *Bus) *recorder {
	r := &recorder{}
	bus.Subscribe(func(e Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
	})
	return r
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]EventKind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func (r *recorder) count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
