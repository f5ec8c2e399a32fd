package generate

import (
	"sync"

	"stencil/internal/gateway/repository/jobstore"
)

// Hub fans job events out to live watchers. Events are buffered per run so a
// watcher that connects mid-run still sees the full history.
type Hub struct {
	mu     sync.Mutex
	events map[string][]jobstore.Event
	subs   map[string][]chan jobstore.Event
	done   map[string]bool
}

func NewHub() *Hub {
	return &Hub{
		events: make(map[string][]jobstore.Event),
		subs:   make(map[string][]chan jobstore.Event),
		done:   make(map[string]bool),
	}
}

// Publish records the event and delivers it to current subscribers. Slow
// subscribers are skipped rather than blocked on.
func (h *Hub) Publish(ev jobstore.Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done[ev.RunID] {
		return
	}
	ev.Seq = int64(len(h.events[ev.RunID]) + 1)
	h.events[ev.RunID] = append(h.events[ev.RunID], ev)
	for _, ch := range h.subs[ev.RunID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close marks the run finished and closes subscriber channels.
func (h *Hub) Close(runID string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done[runID] {
		return
	}
	h.done[runID] = true
	for _, ch := range h.subs[runID] {
		close(ch)
	}
	delete(h.subs, runID)
}

// Subscribe returns the events published so far and a channel for subsequent
// ones. The channel is closed when the run finishes; cancel detaches early.
func (h *Hub) Subscribe(runID string) (snapshot []jobstore.Event, ch <-chan jobstore.Event, cancel func()) {
	if h == nil {
		return nil, nil, func() {}
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	snapshot = append([]jobstore.Event(nil), h.events[runID]...)
	if h.done[runID] {
		closed := make(chan jobstore.Event)
		close(closed)
		return snapshot, closed, func() {}
	}

	sub := make(chan jobstore.Event, 32)
	h.subs[runID] = append(h.subs[runID], sub)
	cancel = func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subs[runID]
		for i, c := range subs {
			if c == sub {
				h.subs[runID] = append(subs[:i], subs[i+1:]...)
				close(sub)
				return
			}
		}
	}
	return snapshot, sub, cancel
}
