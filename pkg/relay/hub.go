// Package relay implements the action-broadcast side-channel: every applied
// action can be fanned out to in-process subscribers or published to Redis
// for external relays. The channel is additive; the dispatch loop never
// depends on it for correctness.
package relay

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/keelwork/keel/pkg/core"
)

// Hub fans dispatched actions out to registered subscribers over bounded
// channels. Sends never block: when a subscriber's buffer is full the action
// is dropped for that subscriber, counted and logged, so a slow consumer can
// never stall the dispatch loop.
//
// Hub implements core.Sink.
type Hub struct {
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[int]chan core.DispatchedAction
	nextID int
	drops  uint64
	closed bool
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the logger used for drop reporting.
func WithHubLogger(l *zap.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHub returns an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		logger: zap.NewNop(),
		subs:   make(map[int]chan core.DispatchedAction),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a subscriber with the given channel buffer and returns
// the receive channel plus a cancel func. The channel is closed on cancel and
// on hub Close. A buffer below 1 is raised to 1.
func (h *Hub) Subscribe(buffer int) (<-chan core.DispatchedAction, func()) {
	if buffer < 1 {
		buffer = 1
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		ch := make(chan core.DispatchedAction)
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	ch := make(chan core.DispatchedAction, buffer)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish implements core.Sink. It never blocks and never returns an error;
// per-subscriber overflow is a drop, not a failure.
func (h *Hub) Publish(_ context.Context, da core.DispatchedAction) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	for id, ch := range h.subs {
		select {
		case ch <- da:
		default:
			h.drops++
			h.logger.Debug("relay drop",
				zap.Int("subscriber", id),
				zap.Uint64("seq", da.Seq),
				zap.String("action", da.Action.Kind()))
		}
	}
	return nil
}

// Drops returns the total number of per-subscriber drops so far.
func (h *Hub) Drops() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.drops
}

// Close closes every subscriber channel. Publishing after Close is a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
