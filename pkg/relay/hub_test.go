package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelwork/keel/pkg/core"
)

type hubAction struct{ kind string }

func (a hubAction) Kind() string { return a.kind }

func envelope(seq uint64, kind string) core.DispatchedAction {
	return core.DispatchedAction{
		Seq:    seq,
		Origin: core.OriginExternal,
		At:     time.Now().UTC(),
		Action: hubAction{kind: kind},
	}
}

func TestHub_FanOut(t *testing.T) {
	h := NewHub()
	defer h.Close()

	ch1, cancel1 := h.Subscribe(4)
	defer cancel1()
	ch2, cancel2 := h.Subscribe(4)
	defer cancel2()

	require.NoError(t, h.Publish(context.Background(), envelope(1, "a")))
	require.NoError(t, h.Publish(context.Background(), envelope(2, "b")))

	for _, ch := range []<-chan core.DispatchedAction{ch1, ch2} {
		da := <-ch
		assert.Equal(t, uint64(1), da.Seq)
		assert.Equal(t, "a", da.Action.Kind())
		da = <-ch
		assert.Equal(t, uint64(2), da.Seq)
	}
}

func TestHub_SlowSubscriberDropsNotBlocks(t *testing.T) {
	h := NewHub()
	defer h.Close()

	ch, cancel := h.Subscribe(1)
	defer cancel()

	// Nobody reads; second publish must not block and must be dropped.
	done := make(chan struct{})
	go func() {
		_ = h.Publish(context.Background(), envelope(1, "a"))
		_ = h.Publish(context.Background(), envelope(2, "b"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}
	assert.Equal(t, uint64(1), h.Drops())

	da := <-ch
	assert.Equal(t, "a", da.Action.Kind())
}

func TestHub_CancelClosesChannel(t *testing.T) {
	h := NewHub()
	defer h.Close()

	ch, cancel := h.Subscribe(1)
	cancel()
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after cancel")

	// Cancel twice is safe.
	cancel()
}

func TestHub_CloseClosesAllSubscribers(t *testing.T) {
	h := NewHub()
	ch1, _ := h.Subscribe(1)
	ch2, _ := h.Subscribe(1)
	h.Close()

	_, ok := <-ch1
	assert.False(t, ok)
	_, ok = <-ch2
	assert.False(t, ok)

	// Publish after close is a no-op.
	require.NoError(t, h.Publish(context.Background(), envelope(1, "a")))

	// Subscribe after close returns a closed channel.
	ch3, cancel := h.Subscribe(1)
	defer cancel()
	_, ok = <-ch3
	assert.False(t, ok)
}
