package testkit

import (
	"context"
	"sync"

	"github.com/keelwork/keel/pkg/core"
)

// RecordingSink captures every dispatched action in apply order.
type RecordingSink struct {
	mu   sync.Mutex
	recs []core.DispatchedAction
}

func (r *RecordingSink) Publish(_ context.Context, da core.DispatchedAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, da)
	return nil
}

// Dispatched returns a copy of everything recorded so far.
func (r *RecordingSink) Dispatched() []core.DispatchedAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.DispatchedAction, len(r.recs))
	copy(out, r.recs)
	return out
}

// Kinds returns the recorded action kinds in apply order.
func (r *RecordingSink) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.recs))
	for _, rec := range r.recs {
		out = append(out, rec.Action.Kind())
	}
	return out
}

// FailingSink always returns err from Publish.
type FailingSink struct {
	Err error
}

func (f FailingSink) Publish(context.Context, core.DispatchedAction) error { return f.Err }
