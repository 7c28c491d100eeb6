// Package replay provides capture and deterministic replay of action logs.
// A recorded capture replayed through the same reducer with the same codec
// and a deterministic environment reproduces the final state exactly: the
// state is a pure left-fold of reduce over the delivered action order.
package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/keelwork/keel/pkg/core"
)

// CaptureVersion is the current capture file format version.
const CaptureVersion = "1"

// Entry is one recorded action in a capture.
type Entry struct {
	Seq     uint64          `json:"seq"`
	Kind    string          `json:"kind"`
	Origin  string          `json:"origin"`
	At      string          `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

// Capture is a recorded action log for one store.
type Capture struct {
	Version string  `json:"version"`
	StoreID string  `json:"store_id"`
	Actions []Entry `json:"actions"`
}

// Recorder is a sink capturing every dispatched action in memory.
type Recorder struct {
	codec   core.ActionCodec
	storeID string

	mu      sync.Mutex
	entries []Entry
}

// NewRecorder returns a recorder encoding actions with codec.
func NewRecorder(storeID string, codec core.ActionCodec) *Recorder {
	return &Recorder{codec: codec, storeID: storeID}
}

// Publish implements core.Sink.
func (r *Recorder) Publish(_ context.Context, da core.DispatchedAction) error {
	payload, err := r.codec.Encode(da.Action)
	if err != nil {
		return fmt.Errorf("encode %s: %w", da.Action.Kind(), err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{
		Seq:     da.Seq,
		Kind:    da.Action.Kind(),
		Origin:  string(da.Origin),
		At:      da.At.Format("2006-01-02T15:04:05.999999999Z07:00"),
		Payload: payload,
	})
	return nil
}

// Capture returns a snapshot of everything recorded so far.
func (r *Recorder) Capture() Capture {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	return Capture{Version: CaptureVersion, StoreID: r.storeID, Actions: entries}
}

// Marshal serializes a capture to JSON.
func Marshal(c Capture) ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Unmarshal parses and validates a capture file.
func Unmarshal(data []byte) (Capture, error) {
	if err := ValidateCapture(data); err != nil {
		return Capture{}, err
	}
	var c Capture
	if err := json.Unmarshal(data, &c); err != nil {
		return Capture{}, err
	}
	return c, nil
}

// Decode converts capture entries back into actions using the application's
// codec, in recorded order.
func Decode(c Capture, codec core.ActionCodec) ([]core.Action, error) {
	actions := make([]core.Action, 0, len(c.Actions))
	for i, e := range c.Actions {
		a, err := codec.Decode(e.Kind, e.Payload)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.Kind, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// Fold replays actions through the reducer as a pure left-fold, discarding
// effects. The caller supplies a deterministic environment double if the
// reducer consults one.
func Fold(initial core.State, r core.Reducer, env core.Environment, actions []core.Action) core.State {
	state := initial.Clone()
	for _, a := range actions {
		_ = r.Reduce(state, a, env)
	}
	return state
}
