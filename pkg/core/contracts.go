// Package core defines the contracts of the keel state runtime: Actions fed
// into the dispatch loop, the State the loop owns, the Reducer that advances
// it, and the Effect algebra describing asynchronous work.
//
// The model is a single logical mutation point with concurrent fan-out:
//   - A Store (pkg/runtime) owns the State and serializes every Reduce call.
//   - A pure Reducer maps (state, action, environment) to an ordered set of
//     Effects. It never performs I/O and never executes the work it requests.
//   - The Store's execution engine interprets Effects concurrently; any
//     actions they yield are fed back into the same dispatch loop.
//
// Example usage:
//
//	type counter struct{ N int }
//	func (c *counter) Clone() core.State { cp := *c; return &cp }
//
//	reducer := core.ReducerFunc(func(s core.State, a core.Action, env core.Environment) []core.Effect {
//		st := s.(*counter)
//		switch a.(type) {
//		case tick:
//			st.N++
//		}
//		return nil
//	})
package core

import "context"

// Action is a message describing an event or result fed into the dispatch
// loop: user input, completed async work, a timer firing, an error.
//
// Applications define a closed set of concrete action types, one per message
// variant. Error-carrying variants are ordinary actions: errors are data, not
// exceptions, and travel the same path as every other message.
//
// Action values are transient. Each is created at a dispatch site or by a
// completing effect, consumed by exactly one Reduce call, and then discarded.
type Action interface {
	// Kind names the action variant for logging, broadcast envelopes, and
	// serialization. Kinds must be stable and unique within an application's
	// action set.
	Kind() string
}

// State is the application value owned by the Store. It is mutated only
// inside a Reduce call; the Store guarantees at most one Reduce call is in
// flight at a time, so State implementations need no internal locking.
//
// States are typically pointer types so the Reducer can mutate in place.
type State interface {
	// Clone returns a deep copy. Snapshots handed to observers must never
	// alias live state, so all nested structures must be copied.
	Clone() State
}

// Environment is the injected capability set a Reducer consults to construct
// Effects: API clients, tool runners, clocks, id sources. The Store holds the
// value and passes it unchanged to every Reduce call; reducers type-assert
// their concrete environment the same way they type-assert their State.
//
// Environment methods take domain parameters and return Effect values, never
// raw goroutine handles or channels. Anything nondeterministic the reducer
// needs (current time, random ids) must come through the Environment so a
// deterministic test double reproduces behavior exactly.
//
// Concrete environments are shared across concurrently executing effects and
// must be safe for concurrent use.
type Environment any

// Reducer computes the next effects from the current state and an action.
//
// Reduce must be pure: no I/O, no blocking, no references retained across
// calls, and deterministic for a given (state, action, environment view).
// It mutates state in place and expresses every side effect it wants
// performed as a returned Effect. It must be total over reachable
// (state, action) pairs; an unmatched action is reported as data, never by
// panicking.
type Reducer interface {
	Reduce(state State, action Action, env Environment) []Effect
}

// ReducerFunc adapts a function to the Reducer interface.
type ReducerFunc func(state State, action Action, env Environment) []Effect

// Reduce implements Reducer.
func (f ReducerFunc) Reduce(state State, action Action, env Environment) []Effect {
	return f(state, action, env)
}

// Sink receives every action applied by the dispatch loop, in apply order.
// Sinks are the additive observability side-channel: journal taps, broadcast
// hubs, capture recorders. A sink failure is logged and counted by the Store
// but never affects the loop.
type Sink interface {
	Publish(ctx context.Context, da DispatchedAction) error
}

// ActionCodec is the application's closed serialization of its action set.
// It is consumed by journal taps, relay publishers, and capture files; the
// runtime itself never encodes actions.
type ActionCodec interface {
	Encode(a Action) ([]byte, error)
	Decode(kind string, data []byte) (Action, error)
}
