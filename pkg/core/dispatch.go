package core

import "time"

// Origin records where a dispatched action came from.
type Origin string

const (
	// OriginExternal marks actions injected by callers through Dispatch.
	OriginExternal Origin = "external"
	// OriginEffect marks actions yielded by completing effects.
	OriginEffect Origin = "effect"
	// OriginFailure marks actions synthesized from infrastructure failures
	// by the Store's failure mapper.
	OriginFailure Origin = "failure"
)

// DispatchedAction is the record of one applied action: the envelope the
// Store publishes to its sinks after the reduce step.
//
// Seq is assigned by the dispatch loop in apply order, starting at 1, and
// totally orders all state mutations. At is taken from the Store's clock.
type DispatchedAction struct {
	Seq    uint64
	Origin Origin
	At     time.Time
	Action Action
}
