package core

import (
	"context"
	"time"
)

// Effect describes asynchronous work to be performed, without performing it.
// Effects are data: a Reducer returns them, the Store's execution engine
// interprets them. The set of variants is closed; values are built with the
// constructors below and inspected by the engine with a type switch.
//
// Effects never receive a mutable reference to State. They know only what was
// captured by value when the Reducer constructed them.
//
// An Effect value is transient: created during one Reduce call, consumed
// exactly once by the execution engine, then discarded.
type Effect interface {
	effect()
}

// FutureOp is one unit of asynchronous work yielding at most one action.
// A nil returned Action with nil error means done, nothing to dispatch.
// The op must observe ctx and unwind promptly when it is cancelled.
type FutureOp func(ctx context.Context) (Action, error)

// StreamOp produces zero or more actions over time through yield.
//
// yield blocks until the yielded action's dispatch, including every effect it
// recursively produced, has fully settled, then reports whether the producer
// should continue. This is the backpressure contract: item k+1 is not
// produced until item k settled, bounding buffering to one item per stream.
// A StreamOp that never returns is legal (a live feed); it is torn down only
// by ctx cancellation, which yield surfaces by returning false.
type StreamOp func(ctx context.Context, yield func(Action) bool) error

// NoneEffect settles immediately with no work. A nil Effect is treated the
// same by the engine.
type NoneEffect struct{}

// FutureEffect is a single concurrent unit of work.
type FutureEffect struct {
	Op FutureOp
}

// StreamEffect is a concurrent unit of work relative to other effects, but
// internally strictly sequential per the StreamOp contract.
type StreamEffect struct {
	Op StreamOp
}

// ParallelEffect runs its members concurrently. Yielded actions merge in
// completion order; there is no ordering guarantee between members. The
// effect is settled only when every member's recursive fan-out has settled.
type ParallelEffect struct {
	Effects []Effect
}

// SequentialEffect runs member i+1 only after member i has fully settled,
// including sub-effects member i recursively produced and full drain of any
// nested stream.
type SequentialEffect struct {
	Effects []Effect
}

// DelayEffect yields a fixed action after a duration measured on the Store's
// clock. Cancellation before expiry drops the action.
type DelayEffect struct {
	Duration time.Duration
	Action   Action
}

func (NoneEffect) effect()       {}
func (FutureEffect) effect()     {}
func (StreamEffect) effect()     {}
func (ParallelEffect) effect()   {}
func (SequentialEffect) effect() {}
func (DelayEffect) effect()      {}

// None returns an effect representing no work.
func None() Effect { return NoneEffect{} }

// Future returns an effect running op as one concurrent unit of work.
func Future(op FutureOp) Effect { return FutureEffect{Op: op} }

// Stream returns an effect producing actions sequentially through op.
func Stream(op StreamOp) Effect { return StreamEffect{Op: op} }

// Parallel returns an effect running members concurrently. An empty list
// settles immediately.
func Parallel(effects ...Effect) Effect { return ParallelEffect{Effects: effects} }

// Sequential returns an effect running members one after another, each
// starting only after the previous fully settled. An empty list settles
// immediately.
func Sequential(effects ...Effect) Effect { return SequentialEffect{Effects: effects} }

// Delay returns an effect dispatching a after d has elapsed. Timeouts are
// composed from Delay racing a Future inside Parallel; there is no separate
// timeout primitive.
func Delay(d time.Duration, a Action) Effect { return DelayEffect{Duration: d, Action: a} }
