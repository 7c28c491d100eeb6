package runtime

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreClosed is returned by Dispatch and DispatchAndWait once the
	// store is shutting down or stopped.
	ErrStoreClosed = errors.New("store closed")

	// ErrShutdownTimeout marks a shutdown that timed out waiting for
	// outstanding work to acknowledge cancellation.
	ErrShutdownTimeout = errors.New("shutdown timeout")

	// ErrInvalidPhaseTransition reports an illegal lifecycle transition.
	ErrInvalidPhaseTransition = errors.New("invalid phase transition")
)

// ShutdownError reports units of work that did not settle within the
// shutdown timeout. The store stops anyway; stragglers are abandoned.
type ShutdownError struct {
	Unsettled int
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("shutdown timed out with %d unsettled units", e.Unsettled)
}

func (e *ShutdownError) Unwrap() error { return ErrShutdownTimeout }

// Failure describes an infrastructure failure caught at the execution-engine
// boundary: an effect op returning an error, a panic inside an op, or a unit
// cancelled before completion. Failures are never raised to the caller; they
// are converted to a domain action by the configured failure mapper, or
// logged and counted when no mapper is set.
type Failure struct {
	// Kind names the failing unit: "future", "stream", "delay", "sink".
	Kind string
	// Err is the underlying cause.
	Err error
}
