package runtime

import "fmt"

// Phase is the lifecycle state of a Store. The machine is one-way:
// Running -> ShuttingDown -> Stopped, with no return transitions.
type Phase string

const (
	PhaseRunning      Phase = "running"
	PhaseShuttingDown Phase = "shutting_down"
	PhaseStopped      Phase = "stopped"
)

var allowedPhaseTransitions = map[Phase]map[Phase]struct{}{
	PhaseRunning: {
		PhaseShuttingDown: {},
	},
	PhaseShuttingDown: {
		PhaseStopped: {},
	},
	PhaseStopped: {},
}

func validatePhaseTransition(from, to Phase) error {
	if from == to {
		return nil
	}
	allowed, ok := allowedPhaseTransitions[from]
	if !ok {
		return fmt.Errorf("%w: unknown source phase %q", ErrInvalidPhaseTransition, from)
	}
	if _, ok := allowed[to]; !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidPhaseTransition, from, to)
	}
	return nil
}

func (st *Store) transition(to Phase) error {
	st.phaseMu.Lock()
	defer st.phaseMu.Unlock()
	if err := validatePhaseTransition(st.phase, to); err != nil {
		return err
	}
	st.phase = to
	return nil
}

// Phase returns the current lifecycle phase.
func (st *Store) Phase() Phase {
	st.phaseMu.Lock()
	defer st.phaseMu.Unlock()
	return st.phase
}
