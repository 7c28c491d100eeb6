package runtime

import (
	"errors"
	"testing"
)

func TestValidatePhaseTransition(t *testing.T) {
	cases := []struct {
		from, to Phase
		ok       bool
	}{
		{PhaseRunning, PhaseShuttingDown, true},
		{PhaseShuttingDown, PhaseStopped, true},
		{PhaseRunning, PhaseRunning, true},
		{PhaseRunning, PhaseStopped, false},
		{PhaseShuttingDown, PhaseRunning, false},
		{PhaseStopped, PhaseRunning, false},
		{PhaseStopped, PhaseShuttingDown, false},
		{Phase("bogus"), PhaseStopped, false},
	}
	for _, c := range cases {
		err := validatePhaseTransition(c.from, c.to)
		if c.ok && err != nil {
			t.Fatalf("%s -> %s: unexpected error %v", c.from, c.to, err)
		}
		if !c.ok && !errors.Is(err, ErrInvalidPhaseTransition) {
			t.Fatalf("%s -> %s: err=%v want ErrInvalidPhaseTransition", c.from, c.to, err)
		}
	}
}

func TestSettlement_ChainsToParent(t *testing.T) {
	parent := newSettlement(nil)
	parent.begin()
	child := newSettlement(parent)
	child.begin()
	parent.end() // parent's own slot released; child still holds it open

	select {
	case <-parent.done:
		t.Fatal("parent settled while child outstanding")
	default:
	}
	child.end()
	select {
	case <-parent.done:
	default:
		t.Fatal("parent not settled after child ended")
	}
	select {
	case <-child.done:
	default:
		t.Fatal("child not settled")
	}
}

func TestWorkTracker_QuiescedAfterLateAdd(t *testing.T) {
	w := newWorkTracker()
	w.add()
	q := w.quiesced()
	w.add() // late add while a waiter exists
	w.done()
	select {
	case <-q:
		t.Fatal("quiesced with work outstanding")
	default:
	}
	w.done()
	<-q
	if w.count() != 0 {
		t.Fatalf("count=%d want 0", w.count())
	}
}
