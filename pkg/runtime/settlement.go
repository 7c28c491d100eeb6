package runtime

import (
	"sync"
	"sync/atomic"
)

// settlement tracks when one dispatched action and its entire recursive
// fan-out have finished being processed. Every unit of work (queued action,
// running effect goroutine) holds one slot while active; children take their
// slot before the parent releases its own, so the count can only reach zero
// once the whole tree is done. Counts chain to the parent settlement, which
// therefore cannot settle while any descendant is outstanding.
type settlement struct {
	parent *settlement
	n      atomic.Int64
	done   chan struct{}
	once   sync.Once
}

func newSettlement(parent *settlement) *settlement {
	return &settlement{parent: parent, done: make(chan struct{})}
}

func (s *settlement) begin() {
	for p := s; p != nil; p = p.parent {
		p.n.Add(1)
	}
}

func (s *settlement) end() {
	for p := s; p != nil; p = p.parent {
		if p.n.Add(-1) == 0 {
			p.once.Do(func() { close(p.done) })
		}
	}
}

// workTracker counts every active unit store-wide so Shutdown can wait for
// quiescence. Unlike sync.WaitGroup it tolerates add() racing a waiter: late
// external dispatches that slip past the phase check are still counted.
type workTracker struct {
	mu   sync.Mutex
	cond *sync.Cond
	n    int
}

func newWorkTracker() *workTracker {
	w := &workTracker{}
	w.cond = sync.NewCond(&w.mu)
	return w
}

func (w *workTracker) add() {
	w.mu.Lock()
	w.n++
	w.mu.Unlock()
}

func (w *workTracker) done() {
	w.mu.Lock()
	w.n--
	if w.n <= 0 {
		w.cond.Broadcast()
	}
	w.mu.Unlock()
}

func (w *workTracker) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

// quiesced returns a channel closed once the count reaches zero.
func (w *workTracker) quiesced() <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		w.mu.Lock()
		for w.n > 0 {
			w.cond.Wait()
		}
		w.mu.Unlock()
		close(ch)
	}()
	return ch
}
