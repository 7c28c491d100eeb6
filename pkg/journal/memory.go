package journal

import (
	"context"
	"sync"
)

// Memory is an in-process Journal backed by a slice. It is the default for
// tests and for applications that only need the capture recorder.
type Memory struct {
	mu     sync.Mutex
	recs   []Record
	bySeq  map[uint64]struct{}
	closed bool
}

// NewMemory returns an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{bySeq: make(map[uint64]struct{})}
}

func (m *Memory) Append(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, ok := m.bySeq[rec.Seq]; ok {
		return nil
	}
	m.bySeq[rec.Seq] = struct{}{}
	m.recs = append(m.recs, rec)
	return nil
}

func (m *Memory) List(_ context.Context, afterSeq uint64, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	var out []Record
	for _, r := range m.recs {
		if r.Seq <= afterSeq {
			continue
		}
		if err := Verify(r); err != nil {
			return nil, err
		}
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) LastSeq(_ context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	var last uint64
	for _, r := range m.recs {
		if r.Seq > last {
			last = r.Seq
		}
	}
	return last, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
