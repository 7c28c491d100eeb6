// Package journal provides a durable, ordered log of dispatched actions.
// The runtime treats it as an opaque persistence side-channel: a journal tap
// is just another sink, and the core never interprets record payloads.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/cespare/xxhash/v2"
)

var (
	// ErrChecksum reports a record whose payload does not match its stored
	// checksum.
	ErrChecksum = errors.New("journal: checksum mismatch")

	// ErrClosed is returned by operations on a closed journal.
	ErrClosed = errors.New("journal: closed")
)

// Record is the persisted representation of one dispatched action.
// Payload holds the codec-encoded action; Checksum is the xxhash64 of the
// payload, verified on read.
type Record struct {
	Seq      uint64
	Kind     string
	Origin   string
	At       time.Time
	Payload  []byte
	Checksum uint64
}

// Journal defines operations on the ordered action log. Appends with a
// sequence number already present are idempotent no-ops, so replaying a tap
// after a crash cannot duplicate records.
type Journal interface {
	Append(ctx context.Context, rec Record) error
	// List returns up to limit records with Seq > afterSeq in ascending
	// order. limit <= 0 means no limit.
	List(ctx context.Context, afterSeq uint64, limit int) ([]Record, error)
	LastSeq(ctx context.Context) (uint64, error)
	Close() error
}

// Sum returns the checksum stored alongside a payload.
func Sum(payload []byte) uint64 { return xxhash.Sum64(payload) }

// Verify checks a record's payload against its checksum.
func Verify(rec Record) error {
	if Sum(rec.Payload) != rec.Checksum {
		return ErrChecksum
	}
	return nil
}
