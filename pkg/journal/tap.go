package journal

import (
	"context"
	"fmt"

	"github.com/keelwork/keel/pkg/core"
)

type tap struct {
	j     Journal
	codec core.ActionCodec
}

// Tap returns a sink that encodes every dispatched action with codec and
// appends it to j. Encode and append failures surface through the store's
// sink error path; they never affect the dispatch loop.
func Tap(j Journal, codec core.ActionCodec) core.Sink {
	return &tap{j: j, codec: codec}
}

func (t *tap) Publish(ctx context.Context, da core.DispatchedAction) error {
	payload, err := t.codec.Encode(da.Action)
	if err != nil {
		return fmt.Errorf("encode %s: %w", da.Action.Kind(), err)
	}
	return t.j.Append(ctx, Record{
		Seq:      da.Seq,
		Kind:     da.Action.Kind(),
		Origin:   string(da.Origin),
		At:       da.At,
		Payload:  payload,
		Checksum: Sum(payload),
	})
}
