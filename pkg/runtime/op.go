package runtime

import (
	"context"
	"fmt"

	"github.com/keelwork/keel/pkg/core"
)

// runOp executes a future op, converting a panic inside it into an error so
// nothing an effect does can crash the dispatch loop.
func runOp(ctx context.Context, op core.FutureOp) (a core.Action, err error) {
	defer func() {
		if r := recover(); r != nil {
			a, err = nil, fmt.Errorf("future op panic: %v", r)
		}
	}()
	return op(ctx)
}

// runStreamOp executes a stream op with the same panic containment.
func runStreamOp(ctx context.Context, op core.StreamOp, yield func(core.Action) bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stream op panic: %v", r)
		}
	}()
	return op(ctx, yield)
}
