package runtime

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/keelwork/keel/pkg/core"
)

// spawn hands one effect to the execution engine under settlement s. The
// caller must hold a slot on s while calling, so the settlement cannot hit
// zero before the effect's own slot is taken.
func (st *Store) spawn(eff core.Effect, s *settlement) {
	if eff == nil {
		return
	}
	switch e := eff.(type) {
	case core.NoneEffect:
		// Settles immediately.
	case core.ParallelEffect:
		// Members start in order but run independently; they all attach to
		// the same settlement, so it settles only when every member's
		// recursive fan-out has.
		for _, m := range e.Effects {
			st.spawn(m, s)
		}
	case core.FutureEffect:
		st.hold(s)
		go st.runFuture(e, s)
	case core.StreamEffect:
		st.hold(s)
		go st.runStream(e, s)
	case core.DelayEffect:
		st.hold(s)
		go st.runDelay(e, s)
	case core.SequentialEffect:
		st.hold(s)
		go st.runSequential(e, s)
	default:
		st.metrics.EffectFailure("unknown")
		st.logger.Error("unknown effect variant", zap.String("type", fmt.Sprintf("%T", eff)))
	}
}

// enqueueEffect feeds an effect-produced action back into the dispatch loop.
// The queued item takes its settlement slot before this unit releases its
// own, keeping the settle count chained. Once the loop has stopped, the
// action is dropped and counted.
func (st *Store) enqueueEffect(a core.Action, origin core.Origin, s *settlement) {
	st.hold(s)
	select {
	case st.queue <- queued{action: a, origin: origin, s: s}:
	case <-st.loopDone:
		st.release(s)
		st.metrics.ActionDropped("store_stopped")
		st.logger.Warn("action dropped after stop", zap.String("action", a.Kind()))
	}
}

// failure routes an infrastructure failure through the configured mapper,
// or logs and counts it when no mapper is set.
func (st *Store) failure(f Failure, s *settlement) {
	st.metrics.EffectFailure(f.Kind)
	if st.failureAction != nil {
		if a := st.failureAction(f); a != nil {
			st.enqueueEffect(a, core.OriginFailure, s)
			return
		}
	}
	st.logger.Warn("effect failure", zap.String("kind", f.Kind), zap.Error(f.Err))
}

func (st *Store) runFuture(e core.FutureEffect, s *settlement) {
	defer st.release(s)
	if e.Op == nil {
		return
	}
	if st.sem != nil {
		select {
		case st.sem <- struct{}{}:
			defer func() { <-st.sem }()
		case <-st.effectCtx.Done():
			st.failure(Failure{Kind: "future", Err: st.effectCtx.Err()}, s)
			return
		}
	}
	ctx, span := st.tracer.Start(st.effectCtx, "effect.future")
	defer span.End()
	a, err := runOp(ctx, e.Op)
	if err != nil {
		span.RecordError(err)
		st.failure(Failure{Kind: "future", Err: err}, s)
		return
	}
	if a != nil {
		span.SetAttributes(attribute.String("action.kind", a.Kind()))
		st.enqueueEffect(a, core.OriginEffect, s)
	}
}

func (st *Store) runDelay(e core.DelayEffect, s *settlement) {
	defer st.release(s)
	_, span := st.tracer.Start(st.effectCtx, "effect.delay", trace.WithAttributes(
		attribute.Int64("delay.ms", e.Duration.Milliseconds())))
	defer span.End()
	select {
	case <-st.clock.After(e.Duration):
		if e.Action != nil {
			st.enqueueEffect(e.Action, core.OriginEffect, s)
		}
	case <-st.effectCtx.Done():
		st.failure(Failure{Kind: "delay", Err: st.effectCtx.Err()}, s)
	}
}

// runStream drives one stream op. Each yielded action is dispatched under a
// child settlement, and yield does not return until that child has fully
// settled: the next item is not produced before the previous one and all its
// sub-effects finished. This is the backpressure contract from the Effect
// algebra, honored here.
func (st *Store) runStream(e core.StreamEffect, s *settlement) {
	defer st.release(s)
	if e.Op == nil {
		return
	}
	ctx, span := st.tracer.Start(st.effectCtx, "effect.stream")
	defer span.End()

	items := 0
	yield := func(a core.Action) bool {
		if a == nil {
			return st.effectCtx.Err() == nil
		}
		items++
		child := newSettlement(s)
		st.hold(child)
		select {
		case st.queue <- queued{action: a, origin: core.OriginEffect, s: child}:
		case <-st.loopDone:
			st.release(child)
			st.metrics.ActionDropped("store_stopped")
			return false
		}
		select {
		case <-child.done:
			return st.effectCtx.Err() == nil
		case <-st.effectCtx.Done():
			// The queued item still settles through the drain; the
			// producer is told to stop now.
			return false
		}
	}

	err := runStreamOp(ctx, e.Op, yield)
	span.SetAttributes(attribute.Int("stream.items", items))
	if err != nil && st.effectCtx.Err() == nil {
		span.RecordError(err)
		st.failure(Failure{Kind: "stream", Err: err}, s)
	}
}

// runSequential starts member i+1 only after member i's recursive fan-out
// settled, nested streams fully drained. Cancellation drops the members not
// yet started.
func (st *Store) runSequential(e core.SequentialEffect, s *settlement) {
	defer st.release(s)
	_, span := st.tracer.Start(st.effectCtx, "effect.sequential", trace.WithAttributes(
		attribute.Int("sequential.len", len(e.Effects))))
	defer span.End()
	for i, m := range e.Effects {
		if st.effectCtx.Err() != nil {
			st.metrics.ActionDropped("sequential_cancelled")
			st.logger.Debug("sequential cancelled",
				zap.Int("started", i),
				zap.Int("members", len(e.Effects)))
			return
		}
		child := newSettlement(s)
		st.hold(child)
		st.spawn(m, child)
		st.release(child)
		select {
		case <-child.done:
		case <-st.effectCtx.Done():
			// Member i keeps settling in the background; members after i
			// never start.
			return
		}
	}
}
