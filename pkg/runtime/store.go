// Package runtime implements the keel Store: the dispatch loop owning the
// canonical State, serializing every reduce call, and the execution engine
// interpreting the returned effects concurrently.
//
// All state mutations are totally ordered. Many effects run at once, but
// their yielded actions merely race for a queue slot; the order the loop
// applies them in is the only externally observable nondeterminism.
package runtime

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/keelwork/keel/pkg/core"
)

const (
	defaultQueueCapacity   = 1024
	defaultShutdownTimeout = 5 * time.Second
)

// queued is one inbound item awaiting the dispatch loop.
type queued struct {
	action core.Action
	origin core.Origin
	s      *settlement // nil for fire-and-forget dispatches
}

// Store is the runtime loop: single authoritative owner of State, serializer
// of reduce invocations, scheduler of effect execution.
type Store struct {
	id      string
	reducer core.Reducer
	env     core.Environment

	logger  *zap.Logger
	tracer  trace.Tracer
	metrics Metrics
	sinks   []core.Sink
	clock   core.Clock

	failureAction   func(Failure) core.Action
	queueCapacity   int
	shutdownTimeout time.Duration
	sem             chan struct{} // nil means unlimited effect concurrency

	stateMu sync.RWMutex
	state   core.State
	seq     atomic.Uint64

	queue        chan queued
	effectCtx    context.Context
	effectCancel context.CancelFunc
	stopLoop     chan struct{}
	loopDone     chan struct{}
	tracker      *workTracker

	phaseMu sync.Mutex
	phase   Phase

	shutdownOnce sync.Once
	shutdownDone chan struct{}
	shutdownErr  error
}

// Option configures a Store at construction time. Noop implementations are
// substituted for nil logger, tracer provider and metrics.
type Option func(*Store)

// WithLogger sets the structured logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(st *Store) {
		if l != nil {
			st.logger = l
		}
	}
}

// WithTracerProvider sets the tracer provider used for dispatch and effect
// spans. The store never reads the process-global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(st *Store) {
		if tp != nil {
			st.tracer = tp.Tracer("keel/runtime")
		}
	}
}

// WithMetrics sets the metrics handle.
func WithMetrics(m Metrics) Option {
	return func(st *Store) {
		if m != nil {
			st.metrics = m
		}
	}
}

// WithSinks registers sinks receiving every applied action in apply order.
func WithSinks(sinks ...core.Sink) Option {
	return func(st *Store) {
		for _, s := range sinks {
			if s != nil {
				st.sinks = append(st.sinks, s)
			}
		}
	}
}

// WithClock sets the clock used for delays, envelope timestamps and the
// shutdown deadline. Defaults to core.SystemClock().
func WithClock(c core.Clock) Option {
	return func(st *Store) {
		if c != nil {
			st.clock = c
		}
	}
}

// WithQueueCapacity sets the inbound action queue capacity.
func WithQueueCapacity(n int) Option {
	return func(st *Store) {
		if n > 0 {
			st.queueCapacity = n
		}
	}
}

// WithShutdownTimeout bounds how long Shutdown waits for outstanding work.
func WithShutdownTimeout(d time.Duration) Option {
	return func(st *Store) {
		if d > 0 {
			st.shutdownTimeout = d
		}
	}
}

// WithEffectConcurrency caps how many Future ops run simultaneously.
// Zero means unlimited. The cap applies to Future units only; Stream,
// Sequential and Delay coordinators hold no slot, so a nested effect can
// never deadlock against its own ancestors.
func WithEffectConcurrency(n int) Option {
	return func(st *Store) {
		if n > 0 {
			st.sem = make(chan struct{}, n)
		}
	}
}

// WithFailureAction sets the mapper converting infrastructure failures into
// best-effort domain actions. Without a mapper, failures are logged and
// counted only.
func WithFailureAction(f func(Failure) core.Action) Option {
	return func(st *Store) { st.failureAction = f }
}

// WithStoreID sets the correlation id used in logs and capture files.
// Defaults to a random UUID.
func WithStoreID(id string) Option {
	return func(st *Store) {
		if id != "" {
			st.id = id
		}
	}
}

// New constructs a Store and starts its dispatch loop. The store owns
// initial from this point on; callers must not retain a reference to it.
func New(initial core.State, r core.Reducer, env core.Environment, opts ...Option) (*Store, error) {
	if initial == nil {
		return nil, errors.New("initial state is nil")
	}
	if r == nil {
		return nil, errors.New("reducer is nil")
	}
	effectCtx, effectCancel := context.WithCancel(context.Background())
	st := &Store{
		id:              uuid.NewString(),
		reducer:         r,
		env:             env,
		logger:          zap.NewNop(),
		tracer:          noop.NewTracerProvider().Tracer("keel/runtime"),
		metrics:         nopMetrics{},
		clock:           core.SystemClock(),
		queueCapacity:   defaultQueueCapacity,
		shutdownTimeout: defaultShutdownTimeout,
		state:           initial,
		effectCtx:       effectCtx,
		effectCancel:    effectCancel,
		stopLoop:        make(chan struct{}),
		loopDone:        make(chan struct{}),
		tracker:         newWorkTracker(),
		phase:           PhaseRunning,
		shutdownDone:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(st)
	}
	st.queue = make(chan queued, st.queueCapacity)
	go st.loop()
	return st, nil
}

// ID returns the store correlation id.
func (st *Store) ID() string { return st.id }

// Seq returns the sequence number of the last applied action.
func (st *Store) Seq() uint64 { return st.seq.Load() }

// Snapshot returns a cloned, consistent view of the current state. After the
// store has stopped it keeps returning the final state.
func (st *Store) Snapshot() core.State {
	st.stateMu.RLock()
	defer st.stateMu.RUnlock()
	return st.state.Clone()
}

// Dispatch enqueues an action for processing and returns once queued.
// It blocks while the queue is full, until ctx is cancelled or the store
// closes. Actions are rejected with ErrStoreClosed once shutdown has begun.
func (st *Store) Dispatch(ctx context.Context, a core.Action) error {
	return st.dispatch(ctx, a, nil)
}

// DispatchAndWait enqueues an action and blocks until the action and its
// entire recursive effect fan-out have settled, ctx is cancelled, or the
// store stops.
func (st *Store) DispatchAndWait(ctx context.Context, a core.Action) error {
	s := newSettlement(nil)
	if err := st.dispatch(ctx, a, s); err != nil {
		return err
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-st.loopDone:
		select {
		case <-s.done:
			return nil
		default:
			return ErrStoreClosed
		}
	}
}

func (st *Store) dispatch(ctx context.Context, a core.Action, s *settlement) error {
	if a == nil {
		return errors.New("dispatch of nil action")
	}
	if st.Phase() != PhaseRunning {
		return ErrStoreClosed
	}
	st.hold(s)
	select {
	case st.queue <- queued{action: a, origin: core.OriginExternal, s: s}:
		return nil
	case <-ctx.Done():
		st.release(s)
		return ctx.Err()
	case <-st.loopDone:
		st.release(s)
		return ErrStoreClosed
	}
}

// hold takes one in-flight slot, on the settlement chain when s is non-nil
// and always on the store-wide tracker.
func (st *Store) hold(s *settlement) {
	st.tracker.add()
	if s != nil {
		s.begin()
	}
}

func (st *Store) release(s *settlement) {
	if s != nil {
		s.end()
	}
	st.tracker.done()
}

func (st *Store) loop() {
	defer close(st.loopDone)
	for {
		select {
		case item := <-st.queue:
			st.apply(item)
		case <-st.stopLoop:
			// Drain whatever is already queued, then exit.
			for {
				select {
				case item := <-st.queue:
					st.apply(item)
				default:
					return
				}
			}
		}
	}
}

// apply runs one dispatch step: assign a sequence number, reduce, publish
// the envelope to sinks, hand effects to the execution engine.
func (st *Store) apply(it queued) {
	defer st.release(it.s)

	seq := st.seq.Add(1)
	st.metrics.ActionDispatched(string(it.origin))
	st.metrics.QueueDepth(len(st.queue))

	ctx, span := st.tracer.Start(context.Background(), "store.dispatch", trace.WithAttributes(
		attribute.String("store.id", st.id),
		attribute.Int64("action.seq", int64(seq)),
		attribute.String("action.kind", it.action.Kind()),
		attribute.String("action.origin", string(it.origin)),
	))
	defer span.End()

	effects := st.reduce(it.action)

	da := core.DispatchedAction{Seq: seq, Origin: it.origin, At: st.clock.Now(), Action: it.action}
	for _, sink := range st.sinks {
		if err := sink.Publish(ctx, da); err != nil {
			st.metrics.SinkFailure()
			st.logger.Warn("sink publish failed",
				zap.Uint64("seq", seq),
				zap.String("action", it.action.Kind()),
				zap.Error(err))
		}
	}

	for _, eff := range effects {
		st.spawn(eff, it.s)
	}
}

// reduce invokes the reducer under the state lock. A reducer panic is a
// programming error: it is logged with the stack and counted, and the loop
// keeps serving. The state keeps whatever mutations happened before the
// panic.
func (st *Store) reduce(a core.Action) (effects []core.Effect) {
	defer func() {
		if r := recover(); r != nil {
			st.metrics.EffectFailure("reduce_panic")
			st.logger.Error("reducer panic",
				zap.String("action", a.Kind()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			effects = nil
		}
	}()
	start := time.Now()
	st.stateMu.Lock()
	defer func() {
		st.stateMu.Unlock()
		st.metrics.ReduceDuration(time.Since(start))
	}()
	return st.reducer.Reduce(st.state, a, st.env)
}

// Shutdown broadcasts cancellation to every outstanding unit of work, waits
// (bounded by the configured timeout and ctx) for them to settle, then stops
// the loop. Units that do not acknowledge in time are reported through
// ShutdownError but never block shutdown indefinitely. Repeat calls return
// the first result.
func (st *Store) Shutdown(ctx context.Context) error {
	st.shutdownOnce.Do(func() {
		defer close(st.shutdownDone)
		if err := st.transition(PhaseShuttingDown); err != nil {
			st.shutdownErr = err
			return
		}
		st.logger.Info("store shutting down",
			zap.String("store_id", st.id),
			zap.Int("inflight", st.tracker.count()))
		st.effectCancel()

		select {
		case <-st.tracker.quiesced():
		case <-st.clock.After(st.shutdownTimeout):
			st.shutdownErr = &ShutdownError{Unsettled: st.tracker.count()}
		case <-ctx.Done():
			st.shutdownErr = errors.Join(ctx.Err(), &ShutdownError{Unsettled: st.tracker.count()})
		}

		close(st.stopLoop)
		<-st.loopDone
		_ = st.transition(PhaseStopped)
		st.logger.Info("store stopped",
			zap.String("store_id", st.id),
			zap.Uint64("last_seq", st.seq.Load()),
			zap.Error(st.shutdownErr))
	})
	<-st.shutdownDone
	return st.shutdownErr
}
