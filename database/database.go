// Package database owns the run boundary for units of work: it begins a
// transaction, evaluates the composed unit of work against it, commits and
// fires the accumulated post-commit effects on success, or rolls back and
// discards them on failure. Each run owns an independent transaction for its
// whole duration; no transaction is ever reused.
package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rickb777/date/v2/timespan"
	"go.uber.org/zap"

	"github.com/composably/unitwork/uow"
)

// State tracks where a run is in its lifecycle. Transitions are
// Idle -> InTransaction -> Committed | RolledBack, one way, per run.
type State int32

const (
	StateIdle State = iota
	StateInTransaction
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInTransaction:
		return "in-transaction"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled-back"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// RunError is the single failure kind a run can report. It wraps whatever
// the evaluation raised, including recovered panics.
type RunError struct {
	RunID uuid.UUID
	cause error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %s rolled back: %v", e.RunID, e.cause)
}

func (e *RunError) Unwrap() error { return e.cause }

// Report describes a finished run.
type Report struct {
	RunID   uuid.UUID
	State   State
	Effects int
	Span    timespan.TimeSpan
}

// Provider evaluates units of work within a commit/rollback boundary over a
// Store. It is meant for single-threaded, synchronous use: one run at a
// time, each with its own transaction.
type Provider struct {
	store  Store
	logger *zap.Logger
	state  State
	last   Report
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger used for run lifecycle and effect failures.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) { p.logger = logger }
}

// New creates a provider over store. Without WithLogger it stays silent.
func New(store Store, opts ...Option) *Provider {
	p := &Provider{
		store:  store,
		logger: zap.NewNop(),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State reports the lifecycle state of the latest run.
func (p *Provider) State() State { return p.state }

// LastReport returns the report of the latest finished run.
func (p *Provider) LastReport() Report { return p.last }

// txnCtx is the uow.Context handed to units of work for one run.
type txnCtx struct {
	id  uuid.UUID
	txn Txn
}

func (c *txnCtx) ID() string { return c.id.String() }

// Run evaluates u inside a fresh transaction. On success it commits and then
// invokes every accumulated effect in insertion order; on failure it rolls
// back, discards the effects uninvoked, and returns a *RunError carrying the
// cause. Panics raised during evaluation are captured, never re-raised.
//
// An effect that panics after commit is logged and skipped; the commit
// stands and the remaining effects still run.
func Run[T any](p *Provider, u uow.UnitOfWork[T]) (T, error) {
	var zero T

	runID := uuid.New()
	start := time.Now()

	txn, err := p.store.Txn(true)
	if err != nil {
		return zero, &RunError{RunID: runID, cause: fmt.Errorf("begin transaction: %w", err)}
	}
	p.state = StateInTransaction
	p.logger.Debug("transaction begun", zap.String("run_id", runID.String()))

	v, effects, err := eval(u, &txnCtx{id: runID, txn: txn})
	if err == nil {
		err = txn.Commit()
	}
	if err != nil {
		txn.Abort()
		p.finish(runID, StateRolledBack, 0, start)
		p.logger.Debug("transaction rolled back",
			zap.String("run_id", runID.String()),
			zap.Int("discarded_effects", len(effects)),
			zap.Error(err),
		)
		return zero, &RunError{RunID: runID, cause: err}
	}

	p.finish(runID, StateCommitted, len(effects), start)
	p.logger.Debug("transaction committed",
		zap.String("run_id", runID.String()),
		zap.Int("effects", len(effects)),
	)
	for i, effect := range effects {
		p.invoke(runID, i, effect)
	}
	return v, nil
}

func (p *Provider) finish(runID uuid.UUID, state State, effects int, start time.Time) {
	p.state = state
	p.last = Report{
		RunID:   runID,
		State:   state,
		Effects: effects,
		Span:    timespan.BetweenTimes(start, time.Now()),
	}
}

// eval runs the unit of work with panic recovery, so a panicking step turns
// into an ordinary rollback instead of escaping the run boundary.
func eval[T any](u uow.UnitOfWork[T], ctx uow.Context) (v T, effects []uow.Effect, err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = fmt.Errorf("panic during evaluation: %w", rerr)
			} else {
				err = fmt.Errorf("panic during evaluation: %v", r)
			}
		}
	}()
	return u(ctx)
}

// invoke runs one post-commit effect with log-and-continue semantics: the
// context is already committed, so an effect failure must not undo it.
func (p *Provider) invoke(runID uuid.UUID, idx int, effect uow.Effect) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("post-commit effect panicked",
				zap.String("run_id", runID.String()),
				zap.Int("effect_index", idx),
				zap.Any("panic", r),
			)
		}
	}()
	effect()
}
