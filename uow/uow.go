package uow

import "github.com/samber/lo"

// Context is the opaque transaction handle a unit of work is evaluated
// against. A provider creates one per run and never reuses it; units of work
// must not retain it beyond evaluation.
type Context interface {
	ID() string
}

// Effect is a deferred zero-argument action queued during composition and
// invoked by the provider only after a successful commit.
type Effect func()

// Unit is the result type of units of work that are run purely for their
// writes and effects.
type Unit = struct{}

// UnitOfWork is a pure, immutable description of
// Context -> (value, effects, error). Calling it is evaluation; only a
// context provider should do that, inside its run boundary.
type UnitOfWork[T any] func(ctx Context) (T, []Effect, error)

// Pure yields value without touching the context and queues no effects.
func Pure[T any](value T) UnitOfWork[T] {
	return func(Context) (T, []Effect, error) {
		return value, nil, nil
	}
}

// Fail yields err without touching the context. Binding onto a failed unit
// of work never invokes the continuation.
func Fail[T any](err error) UnitOfWork[T] {
	return func(Context) (T, []Effect, error) {
		var zero T
		return zero, nil, err
	}
}

// Lift turns a plain context-consuming function into a unit of work with an
// empty effect list.
func Lift[T any](f func(ctx Context) (T, error)) UnitOfWork[T] {
	return func(ctx Context) (T, []Effect, error) {
		v, err := f(ctx)
		return v, nil, err
	}
}

// PostCommit queues action for execution after a successful commit. The
// action itself runs outside the transaction; it must not use the Context.
func PostCommit(action Effect) UnitOfWork[Unit] {
	return func(Context) (Unit, []Effect, error) {
		return Unit{}, []Effect{action}, nil
	}
}

// Bind sequences two units of work left to right against the same context:
// the continuation sees the first value, and the effect lists are
// concatenated in order. A failure in either side short-circuits with the
// effects accumulated so far (the provider discards them on rollback).
func Bind[T, U any](u UnitOfWork[T], f func(T) UnitOfWork[U]) UnitOfWork[U] {
	return func(ctx Context) (U, []Effect, error) {
		v, first, err := u(ctx)
		if err != nil {
			var zero U
			return zero, first, err
		}
		w, second, err := f(v)(ctx)
		// Fresh slice per evaluation so reruns never share a backing array.
		return w, lo.Flatten([][]Effect{first, second}), err
	}
}

// Map transforms the produced value without needing the context.
func Map[T, U any](u UnitOfWork[T], f func(T) U) UnitOfWork[U] {
	return Bind(u, func(v T) UnitOfWork[U] {
		return Pure(f(v))
	})
}

// Then sequences two units of work, discarding the first value.
func Then[T, U any](u UnitOfWork[T], next UnitOfWork[U]) UnitOfWork[U] {
	return Bind(u, func(T) UnitOfWork[U] {
		return next
	})
}

// Tap runs fn on the produced value for inspection and passes it through
// unchanged. fn must be pure; use PostCommit for side effects.
func Tap[T any](u UnitOfWork[T], fn func(T)) UnitOfWork[T] {
	return Map(u, func(v T) T {
		fn(v)
		return v
	})
}

// Sequence folds a slice of units of work left to right, collecting the
// values. The composed unit of work stops at the first failure.
func Sequence[T any](us ...UnitOfWork[T]) UnitOfWork[[]T] {
	acc := Pure(make([]T, 0, len(us)))
	for _, u := range us {
		u := u
		acc = Bind(acc, func(vs []T) UnitOfWork[[]T] {
			return Map(u, func(v T) []T {
				return append(vs, v)
			})
		})
	}
	return acc
}
