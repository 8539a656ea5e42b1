package database

import (
	"errors"
	"fmt"

	"github.com/samber/mo"

	"github.com/composably/unitwork/shared/helper"
	"github.com/composably/unitwork/uow"
)

// ErrForeignContext is returned when a primitive is evaluated against a
// context that did not come from a provider run.
var ErrForeignContext = errors.New("unit of work evaluated outside a provider run")

func txnOf(ctx uow.Context) (*txnCtx, error) {
	c, ok := ctx.(*txnCtx)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrForeignContext, ctx)
	}
	return c, nil
}

// Put writes value under key within the active transaction.
func Put(key string, value any) uow.UnitOfWork[uow.Unit] {
	return uow.Lift(func(ctx uow.Context) (uow.Unit, error) {
		c, err := txnOf(ctx)
		if err != nil {
			return uow.Unit{}, err
		}
		return uow.Unit{}, c.txn.Insert(key, value)
	})
}

// Find looks key up within the active transaction, yielding None when the
// key is absent and an error when the stored value is not a T.
func Find[T any](key string) uow.UnitOfWork[mo.Option[T]] {
	return uow.Lift(func(ctx uow.Context) (mo.Option[T], error) {
		c, err := txnOf(ctx)
		if err != nil {
			return mo.None[T](), err
		}
		raw, ok, err := c.txn.First(key)
		if err != nil || !ok {
			return mo.None[T](), err
		}
		v, err := helper.TypedValue[T](func() (any, error) { return raw, nil })
		if err != nil {
			return mo.None[T](), fmt.Errorf("find %q: %w", key, err)
		}
		return mo.Some(v), nil
	})
}

// Delete removes key within the active transaction. Deleting an absent key
// is not an error.
func Delete(key string) uow.UnitOfWork[uow.Unit] {
	return uow.Lift(func(ctx uow.Context) (uow.Unit, error) {
		c, err := txnOf(ctx)
		if err != nil {
			return uow.Unit{}, err
		}
		return uow.Unit{}, c.txn.Delete(key)
	})
}
