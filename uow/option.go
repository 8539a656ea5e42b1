package uow

import "github.com/samber/mo"

// Optional lifts a plain unit of work into the optional layer by wrapping
// its value in Some. Compose the result with BindOption when later steps may
// come up empty.
func Optional[T any](u UnitOfWork[T]) UnitOfWork[mo.Option[T]] {
	return Map(u, mo.Some[T])
}

// Absent is an optional-valued unit of work that is already empty.
func Absent[T any]() UnitOfWork[mo.Option[T]] {
	return Pure(mo.None[T]())
}

// BindOption sequences optional-valued units of work. An absent value
// short-circuits the remainder of the chain: the continuation is never
// constructed, the overall result is None, and the effects accumulated
// before the short-circuit point are preserved.
func BindOption[T, U any](
	u UnitOfWork[mo.Option[T]],
	f func(T) UnitOfWork[mo.Option[U]],
) UnitOfWork[mo.Option[U]] {
	return Bind(u, func(opt mo.Option[T]) UnitOfWork[mo.Option[U]] {
		v, ok := opt.Get()
		if !ok {
			return Absent[U]()
		}
		return f(v)
	})
}

// MapOption transforms the present value, keeping None as None.
func MapOption[T, U any](u UnitOfWork[mo.Option[T]], f func(T) U) UnitOfWork[mo.Option[U]] {
	return BindOption(u, func(v T) UnitOfWork[mo.Option[U]] {
		return Pure(mo.Some(f(v)))
	})
}
