// Package uow provides a minimal, composable unit-of-work abstraction for Go.
//
// A unit of work is an inert description of a computation that needs a
// transactional context to produce a value. Nothing runs while you compose:
// Bind, Map and friends only build a bigger description. Evaluation happens
// exactly once, when a context provider passes a live Context to the
// composed value inside its run boundary.
//
// # What is accumulated?
//
// Besides the value, every unit of work carries a list of deferred effects —
// zero-argument actions queued with PostCommit during composition. The
// provider invokes them, in insertion order, only after a successful commit.
// Effects queued during a failed run are discarded, never invoked.
//
// # Why not just call the database?
//
// Go has no comprehension syntax, so the sequencing is explicit: Bind takes
// a continuation, Then discards the intermediate value, Sequence folds a
// slice. The payoff is the same as in any effect system — the business logic
// stays pure and testable, and the commit/rollback/notify choreography lives
// in one place.
//
// Example:
//
//	reserve := uow.Bind(database.Find[Order]("order-7"), func(o mo.Option[Order]) uow.UnitOfWork[uow.Unit] {
//		order, ok := o.Get()
//		if !ok {
//			return uow.Fail[uow.Unit](ErrNoSuchOrder)
//		}
//		return uow.Then(
//			database.Put("order-7", order.Reserved()),
//			uow.PostCommit(func() { notify(order.Customer) }),
//		)
//	})
//	_, err := database.Run(provider, reserve) // nothing happened before this line
package uow
