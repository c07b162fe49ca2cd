// Package promise provides a promise/future library with first-class
// cancellation, invalidation tokens, and explicit execution contexts.
//
// # Architecture
//
// A [Promise] represents a value that will eventually settle to one of
// three terminal outcomes: fulfilled with a value, rejected with an
// error, or cancelled. Settlement invokes registered observers on chosen
// [Context]s.
//
// The concurrency core is a graph of promise cells linked by observer
// callbacks:
//
//   - an intrusive lock-free singly-linked stack (stack.go) backs every
//     observer list, cancel-request list, and token cancellable/chain
//     list in the package;
//   - the promise cell (cell.go) is an atomic state machine holding at
//     most one settled outcome, a callback list, a cancel-request list,
//     and a flagged observer counter;
//   - [Context] (context.go) describes where a callback runs: a priority
//     class, a serial/concurrent queue, a task queue, immediate
//     (synchronous), or the coalescing main context;
//   - [Token] (token.go) is a generation counter plus a list of
//     cancellables to auto-cancel and a chain of downstream tokens, used
//     to gate and revoke callbacks across promise chains;
//   - [Promise], [Resolver], and [Cancellable] (promise.go) are the
//     public handle types, along with the combinator methods (Then,
//     Recover, Always, Tap, OnCancel, ...); the combinators that change
//     the value or error type (Map, FlatMap, MapError, ...) are free
//     functions in xform.go.
//
// # Non-goals
//
// The core is not a cooperative task scheduler: it owns no threads of
// its own and does not define a fiber model. It is not a reactive stream
// (no back-pressure, no multi-value emission). It does not attempt
// structured cancellation across unrelated promise trees.
//
// # Thread safety
//
// Every exported type in this package is safe for concurrent use from
// any goroutine. Resolving, cancelling, and observing a promise may all
// race; the cell's CAS-only state machine makes exactly one of those
// races win, deterministically (see cell.go).
//
// # Usage
//
//	p, r := promise.New[int, error]()
//	go func() {
//	    r.Fulfill(42)
//	}()
//
//	child := promise.Map(p, promise.Immediate, nil, func(v int) int {
//	    return v + 1
//	})
//
//	outcome, ok := child.Result()
package promise
