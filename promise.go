package promise

import (
	"runtime"
	"weak"
)

// promiseRef and resolverRef are the heap objects runtime.AddCleanup
// attaches to. Promise[V, E] and Resolver[V, E] are small value types Go
// copies freely (the "shared handle" of §3), so the cleanup cannot be tied
// to a Promise/Resolver value directly -- every copy must share the same
// *promiseRef/*resolverRef pointer for GC reachability to correctly track
// "is there still a handle anywhere," the runtime-backed weak-pointer
// option spec.md's Design Notes §9 offers as an alternative to a manual
// strong/weak refcount block.
type promiseRef[V, E any] struct{ c *cell[V, E] }
type resolverRef[V, E any] struct{ c *cell[V, E] }

// Promise represents a value that will eventually settle to a Value,
// Error, or Cancelled outcome.
type Promise[V, E any] struct {
	ref *promiseRef[V, E]
}

// Resolver is the exclusive right to produce a cell's terminal outcome.
type Resolver[V, E any] struct {
	ref *resolverRef[V, E]
}

// Cancellable is a weak-like handle that can request cancellation without
// keeping the cell reachable on its own.
type Cancellable[V, E any] struct {
	weakCell weak.Pointer[cell[V, E]]
}

func (c Cancellable[V, E]) requestCancel() {
	if cl := c.weakCell.Value(); cl != nil {
		cl.requestCancel()
	}
}

func (c Cancellable[V, E]) expired() bool { return c.weakCell.Value() == nil }

// RequestCancel calls request_cancel on the underlying cell, if it is
// still reachable.
func (c Cancellable[V, E]) RequestCancel() { c.requestCancel() }

func newPromiseHandle[V, E any](c *cell[V, E]) Promise[V, E] {
	ref := &promiseRef[V, E]{c: c}
	runtime.AddCleanup(ref, func(cl *cell[V, E]) { cl.seal() }, c)
	return Promise[V, E]{ref: ref}
}

func newResolverHandle[V, E any](c *cell[V, E]) Resolver[V, E] {
	ref := &resolverRef[V, E]{c: c}
	runtime.AddCleanup(ref, func(cl *cell[V, E]) { cl.resolveOrCancel(CancelledOutcome[V, E]()) }, c)
	return Resolver[V, E]{ref: ref}
}

// New creates an Empty cell and returns both handles (promise_with_resolver
// in spec.md).
func New[V, E any]() (Promise[V, E], Resolver[V, E]) {
	c := newCell[V, E]()
	return newPromiseHandle(c), newResolverHandle(c)
}

// On creates a cell and dispatches body(resolver) on ctx (promise_on in
// spec.md).
func On[V, E any](ctx Context, body func(Resolver[V, E])) Promise[V, E] {
	p, r := New[V, E]()
	ctx.execute(false, func() { body(r) })
	return p
}

// Fulfilled returns an already-Resolved promise holding v.
func Fulfilled[V, E any](v V) Promise[V, E] {
	c := newCell[V, E]()
	c.resolveOrCancel(ValueOutcome[V, E](v))
	return newPromiseHandle(c)
}

// Rejected returns an already-Resolved promise holding e.
func Rejected[V, E any](e E) Promise[V, E] {
	c := newCell[V, E]()
	c.resolveOrCancel(ErrorOutcome[V, E](e))
	return newPromiseHandle(c)
}

// CancelledPromise returns an already-Cancelled promise.
func CancelledPromise[V, E any]() Promise[V, E] {
	c := newCell[V, E]()
	c.resolveOrCancel(CancelledOutcome[V, E]())
	return newPromiseHandle(c)
}

// Delayed creates a cell in the Delayed state: no observer registered on it
// runs (not even a synchronously-terminal one) until Start is called.
func Delayed[V, E any]() (Promise[V, E], Resolver[V, E]) {
	c := newDelayedCell[V, E]()
	return newPromiseHandle(c), newResolverHandle(c)
}

// Start transitions a Delayed promise to Empty. A no-op on a promise that
// was not created via Delayed.
func (p Promise[V, E]) Start() { p.ref.c.start() }

// Result returns the settled outcome and true iff the cell is terminal.
func (p Promise[V, E]) Result() (Outcome[V, E], bool) { return p.ref.c.result() }

// RequestCancel is advisory: it triggers the registered cancel-request
// closures but does not by itself resolve the cell.
func (p Promise[V, E]) RequestCancel() { p.ref.c.requestCancel() }

// Cancellable returns a weak-like handle good for RequestCancel without
// pinning the cell alive.
func (p Promise[V, E]) Cancellable() Cancellable[V, E] {
	return Cancellable[V, E]{weakCell: weak.Make(p.ref.c)}
}

// Release seals the cell's observer counter immediately, as if this were
// the last live Promise handle. Deterministic counterpart to relying on
// runtime.AddCleanup, which fires at an unspecified later time.
func (p Promise[V, E]) Release() { p.ref.c.seal() }

// Equal reports whether p and other share the same underlying cell.
func (p Promise[V, E]) Equal(other Promise[V, E]) bool { return p.ref.c == other.ref.c }

// Fulfill resolves the cell with a Value outcome.
func (r Resolver[V, E]) Fulfill(v V) { r.ref.c.resolveOrCancel(ValueOutcome[V, E](v)) }

// Reject resolves the cell with an Error outcome.
func (r Resolver[V, E]) Reject(e E) { r.ref.c.resolveOrCancel(ErrorOutcome[V, E](e)) }

// Cancel resolves the cell with a Cancelled outcome.
func (r Resolver[V, E]) Cancel() { r.ref.c.resolveOrCancel(CancelledOutcome[V, E]()) }

// ResolveWithOutcome resolves the cell with an already-computed outcome.
func (r Resolver[V, E]) ResolveWithOutcome(o Outcome[V, E]) { r.ref.c.resolveOrCancel(o) }

// OnRequestCancel registers f to run on ctx the next time RequestCancel is
// called on this cell.
func (r Resolver[V, E]) OnRequestCancel(ctx Context, f func()) {
	r.ref.c.enqueueCancelRequest(cancelRequestEntry{ctx: ctx, cellID: r.ref.c.id, fn: f})
}

// HasRequestedCancel reports whether the cell is currently Cancelling or
// Cancelled. A cell that was cancel-requested and then resolved with a
// value or error reports false.
func (r Resolver[V, E]) HasRequestedCancel() bool {
	switch r.ref.c.State() {
	case cellCancelling, cellCancelled:
		return true
	default:
		return false
	}
}

// Discard cancels the cell, as dropping the resolver without resolving
// would, and logs a diagnostic if nobody was listening -- the closest
// analog this core has to the source's unhandled-rejection tracking, since
// the core owns no scheduler to run that check on.
func (r Resolver[V, E]) Discard() {
	c := r.ref.c
	unobserved := c.observers.peek() == nil && c.State() == cellEmpty
	if unobserved {
		if l := c.logger; l != nil && l.IsEnabled(LevelWarn) {
			l.Log(LogEntry{Level: LevelWarn, Category: "resolver", CellID: c.id, Message: "resolver discarded with no observers attached"})
		}
	}
	c.resolveOrCancel(CancelledOutcome[V, E]())
}

// --- combinators that keep V and E unchanged --------------------------------

// Then runs f on ctx when the parent is a Value, gated by token; the child
// always adopts the parent's outcome.
func (p Promise[V, E]) Then(ctx Context, token *Token, f func(V)) Promise[V, E] {
	return attachObserverOnly(p, ctx, token, f, nil, nil)
}

// Catch runs f on ctx when the parent is an Error, gated by token; the
// child always adopts the parent's outcome.
func (p Promise[V, E]) Catch(ctx Context, token *Token, f func(E)) Promise[V, E] {
	return attachObserverOnly(p, ctx, token, nil, f, nil)
}

// OnCancel runs f on ctx when the parent is Cancelled, gated by token; the
// child always adopts the parent's outcome.
func (p Promise[V, E]) OnCancel(ctx Context, token *Token, f func()) Promise[V, E] {
	return attachObserverOnly(p, ctx, token, nil, nil, f)
}

// Always runs f(result) on ctx regardless of discriminant, gated by token;
// the child adopts the same result.
func (p Promise[V, E]) Always(ctx Context, token *Token, f func(Outcome[V, E])) Promise[V, E] {
	return attachObserverOnly(p, ctx, token,
		func(v V) { f(ValueOutcome[V, E](v)) },
		func(e E) { f(ErrorOutcome[V, E](e)) },
		func() { f(CancelledOutcome[V, E]()) },
	)
}

// Recover runs f on Error and adopts Value(f(e)); Value and Cancelled pass
// through unchanged.
func (p Promise[V, E]) Recover(ctx Context, token *Token, f func(E) V) Promise[V, E] {
	return attachTransform(p, ctx, token,
		func(v V) Outcome[V, E] { return ValueOutcome[V, E](v) },
		func(e E) Outcome[V, E] { return ValueOutcome[V, E](f(e)) },
		func() Outcome[V, E] { return CancelledOutcome[V, E]() },
	)
}

// TryRecover is Recover's typed-failure variant: f may itself fail,
// producing an Error instead of a Value.
func (p Promise[V, E]) TryRecover(ctx Context, token *Token, f func(E) Try[V, E]) Promise[V, E] {
	return attachTransform(p, ctx, token,
		func(v V) Outcome[V, E] { return ValueOutcome[V, E](v) },
		func(e E) Outcome[V, E] { return f(e).outcome() },
		func() Outcome[V, E] { return CancelledOutcome[V, E]() },
	)
}

// Tap runs f(result) on ctx for side effects and returns the receiver
// itself unchanged -- it registers no cancel-propagating observer, mirroring
// the no-arg tap() row of §4.5.
func (p Promise[V, E]) Tap(ctx Context, f func(Outcome[V, E])) Promise[V, E] {
	run := func(outcome Outcome[V, E], sync bool) { f(outcome) }
	p.ref.c.enqueueObserver(observerEntry[V, E]{ctx: ctx, cellID: p.ref.c.id, fn: run}, false)
	return p
}

// IgnoringCancel mirrors the parent but ignores RequestCancel calls made
// directly on the returned child.
func (p Promise[V, E]) IgnoringCancel(ctx Context, token *Token) Promise[V, E] {
	child := attachObserverOnly(p, ctx, token, nil, nil, nil)
	// Swallow the child's own cancel-request list: nothing will ever drain
	// through it, so RequestCancel on the child has no effect.
	child.ref.c.cancelRequests.swapAndSeal()
	return child
}

// PropagatingCancellation pre-seals the returned child so the observer
// counter alone dictates propagation: once every current child-observer has
// requested cancel, onReq fires (exactly once) and the cancel propagates to
// the parent, ignoring whether the parent still has live strong handles.
func (p Promise[V, E]) PropagatingCancellation(ctx Context, onReq func(Promise[V, E])) Promise[V, E] {
	parentCell := p.ref.c
	child := newCell[V, E]()
	parentCell.enqueueObserver(observerEntry[V, E]{ctx: ctx, cellID: parentCell.id, fn: func(outcome Outcome[V, E], sync bool) {
		child.resolveOrCancel(outcome)
	}}, true)
	childPromise := newPromiseHandle(child)
	child.enqueueCancelRequest(cancelRequestEntry{ctx: Immediate, cellID: child.id, fn: func() {
		if onReq != nil {
			onReq(childPromise)
		}
		parentCell.decrementIgnoringSeal()
	}})
	// Clear the alive bit without seal()'s zero-count check: the child has
	// no observers yet, and cancellation must wait until observers attach
	// and then all request cancel.
	child.observerCounter.And(^counterAliveBit)
	return childPromise
}

// --- internal helpers shared by same-type and cross-type combinators -------

func attachObserverOnly[V, E any](p Promise[V, E], ctx Context, token *Token, onValue func(V), onError func(E), onCancelled func()) Promise[V, E] {
	parentCell := p.ref.c
	child := newCell[V, E]()
	hasToken := token != nil
	var capturedGen uint64
	if hasToken {
		capturedGen = token.Generation()
	}
	run := func(outcome Outcome[V, E], sync bool) {
		if !(hasToken && !token.gateOpen(capturedGen)) {
			switch {
			case outcome.IsValue():
				if onValue != nil {
					v, _ := outcome.Value()
					onValue(v)
				}
			case outcome.IsError():
				if onError != nil {
					e, _ := outcome.Error()
					onError(e)
				}
			default:
				if onCancelled != nil {
					onCancelled()
				}
			}
		}
		child.resolveOrCancel(outcome)
	}
	parentCell.enqueueObserver(observerEntry[V, E]{ctx: ctx, cellID: parentCell.id, fn: run}, true)
	child.enqueueCancelRequest(cancelRequestEntry{ctx: Immediate, cellID: child.id, fn: parentCell.decrementAndMaybePropagate})
	return newPromiseHandle(child)
}

func attachTransform[V, E any](p Promise[V, E], ctx Context, token *Token, onValue func(V) Outcome[V, E], onError func(E) Outcome[V, E], onCancelled func() Outcome[V, E]) Promise[V, E] {
	parentCell := p.ref.c
	child := newCell[V, E]()
	hasToken := token != nil
	var capturedGen uint64
	if hasToken {
		capturedGen = token.Generation()
	}
	run := func(outcome Outcome[V, E], sync bool) {
		if hasToken && !token.gateOpen(capturedGen) {
			child.resolveOrCancel(CancelledOutcome[V, E]())
			return
		}
		var result Outcome[V, E]
		switch {
		case outcome.IsValue():
			v, _ := outcome.Value()
			result = onValue(v)
		case outcome.IsError():
			e, _ := outcome.Error()
			result = onError(e)
		default:
			result = onCancelled()
		}
		child.resolveOrCancel(result)
	}
	parentCell.enqueueObserver(observerEntry[V, E]{ctx: ctx, cellID: parentCell.id, fn: run}, true)
	child.enqueueCancelRequest(cancelRequestEntry{ctx: Immediate, cellID: child.id, fn: parentCell.decrementAndMaybePropagate})
	return newPromiseHandle(child)
}

// Try is the typed-failure payload the tryXxx combinator family adopts as
// the child's Error when the closure itself fails.
type Try[V, E any] struct {
	value  V
	err    E
	failed bool
}

// Ok wraps a successful Try value.
func Ok[V, E any](v V) Try[V, E] { return Try[V, E]{value: v} }

// Failed wraps a failing Try value.
func Failed[V, E any](e E) Try[V, E] { return Try[V, E]{err: e, failed: true} }

func (t Try[V, E]) outcome() Outcome[V, E] {
	if t.failed {
		return ErrorOutcome[V, E](t.err)
	}
	return ValueOutcome[V, E](t.value)
}
