package promise

// Map, FlatMap, MapError, FlatMapError, and MapResult/FlatMapResult change
// the value and/or error type, which Go methods cannot express (a method
// cannot introduce new type parameters beyond its receiver's), so they are
// free functions rather than Promise[V, E] methods.

// Map adopts Value(f(v)) when the parent is a Value; Error and Cancelled
// pass through (type-converted). If token is gated closed, the child is
// Cancelled instead of running f.
func Map[V, E, W any](p Promise[V, E], ctx Context, token *Token, f func(V) W) Promise[W, E] {
	return attachTransformX(p, ctx, token,
		func(v V) Outcome[W, E] { return ValueOutcome[W, E](f(v)) },
		func(e E) Outcome[W, E] { return ErrorOutcome[W, E](e) },
		func() Outcome[W, E] { return CancelledOutcome[W, E]() },
	)
}

// TryMap is Map's typed-failure variant.
func TryMap[V, E, W any](p Promise[V, E], ctx Context, token *Token, f func(V) Try[W, E]) Promise[W, E] {
	return attachTransformX(p, ctx, token,
		func(v V) Outcome[W, E] { return f(v).outcome() },
		func(e E) Outcome[W, E] { return ErrorOutcome[W, E](e) },
		func() Outcome[W, E] { return CancelledOutcome[W, E]() },
	)
}

// FlatMap pipes f(v) into the child when the parent is a Value; Error and
// Cancelled pass through.
func FlatMap[V, E, W any](p Promise[V, E], ctx Context, token *Token, f func(V) Promise[W, E]) Promise[W, E] {
	return attachFlatTransformX(p, ctx, token,
		func(v V) (Promise[W, E], *Outcome[W, E]) { inner := f(v); return inner, nil },
		func(e E) (Promise[W, E], *Outcome[W, E]) { o := ErrorOutcome[W, E](e); return Promise[W, E]{}, &o },
		func() (Promise[W, E], *Outcome[W, E]) { o := CancelledOutcome[W, E](); return Promise[W, E]{}, &o },
	)
}

// TryFlatMap is FlatMap's typed-failure variant: f may fail outright
// instead of producing an inner promise to pipe.
func TryFlatMap[V, E, W any](p Promise[V, E], ctx Context, token *Token, f func(V) (Promise[W, E], E, bool)) Promise[W, E] {
	return attachFlatTransformX(p, ctx, token,
		func(v V) (Promise[W, E], *Outcome[W, E]) {
			inner, failure, isFailure := f(v)
			if isFailure {
				o := ErrorOutcome[W, E](failure)
				return Promise[W, E]{}, &o
			}
			return inner, nil
		},
		func(e E) (Promise[W, E], *Outcome[W, E]) { o := ErrorOutcome[W, E](e); return Promise[W, E]{}, &o },
		func() (Promise[W, E], *Outcome[W, E]) { o := CancelledOutcome[W, E](); return Promise[W, E]{}, &o },
	)
}

// MapError adopts Error(f(e)) when the parent is an Error; Value and
// Cancelled pass through (type-converted).
func MapError[V, E, E2 any](p Promise[V, E], ctx Context, token *Token, f func(E) E2) Promise[V, E2] {
	return attachTransformX(p, ctx, token,
		func(v V) Outcome[V, E2] { return ValueOutcome[V, E2](v) },
		func(e E) Outcome[V, E2] { return ErrorOutcome[V, E2](f(e)) },
		func() Outcome[V, E2] { return CancelledOutcome[V, E2]() },
	)
}

// FlatMapError pipes f(e) into the child when the parent is an Error;
// Value and Cancelled pass through.
func FlatMapError[V, E, E2 any](p Promise[V, E], ctx Context, token *Token, f func(E) Promise[V, E2]) Promise[V, E2] {
	return attachFlatTransformX(p, ctx, token,
		func(v V) (Promise[V, E2], *Outcome[V, E2]) { o := ValueOutcome[V, E2](v); return Promise[V, E2]{}, &o },
		func(e E) (Promise[V, E2], *Outcome[V, E2]) { inner := f(e); return inner, nil },
		func() (Promise[V, E2], *Outcome[V, E2]) { o := CancelledOutcome[V, E2](); return Promise[V, E2]{}, &o },
	)
}

// TryMapError is MapError's typed-failure variant.
func TryMapError[V, E, E2 any](p Promise[V, E], ctx Context, token *Token, f func(E) Try[V, E2]) Promise[V, E2] {
	return attachTransformX(p, ctx, token,
		func(v V) Outcome[V, E2] { return ValueOutcome[V, E2](v) },
		func(e E) Outcome[V, E2] { return f(e).outcome() },
		func() Outcome[V, E2] { return CancelledOutcome[V, E2]() },
	)
}

// TryFlatMapError is FlatMapError's typed-failure variant.
func TryFlatMapError[V, E, E2 any](p Promise[V, E], ctx Context, token *Token, f func(E) (Promise[V, E2], E2, bool)) Promise[V, E2] {
	return attachFlatTransformX(p, ctx, token,
		func(v V) (Promise[V, E2], *Outcome[V, E2]) { o := ValueOutcome[V, E2](v); return Promise[V, E2]{}, &o },
		func(e E) (Promise[V, E2], *Outcome[V, E2]) {
			inner, failure, isFailure := f(e)
			if isFailure {
				o := ErrorOutcome[V, E2](failure)
				return Promise[V, E2]{}, &o
			}
			return inner, nil
		},
		func() (Promise[V, E2], *Outcome[V, E2]) { o := CancelledOutcome[V, E2](); return Promise[V, E2]{}, &o },
	)
}

// MapResult adopts f(result) unconditionally, regardless of discriminant.
func MapResult[V, E, W, E2 any](p Promise[V, E], ctx Context, token *Token, f func(Outcome[V, E]) Outcome[W, E2]) Promise[W, E2] {
	return attachTransformX(p, ctx, token,
		func(v V) Outcome[W, E2] { return f(ValueOutcome[V, E](v)) },
		func(e E) Outcome[W, E2] { return f(ErrorOutcome[V, E](e)) },
		func() Outcome[W, E2] { return f(CancelledOutcome[V, E]()) },
	)
}

// FlatMapResult pipes f(result) into the child unconditionally.
func FlatMapResult[V, E, W, E2 any](p Promise[V, E], ctx Context, token *Token, f func(Outcome[V, E]) Promise[W, E2]) Promise[W, E2] {
	return attachFlatTransformX(p, ctx, token,
		func(v V) (Promise[W, E2], *Outcome[W, E2]) { return f(ValueOutcome[V, E](v)), nil },
		func(e E) (Promise[W, E2], *Outcome[W, E2]) { return f(ErrorOutcome[V, E](e)), nil },
		func() (Promise[W, E2], *Outcome[W, E2]) { return f(CancelledOutcome[V, E]()), nil },
	)
}

func attachTransformX[V, E, W, E2 any](p Promise[V, E], ctx Context, token *Token, onValue func(V) Outcome[W, E2], onError func(E) Outcome[W, E2], onCancelled func() Outcome[W, E2]) Promise[W, E2] {
	parentCell := p.ref.c
	child := newCell[W, E2]()
	hasToken := token != nil
	var capturedGen uint64
	if hasToken {
		capturedGen = token.Generation()
	}
	run := func(outcome Outcome[V, E], sync bool) {
		if hasToken && !token.gateOpen(capturedGen) {
			child.resolveOrCancel(CancelledOutcome[W, E2]())
			return
		}
		var result Outcome[W, E2]
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

// attachFlatTransformX is attachTransformX's piping counterpart: each branch
// either yields an inner promise to pipe into the child, or a direct
// Outcome (the non-nil *Outcome[W, E2] return) when no piping is needed.
// The child's cancel-request list forwards to whichever inner promise is
// currently piped, per §5's "cancellation propagation downward."
func attachFlatTransformX[V, E, W, E2 any](
	p Promise[V, E], ctx Context, token *Token,
	onValue func(V) (Promise[W, E2], *Outcome[W, E2]),
	onError func(E) (Promise[W, E2], *Outcome[W, E2]),
	onCancelled func() (Promise[W, E2], *Outcome[W, E2]),
) Promise[W, E2] {
	parentCell := p.ref.c
	child := newCell[W, E2]()
	hasToken := token != nil
	var capturedGen uint64
	if hasToken {
		capturedGen = token.Generation()
	}
	run := func(outcome Outcome[V, E], sync bool) {
		if hasToken && !token.gateOpen(capturedGen) {
			child.resolveOrCancel(CancelledOutcome[W, E2]())
			return
		}
		var inner Promise[W, E2]
		var direct *Outcome[W, E2]
		switch {
		case outcome.IsValue():
			v, _ := outcome.Value()
			inner, direct = onValue(v)
		case outcome.IsError():
			e, _ := outcome.Error()
			inner, direct = onError(e)
		default:
			inner, direct = onCancelled()
		}
		if direct != nil {
			child.resolveOrCancel(*direct)
			return
		}
		pipeCellInto(child, inner)
	}
	parentCell.enqueueObserver(observerEntry[V, E]{ctx: ctx, cellID: parentCell.id, fn: run}, true)
	child.enqueueCancelRequest(cancelRequestEntry{ctx: Immediate, cellID: child.id, fn: parentCell.decrementAndMaybePropagate})
	return newPromiseHandle(child)
}
