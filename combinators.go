package promise

import "sync/atomic"

// All resolves once every input promise has a Value, adopting the slice of
// values in input order; it adopts the first Error or Cancelled seen from
// any input (trivial over the core, per spec.md §1's scope note).
func All[V, E any](ctx Context, promises ...Promise[V, E]) Promise[[]V, E] {
	p, r := New[[]V, E]()
	if len(promises) == 0 {
		r.Fulfill(nil)
		return p
	}
	values := make([]V, len(promises))
	var remaining atomic.Int64
	remaining.Store(int64(len(promises)))
	var settled atomic.Bool
	for i, in := range promises {
		i := i
		in.Always(ctx, nil, func(outcome Outcome[V, E]) {
			switch {
			case outcome.IsValue():
				v, _ := outcome.Value()
				values[i] = v
				if remaining.Add(-1) == 0 && settled.CompareAndSwap(false, true) {
					r.Fulfill(values)
				}
			case outcome.IsError():
				if settled.CompareAndSwap(false, true) {
					e, _ := outcome.Error()
					r.Reject(e)
				}
			default:
				if settled.CompareAndSwap(false, true) {
					r.Cancel()
				}
			}
		})
	}
	return p
}

// Race adopts whichever input promise settles first, in any discriminant.
func Race[V, E any](ctx Context, promises ...Promise[V, E]) Promise[V, E] {
	p, r := New[V, E]()
	var settled atomic.Bool
	for _, in := range promises {
		in.Always(ctx, nil, func(outcome Outcome[V, E]) {
			if settled.CompareAndSwap(false, true) {
				r.ResolveWithOutcome(outcome)
			}
		})
	}
	return p
}

// AllSettled resolves once every input promise has settled, adopting the
// slice of outcomes in input order. Never itself rejects or cancels.
func AllSettled[V, E any](ctx Context, promises ...Promise[V, E]) Promise[[]Outcome[V, E], E] {
	p, r := New[[]Outcome[V, E], E]()
	if len(promises) == 0 {
		r.Fulfill(nil)
		return p
	}
	outcomes := make([]Outcome[V, E], len(promises))
	var remaining atomic.Int64
	remaining.Store(int64(len(promises)))
	for i, in := range promises {
		i := i
		in.Always(ctx, nil, func(outcome Outcome[V, E]) {
			outcomes[i] = outcome
			if remaining.Add(-1) == 0 {
				r.Fulfill(outcomes)
			}
		})
	}
	return p
}

// Any resolves with the first Value seen from any input promise. If every
// input rejects or cancels, the child rejects with an *AggregateError
// collecting each branch's error (ErrNoPromiseResolved standing in for a
// Cancelled branch), mirroring Promise.any's AggregateError contract.
func Any[V any](ctx Context, promises ...Promise[V, error]) Promise[V, error] {
	p, r := New[V, error]()
	if len(promises) == 0 {
		r.Reject(&AggregateError{Errors: []error{ErrNoPromiseResolved}})
		return p
	}
	errs := make([]error, len(promises))
	var remaining atomic.Int64
	remaining.Store(int64(len(promises)))
	var settled atomic.Bool
	for i, in := range promises {
		i := i
		in.Always(ctx, nil, func(outcome Outcome[V, error]) {
			switch {
			case outcome.IsValue():
				if settled.CompareAndSwap(false, true) {
					v, _ := outcome.Value()
					r.Fulfill(v)
				}
			case outcome.IsError():
				e, _ := outcome.Error()
				errs[i] = e
				if remaining.Add(-1) == 0 && settled.CompareAndSwap(false, true) {
					r.Reject(&AggregateError{Errors: errs})
				}
			default:
				errs[i] = ErrNoPromiseResolved
				if remaining.Add(-1) == 0 && settled.CompareAndSwap(false, true) {
					r.Reject(&AggregateError{Errors: errs})
				}
			}
		})
	}
	return p
}
