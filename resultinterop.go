package promise

// AdaptCallback converts a single-shot (value, error)-style callback API --
// the shape common to Go SDKs that predate context/promise idioms -- into a
// Promise. register is called once with the adapter callback; whichever of
// v/err is supplied wins, and supplying neither signals *ApiMismatchError,
// per spec.md §7's "API-mismatch" error taxonomy entry.
func AdaptCallback[V any](register func(cb func(v *V, err error))) Promise[V, error] {
	p, r := New[V, error]()
	register(func(v *V, err error) {
		switch {
		case err != nil:
			r.Reject(err)
		case v != nil:
			r.Fulfill(*v)
		default:
			r.Reject(&ApiMismatchError{Message: "callback invoked with both value and error nil"})
		}
	})
	return p
}

// Await blocks the calling goroutine until p settles and returns its
// outcome as an idiomatic (value, error, cancelled) triple. This is an
// external collaborator layered on top of the core (the core itself never
// blocks): it exists purely to bridge into code that expects a synchronous
// call.
func Await[V, E any](p Promise[V, E]) (value V, err E, cancelled bool) {
	done := make(chan Outcome[V, E], 1)
	p.Always(Immediate, nil, func(outcome Outcome[V, E]) { done <- outcome })
	outcome := <-done
	switch {
	case outcome.IsValue():
		v, _ := outcome.Value()
		return v, err, false
	case outcome.IsError():
		e, _ := outcome.Error()
		return value, e, false
	default:
		return value, err, true
	}
}

// ToResultError adapts a Promise[V, error] to the shape most idiomatic Go
// callers expect directly: (value, error), folding Cancelled into
// context.Canceled-shaped reporting via the supplied cancelErr.
func ToResultError[V any](p Promise[V, error], cancelErr error) (V, error) {
	v, err, cancelled := Await(p)
	if cancelled {
		return v, cancelErr
	}
	return v, err
}
