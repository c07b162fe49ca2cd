package promise

import (
	"sync/atomic"
	"time"
)

// Delay returns a promise that fulfills with v after d elapses, using
// time.AfterFunc as its timer source. Cancelling it before it fires stops
// the underlying timer.
func Delay[V any](d time.Duration, v V) Promise[V, error] {
	p, r := New[V, error]()
	timer := time.AfterFunc(d, func() { r.Fulfill(v) })
	r.OnRequestCancel(Immediate, func() {
		timer.Stop()
		r.Cancel()
	})
	return p
}

// Timeout wraps inner so that if it has not settled within d, the returned
// promise rejects with a *TimeoutError. cancelInner controls whether inner
// is also request-cancelled when the deadline fires, matching the external
// timeout-utility policy described in spec.md §5.
func Timeout[V any](inner Promise[V, error], d time.Duration, cancelInner bool) Promise[V, error] {
	p, r := New[V, error]()
	var fired atomic.Bool
	timer := time.AfterFunc(d, func() {
		if fired.CompareAndSwap(false, true) {
			if cancelInner {
				inner.RequestCancel()
			}
			r.Reject(&TimeoutError{Message: "deadline exceeded"})
		}
	})
	inner.Always(Immediate, nil, func(outcome Outcome[V, error]) {
		if fired.CompareAndSwap(false, true) {
			timer.Stop()
			r.ResolveWithOutcome(outcome)
		}
	})
	return p
}
