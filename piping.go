package promise

// pipeCellInto attaches an observer on inner that re-resolves target, and
// wires target's cancel-request list to forward to inner's cancellable --
// the piping protocol of §4.5: "attach an observer on promise that
// re-resolves the receiver's cell; also register a cancel-request listener
// on the receiver that forwards to promise's cancellable."
func pipeCellInto[V, E any](target *cell[V, E], inner Promise[V, E]) {
	inner.ref.c.enqueueObserver(observerEntry[V, E]{ctx: Immediate, cellID: inner.ref.c.id, fn: func(outcome Outcome[V, E], sync bool) {
		target.resolveOrCancel(outcome)
	}}, true)
	innerCancellable := inner.Cancellable()
	target.enqueueCancelRequest(cancelRequestEntry{ctx: Immediate, cellID: target.id, fn: innerCancellable.RequestCancel})
}

// ResolveWithPromise implements resolver.resolve_with(promise): the
// receiver adopts promise's eventual outcome, and a cancel request on the
// receiver forwards to promise.
func (r Resolver[V, E]) ResolveWithPromise(promise Promise[V, E]) {
	pipeCellInto(r.ref.c, promise)
}
