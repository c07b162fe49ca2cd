package promise

// This file collects aliases for names used by earlier revisions of this
// package. They forward to the current API and carry no behavior of their
// own; new code should use the names they point at.

// WhenAll is a deprecated alias for All.
//
// Deprecated: use All.
func WhenAll[V, E any](ctx Context, promises ...Promise[V, E]) Promise[[]V, E] {
	return All(ctx, promises...)
}

// WhenAny is a deprecated alias for Any.
//
// Deprecated: use Any.
func WhenAny[V any](ctx Context, promises ...Promise[V, error]) Promise[V, error] {
	return Any(ctx, promises...)
}

// Resolved is a deprecated alias for Fulfilled.
//
// Deprecated: use Fulfilled.
func Resolved[V, E any](v V) Promise[V, E] {
	return Fulfilled[V, E](v)
}

// Errored is a deprecated alias for Rejected.
//
// Deprecated: use Rejected.
func Errored[V, E any](e E) Promise[V, E] {
	return Rejected[V, E](e)
}

// Resolve is a deprecated alias for Resolver.Fulfill.
//
// Deprecated: use Resolver.Fulfill.
func (r Resolver[V, E]) Resolve(v V) {
	r.Fulfill(v)
}
