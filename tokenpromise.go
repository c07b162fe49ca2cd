// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package promise

// BindToken wires p to t so that t's invalidation (or cancel-without-
// invalidate) request-cancels p. This is the plain building block; most
// callers want NewTokenController instead.
func BindToken[V, E any](p Promise[V, E], t *Token) {
	t.RequestCancelOnInvalidate(p.Cancellable())
}

// TokenController pairs an invalidation Token with a Promise it governs,
// the way an AbortController pairs a mutable controller with the AbortSignal
// its holders observe: the controller side calls Cancel, downstream code
// only ever sees the Promise and, if it wants to observe gating directly,
// the Token via Token().
type TokenController[V, E any] struct {
	token *Token
	p     Promise[V, E]
	r     Resolver[V, E]
}

// NewTokenController creates a fresh Promise/Resolver pair along with a
// Token bound to it: invalidating the token request-cancels the promise.
// The token is created in explicit-invalidate mode, since its lifetime is
// owned by the returned controller rather than by GC reachability.
func NewTokenController[V, E any]() *TokenController[V, E] {
	p, r := New[V, E]()
	t := NewToken(WithExplicitInvalidate())
	BindToken(p, t)
	return &TokenController[V, E]{token: t, p: p, r: r}
}

// Promise returns the governed promise.
func (c *TokenController[V, E]) Promise() Promise[V, E] { return c.p }

// Resolver returns the exclusive resolver for the governed promise.
func (c *TokenController[V, E]) Resolver() Resolver[V, E] { return c.r }

// Token returns the underlying invalidation token, for callers that want to
// gate their own additional observers on the same signal.
func (c *TokenController[V, E]) Token() *Token { return c.token }

// Cancel invalidates the token, which in turn request-cancels the governed
// promise if it is still pending.
func (c *TokenController[V, E]) Cancel() { c.token.Invalidate() }

// Cancelled reports whether Cancel has been called.
func (c *TokenController[V, E]) Cancelled() bool { return c.token.core.invalidatedOnce.Load() }
