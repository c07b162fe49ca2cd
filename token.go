package promise

import (
	"runtime"
	"sync/atomic"
	"time"
)

// cancellable is a weak-like handle a Token can request-cancel without
// pinning the underlying cell alive. Cancellable[V, E] is the only
// implementation; the interface exists so a single Token can gate
// promises of heterogeneous V/E.
type cancellable interface {
	requestCancel()
	expired() bool
}

type chainEntry struct {
	child       *Token
	includeCNWI bool
}

// tokenCore is the part of a Token that must outlive the Token value
// itself so an auto-invalidate-on-drop cleanup can still run invalidate()
// after the last Token handle becomes unreachable.
type tokenCore struct {
	generation atomic.Uint64
	// cancellables is one-shot: swap-and-sealed by the first Invalidate or
	// CancelWithoutInvalidating call, since a cancellable only ever needs
	// cancelling once. A registration arriving after that finds the list
	// sealed and cancels immediately instead (see requestCancelOnInvalidate).
	cancellables *stack[cancellable]
	// chains is append-only and permanent, per spec.md §4.4 ("Chains are
	// one-way and permanent"): it is never swapped-and-sealed, only
	// peeked, so every Invalidate/CancelWithoutInvalidating call -- not
	// just the first -- walks the complete, current set of chained
	// children.
	chains          *stack[chainEntry]
	invalidatedOnce atomic.Bool
	cancelledOnce   atomic.Bool
	logger          Logger
	id              uint64
}

func (c *tokenCore) invalidate() {
	c.generation.Add(1)
	c.invalidatedOnce.Store(true)
	if l := c.logger; l != nil && l.IsEnabled(LevelDebug) {
		l.Log(LogEntry{Level: LevelDebug, Category: "token", TokenID: c.id, Message: "invalidated", Timestamp: time.Now()})
	}
	head := c.cancellables.swapAndSeal()
	for n := head; n != nil; n = n.next {
		n.value.requestCancel()
	}
	// The chain list is never sealed (see chains' field comment): it is
	// walked with a non-consuming peek so a later Invalidate/
	// CancelWithoutInvalidating call still reaches every chained child,
	// including ones that a prior CancelWithoutInvalidating call skipped
	// because their chain excluded cancel-without-invalidate propagation.
	for n := c.chains.peek(); n != nil; n = n.next {
		n.value.child.Invalidate()
	}
}

func (c *tokenCore) cancelWithoutInvalidating() {
	c.cancelledOnce.Store(true)
	head := c.cancellables.swapAndSeal()
	for n := head; n != nil; n = n.next {
		n.value.requestCancel()
	}
	for n := c.chains.peek(); n != nil; n = n.next {
		if n.value.includeCNWI {
			n.value.child.CancelWithoutInvalidating()
		}
	}
}

func cancellableExpired(c cancellable) bool { return c.expired() }

func (c *tokenCore) requestCancelOnInvalidate(cc cancellable) {
	if _, ok := c.cancellables.pushPruning(cc, cancellableExpired); ok {
		return
	}
	cc.requestCancel()
}

// Token is a side-channel gating mechanism, independent of any single
// promise's lifecycle: a monotonic generation counter plus a list of
// cancellables to notify on invalidation and a one-way, permanent chain of
// downstream tokens.
type Token struct {
	core           *tokenCore
	autoInvalidate bool
}

// tokenIDCounter hands out the pointer-independent correlation ids carried
// by LogEntry.TokenID, mirroring eventloop/loop.go's loopIDCounter.
var tokenIDCounter atomic.Uint64

// NewToken creates a token. By default (auto-invalidate mode) dropping the
// last reference to the returned Token invokes Invalidate automatically,
// backed by runtime.AddCleanup; pass WithExplicitInvalidate() to disable
// that and require an explicit call.
func NewToken(opts ...TokenOption) *Token {
	o := resolveTokenOptions(opts)
	core := &tokenCore{
		cancellables: newStack[cancellable](),
		chains:       newStack[chainEntry](),
		logger:       o.logger,
		id:           tokenIDCounter.Add(1),
	}
	t := &Token{core: core, autoInvalidate: o.autoInvalidate}
	if o.autoInvalidate {
		runtime.AddCleanup(t, func(c *tokenCore) { c.invalidate() }, core)
	}
	return t
}

// Generation returns the token's current generation counter.
func (t *Token) Generation() uint64 { return t.core.generation.Load() }

// Invalidate increments the generation, request-cancels every registered
// cancellable, then invalidates every chained child token. A second call
// increments the generation again and walks the (never drained) chain list
// again, invalidating each chained child once more; the cancellable list is
// already drained, so no cancellable is request-cancelled twice.
func (t *Token) Invalidate() { t.core.invalidate() }

// CancelWithoutInvalidating request-cancels every registered cancellable
// without incrementing the generation, then forwards to chained tokens
// whose chain includes the cancel-without-invalidate flag.
func (t *Token) CancelWithoutInvalidating() { t.core.cancelWithoutInvalidating() }

// RequestCancelOnInvalidate registers cc to be request-cancelled the next
// time this token is invalidated (or cancelled-without-invalidating). If
// the token is already in a terminal disposition, cc is cancelled
// immediately.
func (t *Token) RequestCancelOnInvalidate(cc Cancellabler) {
	t.core.requestCancelOnInvalidate(cc)
}

// ChainFrom registers t in parent's chain list: invalidation (and, if
// includeCNWI, cancel-without-invalidate) flows parent -> t. Chains are
// one-way and permanent. If parent is already in a terminal disposition, t
// adopts it immediately.
func (t *Token) ChainFrom(parent *Token, includeCNWI bool) {
	entry := chainEntry{child: t, includeCNWI: includeCNWI}
	parent.core.chains.push(entry)
	// chains is never sealed, so push above always succeeds; a parent that
	// was already invalidated/cancelled before this registration still
	// needs its terminal disposition applied to t directly, since t missed
	// the earlier walk of the chain list.
	if parent.core.invalidatedOnce.Load() {
		t.Invalidate()
	} else if includeCNWI && parent.core.cancelledOnce.Load() {
		t.CancelWithoutInvalidating()
	}
}

// gateOpen reports whether capturedGeneration still matches the token's
// current generation, i.e. whether a callback captured at that generation
// is still permitted to run. The dispatch shim only ever loads the current
// generation at the last possible moment; spec.md tolerates the resulting
// race against a concurrent Invalidate rather than fencing it (see
// DESIGN.md).
func (t *Token) gateOpen(capturedGeneration uint64) bool {
	return t.core.generation.Load() == capturedGeneration
}

// Cancellabler is the subset of Cancellable[V, E] a Token can hold
// regardless of the promise's value/error types.
type Cancellabler interface {
	cancellable
}
