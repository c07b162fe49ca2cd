package promise

import "sync/atomic"

type outcomeKind int8

const (
	outcomeNone outcomeKind = iota
	outcomeValue
	outcomeError
	outcomeCancelled
)

// Outcome is the terminal settlement of a promise: exactly one of a value,
// an error, or cancellation.
type Outcome[V, E any] struct {
	kind  outcomeKind
	value V
	err   E
}

// ValueOutcome builds a fulfilled Outcome.
func ValueOutcome[V, E any](v V) Outcome[V, E] { return Outcome[V, E]{kind: outcomeValue, value: v} }

// ErrorOutcome builds a rejected Outcome.
func ErrorOutcome[V, E any](e E) Outcome[V, E] { return Outcome[V, E]{kind: outcomeError, err: e} }

// CancelledOutcome builds a cancelled Outcome.
func CancelledOutcome[V, E any]() Outcome[V, E] { return Outcome[V, E]{kind: outcomeCancelled} }

func (o Outcome[V, E]) IsValue() bool     { return o.kind == outcomeValue }
func (o Outcome[V, E]) IsError() bool     { return o.kind == outcomeError }
func (o Outcome[V, E]) IsCancelled() bool { return o.kind == outcomeCancelled }

// Value returns the fulfilled value and true, or the zero value and false.
func (o Outcome[V, E]) Value() (V, bool) {
	if o.kind != outcomeValue {
		var zero V
		return zero, false
	}
	return o.value, true
}

// Error returns the rejection error and true, or the zero value and false.
func (o Outcome[V, E]) Error() (E, bool) {
	if o.kind != outcomeError {
		var zero E
		return zero, false
	}
	return o.err, true
}

// observerEntry is the payload of a callback_list node: a closure dispatched
// on ctx once the owning cell settles (or immediately, synchronously, if the
// cell was already terminal at registration time).
type observerEntry[V, E any] struct {
	ctx    Context
	fn     func(Outcome[V, E], bool)
	cellID uint64
}

func (e observerEntry[V, E]) run(outcome Outcome[V, E], sync bool) {
	fn := e.fn
	e.ctx.execute(sync, func() { runRecovered("observer", e.cellID, func() { fn(outcome, sync) }) })
}

// cancelRequestEntry is the payload of a cancel_request_list node.
type cancelRequestEntry struct {
	ctx    Context
	fn     func()
	cellID uint64
}

func (e cancelRequestEntry) run() {
	fn := e.fn
	e.ctx.execute(false, func() { runRecovered("cancel_request", e.cellID, fn) })
}

// runRecovered invokes fn, recovering any panic and logging it rather than
// letting it escape the dispatch path and take down an unrelated goroutine
// (the Main loop, a priority worker, or a caller-supplied Queue). A panic
// inside an observer or cancel-request closure never becomes a cell's Error
// outcome on its own -- that is the closure's own responsibility should it
// want to call Resolver.Reject with a *PanicError. cellID identifies the
// owning cell for correlation (see LogEntry.CellID); pass 0 when the
// recovered fn isn't attributable to one.
func runRecovered(category string, cellID uint64, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logObserverPanic(getGlobalLogger(), category, cellID, r)
		}
	}()
	fn()
}

// observer counter word layout: bits 0-28 hold the count, bit 29 is the
// alive flag (cleared by seal), bits 30-31 reserved.
const (
	counterCountMask uint32 = 1<<29 - 1
	counterAliveBit  uint32 = 1 << 29
)

// cell is the single concurrency primitive: an atomic state machine holding
// at most one settled Outcome, a lock-free observer list, a lock-free
// cancel-request list, and a flagged observer counter.
type cell[V, E any] struct {
	state   atomic.Int32
	outcome Outcome[V, E]

	observers       *stack[observerEntry[V, E]]
	cancelRequests  *stack[cancelRequestEntry]
	observerCounter atomic.Uint32

	logger Logger
	id     uint64
}

// cellIDCounter hands out the pointer-independent correlation ids carried
// by LogEntry.CellID, mirroring eventloop/loop.go's loopIDCounter.
var cellIDCounter atomic.Uint64

func newCell[V, E any]() *cell[V, E] {
	c := &cell[V, E]{
		observers:      newStack[observerEntry[V, E]](),
		cancelRequests: newStack[cancelRequestEntry](),
		logger:         getGlobalLogger(),
		id:             cellIDCounter.Add(1),
	}
	c.state.Store(int32(cellEmpty))
	c.observerCounter.Store(counterAliveBit)
	return c
}

func newDelayedCell[V, E any]() *cell[V, E] {
	c := newCell[V, E]()
	c.state.Store(int32(cellDelayed))
	return c
}

func (c *cell[V, E]) State() cellState { return cellState(c.state.Load()) }

func (c *cell[V, E]) transition(from, to cellState) bool {
	return c.state.CompareAndSwap(int32(from), int32(to))
}

func (c *cell[V, E]) transitionAny(from []cellState, to cellState) bool {
	for _, f := range from {
		if c.state.CompareAndSwap(int32(f), int32(to)) {
			return true
		}
	}
	return false
}

// start transitions a Delayed cell to Empty, making it eligible for
// resolution and observer registration. A no-op on a non-Delayed cell.
func (c *cell[V, E]) start() {
	c.transition(cellDelayed, cellEmpty)
}

// result returns the settled Outcome and true iff the cell is terminal.
func (c *cell[V, E]) result() (Outcome[V, E], bool) {
	switch c.State() {
	case cellResolved:
		return c.outcome, true
	case cellCancelled:
		return CancelledOutcome[V, E](), true
	default:
		return Outcome[V, E]{}, false
	}
}

// resolveOrCancel implements the five-step resolve protocol from §4.2.
func (c *cell[V, E]) resolveOrCancel(result Outcome[V, E]) {
	if result.IsCancelled() {
		if !c.transitionAny([]cellState{cellEmpty, cellCancelling}, cellCancelled) {
			return
		}
		c.drain(CancelledOutcome[V, E]())
		return
	}
	if !c.transitionAny([]cellState{cellEmpty, cellCancelling}, cellResolving) {
		return
	}
	// Only the writer that won Resolving stores the outcome, and it does so
	// before Resolved becomes visible to readers.
	c.outcome = result
	if !c.transition(cellResolving, cellResolved) {
		panic("promise: Resolving -> Resolved transition must succeed (single-writer invariant violated)")
	}
	c.drain(result)
}

// drain runs the resolve-time tail: the cancel-request list is discarded
// unexecuted (it is moot once resolved), then the callback list is consumed,
// reversed into registration order, and each observer invoked.
func (c *cell[V, E]) drain(outcome Outcome[V, E]) {
	c.cancelRequests.swapAndSeal()

	head := c.observers.swapAndSeal()
	head = reverseChain(head)
	for n := head; n != nil; n = n.next {
		n.value.run(outcome, false)
	}
}

// requestCancel implements Empty -> Cancelling plus the cancel-request
// drain. Idempotent: a cell not in Empty is left untouched.
func (c *cell[V, E]) requestCancel() {
	if !c.transition(cellEmpty, cellCancelling) {
		return
	}
	head := c.cancelRequests.swapAndSeal()
	for n := head; n != nil; n = n.next {
		n.value.run()
	}
}

// enqueueObserver registers fn to run once the cell settles. If propagates
// is true this is a cancel-propagating observer and the counter is
// incremented first (never rolled back, per §4.2: a late spurious increment
// on an already-terminal cell has no observable effect, since requestCancel
// on a terminal cell is a no-op).
func (c *cell[V, E]) enqueueObserver(entry observerEntry[V, E], propagates bool) {
	if propagates {
		c.incrementObserverCount()
	}
	if _, ok := c.observers.push(entry); ok {
		return
	}
	outcome, _ := c.result()
	entry.run(outcome, true)
}

// enqueueCancelRequest registers fn to run when requestCancel fires. If the
// cell is already past Empty/Cancelling the list is sealed and the request
// is moot; nothing runs.
func (c *cell[V, E]) enqueueCancelRequest(entry cancelRequestEntry) {
	c.cancelRequests.push(entry)
}

func (c *cell[V, E]) incrementObserverCount() {
	for {
		old := c.observerCounter.Load()
		count := old & counterCountMask
		next := (old &^ counterCountMask) | ((count + 1) & counterCountMask)
		if c.observerCounter.CompareAndSwap(old, next) {
			return
		}
	}
}

// decrementAndMaybePropagate is propagate_cancel: a child relinquishing
// interest. If this brings the count to zero while sealed, requestCancel
// fires.
func (c *cell[V, E]) decrementAndMaybePropagate() {
	for {
		old := c.observerCounter.Load()
		count := old & counterCountMask
		if count == 0 {
			return
		}
		next := (old &^ counterCountMask) | (count - 1)
		if c.observerCounter.CompareAndSwap(old, next) {
			sealed := old&counterAliveBit == 0
			if sealed && next&counterCountMask == 0 {
				c.requestCancel()
			}
			return
		}
	}
}

// decrementIgnoringSeal is propagate_cancel's "ignoring the handle-alive
// seal" variant: it always calls requestCancel once the count reaches
// zero, whether or not the cell has live strong handles. Used by
// PropagatingCancellation, whose contract (per §4.5) is to forward a
// direct child's cancel request upward regardless of the parent's own
// seal state.
func (c *cell[V, E]) decrementIgnoringSeal() {
	for {
		old := c.observerCounter.Load()
		count := old & counterCountMask
		if count == 0 {
			return
		}
		next := (old &^ counterCountMask) | (count - 1)
		if c.observerCounter.CompareAndSwap(old, next) {
			if next&counterCountMask == 0 {
				c.requestCancel()
			}
			return
		}
	}
}

// seal clears the alive bit: no further cancel-propagating observers may
// attach meaningfully. If the count is already zero, requestCancel fires
// immediately.
func (c *cell[V, E]) seal() {
	for {
		old := c.observerCounter.Load()
		if old&counterAliveBit == 0 {
			return
		}
		next := old &^ counterAliveBit
		if c.observerCounter.CompareAndSwap(old, next) {
			if next&counterCountMask == 0 {
				c.requestCancel()
			}
			return
		}
	}
}
