package promise

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome_Accessors(t *testing.T) {
	v := ValueOutcome[int, error](42)
	assert.True(t, v.IsValue())
	val, ok := v.Value()
	assert.True(t, ok)
	assert.Equal(t, 42, val)
	_, ok = v.Error()
	assert.False(t, ok)

	e := ErrorOutcome[int, error](assert.AnError)
	assert.True(t, e.IsError())
	err, ok := e.Error()
	assert.True(t, ok)
	assert.Equal(t, assert.AnError, err)

	c := CancelledOutcome[int, error]()
	assert.True(t, c.IsCancelled())
}

func TestCell_ResolveOrCancel_IsMonotonic(t *testing.T) {
	c := newCell[int, error]()
	c.resolveOrCancel(ValueOutcome[int, error](1))
	assert.Equal(t, cellResolved, c.State())

	// A second resolveOrCancel call must not change the already-settled
	// outcome (P1: outcome monotonicity).
	c.resolveOrCancel(ValueOutcome[int, error](2))
	outcome, terminal := c.result()
	require.True(t, terminal)
	val, _ := outcome.Value()
	assert.Equal(t, 1, val)

	c.resolveOrCancel(CancelledOutcome[int, error]())
	outcome, _ = c.result()
	assert.True(t, outcome.IsValue(), "cancelling an already-resolved cell must be a no-op")
}

func TestCell_RequestCancel_IsIdempotent(t *testing.T) {
	c := newCell[int, error]()
	var runs int
	c.enqueueCancelRequest(cancelRequestEntry{ctx: Immediate, fn: func() { runs++ }})

	c.requestCancel()
	c.requestCancel()
	c.requestCancel()

	assert.Equal(t, 1, runs, "requestCancel must drain the cancel-request list exactly once")
	assert.Equal(t, cellCancelling, c.State())
}

func TestCell_EnqueueObserver_RunsImmediatelyOnTerminalCell(t *testing.T) {
	c := newCell[int, error]()
	c.resolveOrCancel(ValueOutcome[int, error](7))

	var got int
	var wg sync.WaitGroup
	wg.Add(1)
	c.enqueueObserver(observerEntry[int, error]{ctx: Immediate, fn: func(o Outcome[int, error], sync bool) {
		defer wg.Done()
		v, _ := o.Value()
		got = v
	}}, true)
	wg.Wait()
	assert.Equal(t, 7, got)
}

func TestCell_Drain_RunsObserversInRegistrationOrder(t *testing.T) {
	c := newCell[int, error]()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		c.enqueueObserver(observerEntry[int, error]{ctx: Immediate, fn: func(Outcome[int, error], bool) {
			order = append(order, i)
		}}, true)
	}
	c.resolveOrCancel(ValueOutcome[int, error](0))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order, "P3: registration-order dispatch")
}

func TestCell_ObserverCounter_SealWithZeroCountRequestsCancel(t *testing.T) {
	c := newCell[int, error]()
	var cancelled bool
	c.enqueueCancelRequest(cancelRequestEntry{ctx: Immediate, fn: func() { cancelled = true }})

	// No cancel-propagating observers were ever registered, so the count is
	// already zero; seal alone must request cancellation (P5).
	c.seal()
	assert.True(t, cancelled)
	assert.Equal(t, cellCancelling, c.State())
}

func TestCell_ObserverCounter_PropagatesOnceLastChildDecrements(t *testing.T) {
	c := newCell[int, error]()
	var cancelled bool
	c.enqueueCancelRequest(cancelRequestEntry{ctx: Immediate, fn: func() { cancelled = true }})

	c.incrementObserverCount()
	c.incrementObserverCount()
	c.seal()
	assert.False(t, cancelled, "sealing with live children must not request cancellation yet")

	c.decrementAndMaybePropagate()
	assert.False(t, cancelled, "one remaining child must still hold off cancellation")

	c.decrementAndMaybePropagate()
	assert.True(t, cancelled, "P2/P5: last child dropping interest after seal propagates cancellation")
}

func TestCell_Delayed_BlocksUntilStart(t *testing.T) {
	c := newDelayedCell[int, error]()
	assert.Equal(t, cellDelayed, c.State())
	c.resolveOrCancel(ValueOutcome[int, error](1))
	// resolveOrCancel only transitions from Empty/Cancelling, so a Delayed
	// cell is untouched by it.
	assert.Equal(t, cellDelayed, c.State())

	c.start()
	assert.Equal(t, cellEmpty, c.State())
	c.resolveOrCancel(ValueOutcome[int, error](1))
	assert.Equal(t, cellResolved, c.State())
}

func TestCell_ObserverPanic_IsRecoveredAtDispatchBoundary(t *testing.T) {
	c := newCell[int, error]()
	var ranNext bool
	c.enqueueObserver(observerEntry[int, error]{ctx: Immediate, fn: func(Outcome[int, error], bool) {
		panic("boom")
	}}, true)
	c.enqueueObserver(observerEntry[int, error]{ctx: Immediate, fn: func(Outcome[int, error], bool) {
		ranNext = true
	}}, true)

	assert.NotPanics(t, func() { c.resolveOrCancel(ValueOutcome[int, error](1)) })
	assert.True(t, ranNext, "a panicking observer must not prevent later observers from running")
}
