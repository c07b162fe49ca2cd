package promise

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_TransformsValueAndPassesThroughOtherDiscriminants(t *testing.T) {
	child := Map(Fulfilled[int, error](3), Immediate, nil, func(v int) string { return strconv.Itoa(v * 2) })
	outcome, _ := child.Result()
	v, _ := outcome.Value()
	assert.Equal(t, "6", v)

	boom := errors.New("boom")
	childErr := Map(Rejected[int, error](boom), Immediate, nil, func(int) string { return "" })
	outcome2, _ := childErr.Result()
	e, _ := outcome2.Error()
	assert.Equal(t, boom, e)

	childCancel := Map(CancelledPromise[int, error](), Immediate, nil, func(int) string { return "" })
	outcome3, _ := childCancel.Result()
	assert.True(t, outcome3.IsCancelled())
}

func TestTryMap_CanFailWithATypedError(t *testing.T) {
	wantErr := errors.New("parse failure")
	child := TryMap(Fulfilled[string, error]("notanumber"), Immediate, nil, func(s string) Try[int, error] {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Failed[int, error](wantErr)
		}
		return Ok[int, error](n)
	})
	outcome, _ := child.Result()
	e, _ := outcome.Error()
	assert.Equal(t, wantErr, e)
}

func TestFlatMap_PipesInnerPromiseIntoChild(t *testing.T) {
	inner, innerR := New[string, error]()
	child := FlatMap(Fulfilled[int, error](1), Immediate, nil, func(int) Promise[string, error] { return inner })
	_, terminal := child.Result()
	assert.False(t, terminal, "child must wait for inner to settle")

	innerR.Fulfill("done")
	outcome, terminal := child.Result()
	require.True(t, terminal)
	v, _ := outcome.Value()
	assert.Equal(t, "done", v)
}

func TestFlatMap_ChildCancelForwardsToInner(t *testing.T) {
	inner, innerR := New[string, error]()
	child := FlatMap(Fulfilled[int, error](1), Immediate, nil, func(int) Promise[string, error] { return inner })

	child.RequestCancel()
	assert.True(t, innerR.HasRequestedCancel(), "cancelling the flat-mapped child must forward to the piped inner promise")
}

func TestTryFlatMap_FailsOutrightWithoutPiping(t *testing.T) {
	wantErr := errors.New("nope")
	child := TryFlatMap(Fulfilled[int, error](1), Immediate, nil, func(int) (Promise[string, error], error, bool) {
		return Promise[string, error]{}, wantErr, true
	})
	outcome, _ := child.Result()
	e, _ := outcome.Error()
	assert.Equal(t, wantErr, e)
}

func TestMapError_TransformsErrorOnly(t *testing.T) {
	child := MapError(Rejected[int, error](errors.New("boom")), Immediate, nil, func(e error) string { return e.Error() })
	outcome, _ := child.Result()
	e, _ := outcome.Error()
	assert.Equal(t, "boom", e)
}

func TestFlatMapError_PipesRecoveryPromise(t *testing.T) {
	recovery, recoveryR := New[int, string]()
	child := FlatMapError(Rejected[int, string]("oops"), Immediate, nil, func(string) Promise[int, string] { return recovery })
	recoveryR.Fulfill(42)
	outcome, _ := child.Result()
	v, _ := outcome.Value()
	assert.Equal(t, 42, v)
}

func TestMapResult_RunsUnconditionally(t *testing.T) {
	var seen int
	for _, p := range []Promise[int, error]{
		Fulfilled[int, error](1),
		Rejected[int, error](errors.New("e")),
		CancelledPromise[int, error](),
	} {
		child := MapResult(p, Immediate, nil, func(o Outcome[int, error]) Outcome[bool, error] {
			seen++
			return ValueOutcome[bool, error](true)
		})
		outcome, _ := child.Result()
		v, _ := outcome.Value()
		assert.True(t, v)
	}
	assert.Equal(t, 3, seen)
}

func TestFlatMapResult_PipesRegardlessOfDiscriminant(t *testing.T) {
	inner := Fulfilled[string, error]("mapped")
	child := FlatMapResult(CancelledPromise[int, error](), Immediate, nil, func(Outcome[int, error]) Promise[string, error] {
		return inner
	})
	outcome, _ := child.Result()
	v, _ := outcome.Value()
	assert.Equal(t, "mapped", v)
}

func TestMap_TokenGateClosedCancelsChild(t *testing.T) {
	tok := NewToken(WithExplicitInvalidate())
	p, r := New[int, error]()
	child := Map(p, Immediate, tok, func(v int) int { return v })
	tok.Invalidate()
	r.Fulfill(1)
	outcome, _ := child.Result()
	assert.True(t, outcome.IsCancelled(), "P4: closing the token's gate before the parent settles cancels the child")
}
