package promise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindToken_InvalidateRequestsCancel(t *testing.T) {
	p, r := New[int, error]()
	tok := NewToken(WithExplicitInvalidate())
	BindToken(p, tok)

	tok.Invalidate()
	assert.True(t, r.HasRequestedCancel())
}

func TestTokenController_CancelRequestsCancelOnThePromise(t *testing.T) {
	c := NewTokenController[int, error]()
	assert.False(t, c.Cancelled())

	c.Cancel()
	assert.True(t, c.Cancelled())
	assert.True(t, c.Resolver().HasRequestedCancel())

	_, terminal := c.Promise().Result()
	assert.False(t, terminal, "Cancel is advisory; the promise only settles once the resolver acts")

	c.Resolver().Cancel()
	outcome, terminal := c.Promise().Result()
	require.True(t, terminal)
	assert.True(t, outcome.IsCancelled())
}

func TestTokenController_PromiseStillFulfillableBeforeCancel(t *testing.T) {
	c := NewTokenController[int, error]()
	c.Resolver().Fulfill(5)
	outcome, terminal := c.Promise().Result()
	require.True(t, terminal)
	v, _ := outcome.Value()
	assert.Equal(t, 5, v)
}
