package promise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStack_PushAndSwapAndSeal_YieldsLIFOThenRegistrationOrder(t *testing.T) {
	s := newStack[int]()
	for _, v := range []int{1, 2, 3} {
		_, ok := s.push(v)
		require.True(t, ok)
	}
	head := s.swapAndSeal()
	var lifo []int
	for n := head; n != nil; n = n.next {
		lifo = append(lifo, n.value)
	}
	assert.Equal(t, []int{3, 2, 1}, lifo, "swapAndSeal detaches in LIFO order")

	ordered := reverseChain(head)
	var registration []int
	for n := ordered; n != nil; n = n.next {
		registration = append(registration, n.value)
	}
	assert.Equal(t, []int{1, 2, 3}, registration, "reverseChain restores registration order")
}

func TestStack_SwapAndSeal_IsIdempotent(t *testing.T) {
	s := newStack[int]()
	s.push(1)
	first := s.swapAndSeal()
	require.NotNil(t, first)

	second := s.swapAndSeal()
	assert.Nil(t, second, "a second swapAndSeal must observe the sentinel and return nil")
	assert.True(t, s.isSealed())
}

func TestStack_Push_FailsOnceSealed(t *testing.T) {
	s := newStack[int]()
	s.swapAndSeal()
	_, ok := s.push(1)
	assert.False(t, ok, "push after sealing must report failure so the caller runs its fallback path")
}

func TestStack_PushPruning_SnipsExpiredPrefix(t *testing.T) {
	s := newStack[string]()
	expired := map[string]bool{"old1": true, "old2": true}
	s.push("live")
	s.push("old1")
	s.push("old2")

	_, ok := s.pushPruning("new", func(v string) bool { return expired[v] })
	require.True(t, ok)

	head := s.swapAndSeal()
	var values []string
	for n := head; n != nil; n = n.next {
		values = append(values, n.value)
	}
	// "new" links directly past the expired prefix at the head (old1, old2
	// were pushed most-recently so sit on top); "live" remains reachable
	// underneath.
	assert.Equal(t, []string{"new", "live"}, values)
}

func TestStack_PushPruning_FailsOnceSealed(t *testing.T) {
	s := newStack[string]()
	s.swapAndSeal()
	_, ok := s.pushPruning("x", func(string) bool { return false })
	assert.False(t, ok)
}
