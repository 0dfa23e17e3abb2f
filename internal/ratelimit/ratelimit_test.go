package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests control elapsed time deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (s *Store) tokensFor(identity string) float64 {
	b := s.bucket(identity)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens
}

// TestAdmit_BurstUpToCapacity covers the 100-then-101st scenario: a fresh
// bucket admits exactly its capacity with no elapsed time.
func TestAdmit_BurstUpToCapacity(t *testing.T) {
	clock := newFakeClock()
	s := newStore(100, 60*time.Second, clock.Now)

	for i := 0; i < 100; i++ {
		require.True(t, s.Admit("alice"), "call %d should be admitted", i+1)
	}
	assert.False(t, s.Admit("alice"), "call 101 should be rejected")
}

func TestAdmit_RejectionConsumesNothing(t *testing.T) {
	clock := newFakeClock()
	s := newStore(10, time.Minute, clock.Now)

	for i := 0; i < 10; i++ {
		require.True(t, s.Admit("alice"))
	}

	// Repeated rejections must not push the count below zero.
	for i := 0; i < 5; i++ {
		require.False(t, s.Admit("alice"))
	}
	assert.GreaterOrEqual(t, s.tokensFor("alice"), 0.0)

	// One window-tenth refills exactly one token: a single admit, not five.
	clock.Advance(6 * time.Second)
	assert.True(t, s.Admit("alice"))
	assert.False(t, s.Admit("alice"))
}

// TestAdmit_FullWindowRefill covers the core refill property: an empty
// bucket left alone for one full window admits again and holds capacity-1.
func TestAdmit_FullWindowRefill(t *testing.T) {
	clock := newFakeClock()
	s := newStore(100, time.Minute, clock.Now)

	for i := 0; i < 100; i++ {
		require.True(t, s.Admit("alice"))
	}
	require.False(t, s.Admit("alice"))

	clock.Advance(time.Minute)
	require.True(t, s.Admit("alice"))
	assert.InDelta(t, 99.0, s.tokensFor("alice"), 1e-9)
}

func TestAdmit_RefillClampedToCapacity(t *testing.T) {
	clock := newFakeClock()
	s := newStore(100, time.Minute, clock.Now)

	require.True(t, s.Admit("alice"))

	// A long idle period must not bank more than one bucket's worth.
	clock.Advance(10 * time.Minute)
	require.True(t, s.Admit("alice"))
	assert.InDelta(t, 99.0, s.tokensFor("alice"), 1e-9)
	assert.LessOrEqual(t, s.tokensFor("alice"), 100.0)
}

func TestAdmit_FractionalRefill(t *testing.T) {
	clock := newFakeClock()
	s := newStore(100, time.Minute, clock.Now)

	for i := 0; i < 100; i++ {
		require.True(t, s.Admit("alice"))
	}

	// 900ms at 100 tokens/60s refills 1.5 tokens: one admit, not two.
	clock.Advance(900 * time.Millisecond)
	assert.True(t, s.Admit("alice"))
	assert.False(t, s.Admit("alice"))
}

func TestAdmit_IdentitiesAreIndependent(t *testing.T) {
	clock := newFakeClock()
	s := newStore(5, time.Minute, clock.Now)

	for i := 0; i < 5; i++ {
		require.True(t, s.Admit("alice"))
	}
	require.False(t, s.Admit("alice"))

	assert.True(t, s.Admit("bob"), "bob's bucket must be unaffected by alice's")
}

// TestAdmit_ConcurrentSameIdentity exercises the per-bucket lock: 200 racing
// admits against a bucket of 100 must admit exactly 100. The window is long
// enough that refill during the test stays below one token.
func TestAdmit_ConcurrentSameIdentity(t *testing.T) {
	s := NewStore(100, time.Hour)

	var wg sync.WaitGroup
	var admitted atomic.Int64
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Admit("alice") {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 100, admitted.Load())
}
