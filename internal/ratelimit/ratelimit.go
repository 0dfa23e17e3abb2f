// Package ratelimit implements admission control with per-identity token
// buckets. Buckets refill continuously at capacity-per-window rather than
// resetting on window boundaries, so a burst at a boundary cannot double the
// effective limit.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Defaults applied by the server configuration.
const (
	DefaultCapacity = 100
	DefaultWindow   = 60 * time.Second
)

// bucket holds the refill state for one identity. The read-modify-write of
// tokens must happen under mu; racing it would let callers slip past the
// limit.
type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// Store keeps one token bucket per client identity for the lifetime of the
// process. Buckets are created lazily on first sight of an identity and never
// expire. The state is process-local: running several server processes behind
// one address multiplies the effective limit by the process count.
type Store struct {
	capacity float64
	window   time.Duration
	now      func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewStore creates a store whose buckets hold capacity tokens and refill at
// capacity tokens per window.
func NewStore(capacity int, window time.Duration) *Store {
	return newStore(capacity, window, time.Now)
}

func newStore(capacity int, window time.Duration, now func() time.Time) *Store {
	return &Store{
		capacity: float64(capacity),
		window:   window,
		now:      now,
		buckets:  make(map[string]*bucket),
	}
}

// Admit refills the identity's bucket for the time elapsed since its last
// refill, then consumes one token. It returns false, consuming nothing, when
// less than one token is available. Admit never fails; rejection is the only
// outcome besides acceptance.
func (s *Store) Admit(identity string) bool {
	b := s.bucket(identity)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := s.now()
	if elapsed := now.Sub(b.lastRefill); elapsed > 0 {
		refill := elapsed.Seconds() * s.capacity / s.window.Seconds()
		b.tokens = math.Min(s.capacity, b.tokens+refill)
	}
	b.lastRefill = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// bucket returns the bucket for identity, creating a full one on first sight.
func (s *Store) bucket(identity string) *bucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[identity]
	if !ok {
		b = &bucket{tokens: s.capacity, lastRefill: s.now()}
		s.buckets[identity] = b
	}
	return b
}
