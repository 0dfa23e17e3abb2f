package feedclient

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blackmichael/postfeed/internal/domain"
)

// MutationKind identifies the speculative change a mutation applies to the
// projection.
type MutationKind int

const (
	MutationCreate MutationKind = iota
	MutationUpdate
	MutationDelete
)

// Intent describes one optimistic mutation against the feed.
type Intent struct {
	Kind     MutationKind
	TargetID string // post id for Update/Delete; empty for Create
	Content  string // new content for Create/Update
}

// HandleState tracks exactly-once resolution of a mutation: a handle resolves
// to committed or rolled back, never both, never neither.
type HandleState int

const (
	StatePending HandleState = iota
	StateCommitted
	StateRolledBack
)

// DefaultMutationTimeout bounds how long a mutation may stay pending before
// its request is cancelled and the projection rolls back.
const DefaultMutationTimeout = 15 * time.Second

// Handle represents one in-flight optimistic mutation. It carries the
// snapshot taken before the speculative change was applied and the context
// the network call must run on, so that superseding the mutation cancels the
// call.
type Handle struct {
	intent Intent
	key    string
	seq    uint64

	snapshot []domain.Post
	state    HandleState

	ctx    context.Context
	cancel context.CancelFunc

	// optimisticID is the temporary id given to a speculative Create row. It
	// disappears when the authoritative refetch replaces the projection.
	optimisticID string
}

// Context returns the context the mutation's network call must use.
func (h *Handle) Context() context.Context { return h.ctx }

// OptimisticID returns the temporary id of a speculative Create row, or ""
// for other kinds.
func (h *Handle) OptimisticID() string { return h.optimisticID }

// Coordinator owns the local projection of the feed and the lifecycle of
// optimistic mutations against it. Snapshot-and-apply happens atomically
// under one lock, so no reader of the projection can observe a half-applied
// state.
type Coordinator struct {
	timeout time.Duration

	mu         sync.Mutex
	projection []domain.Post
	pending    map[string]*Handle
	seqs       map[string]uint64
}

// NewCoordinator creates a Coordinator with an empty projection.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		timeout: DefaultMutationTimeout,
		pending: make(map[string]*Handle),
		seqs:    make(map[string]uint64),
	}
}

// Posts returns a copy of the current projection, newest first.
func (c *Coordinator) Posts() []domain.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clonePosts(c.projection)
}

// Replace installs an authoritative projection fetched from the server. The
// speculative state is replaced entirely, not merged.
func (c *Coordinator) Replace(posts []domain.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projection = clonePosts(posts)
}

// Begin snapshots the projection, applies intent speculatively, and returns
// the handle that later resolves the mutation. A mutation already pending
// against the same target is superseded: its request context is cancelled,
// and its eventual commit or rollback is ignored. The new snapshot is taken
// from the current, already-mutated projection, not the superseded
// mutation's baseline.
func (c *Coordinator) Begin(ctx context.Context, intent Intent) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := intent.TargetID // creates share the collection key ""
	if prev, ok := c.pending[key]; ok {
		prev.cancel()
		delete(c.pending, key)
	}
	c.seqs[key]++

	h := &Handle{
		intent:   intent,
		key:      key,
		seq:      c.seqs[key],
		snapshot: clonePosts(c.projection),
	}
	h.ctx, h.cancel = context.WithTimeout(ctx, c.timeout)

	switch intent.Kind {
	case MutationCreate:
		h.optimisticID = "pending:" + uuid.NewString()
		post := domain.Post{
			ID:        h.optimisticID,
			Content:   intent.Content,
			CreatedAt: time.Now().UTC(),
		}
		c.projection = append([]domain.Post{post}, c.projection...)
	case MutationUpdate:
		for i := range c.projection {
			if c.projection[i].ID == intent.TargetID {
				c.projection[i].Content = intent.Content
				break
			}
		}
	case MutationDelete:
		next := make([]domain.Post, 0, len(c.projection))
		for _, p := range c.projection {
			if p.ID != intent.TargetID {
				next = append(next, p)
			}
		}
		c.projection = next
	}

	c.pending[key] = h
	return h
}

// Commit resolves h successfully: the snapshot is discarded and the
// speculative projection stands, provisional until the reconciler's refetch
// replaces it. Returns false when h was superseded or already resolved.
func (c *Coordinator) Commit(h *Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.current(h) {
		return false
	}
	h.state = StateCommitted
	h.snapshot = nil
	h.cancel()
	delete(c.pending, h.key)
	return true
}

// Rollback restores the projection to h's snapshot verbatim. Returns false
// when h was superseded or already resolved; a stale rollback must not
// clobber a newer optimistic state.
func (c *Coordinator) Rollback(h *Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.current(h) {
		return false
	}
	h.state = StateRolledBack
	c.projection = h.snapshot
	h.snapshot = nil
	h.cancel()
	delete(c.pending, h.key)
	return true
}

// current reports whether h is still the live mutation for its key. The
// per-key sequence number distinguishes a stale handle's settlement from the
// current one's.
func (c *Coordinator) current(h *Handle) bool {
	return h.state == StatePending && c.seqs[h.key] == h.seq
}

func clonePosts(posts []domain.Post) []domain.Post {
	out := make([]domain.Post, len(posts))
	copy(out, posts)
	for i := range out {
		if out[i].Author != nil {
			author := *out[i].Author
			out[i].Author = &author
		}
	}
	return out
}
