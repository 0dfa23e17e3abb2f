package feedclient

import (
	"context"
	"log/slog"

	"github.com/blackmichael/postfeed/internal/domain"
)

// Feed is the client-side view of the shared post feed. Reads come from the
// local projection; mutations apply optimistically and settle through the
// reconciler. Feed methods are safe for concurrent use, but mutations against
// the same post supersede each other rather than queue.
type Feed struct {
	client *Client
	coord  *Coordinator
	rec    *Reconciler
	logger *slog.Logger
}

// NewFeed creates a Feed backed by the given API client.
func NewFeed(client *Client, logger *slog.Logger) *Feed {
	coord := NewCoordinator()
	return &Feed{
		client: client,
		coord:  coord,
		rec:    NewReconciler(coord, client.ListPosts, logger),
		logger: logger,
	}
}

// Refresh replaces the projection with the authoritative feed.
func (f *Feed) Refresh(ctx context.Context) error {
	posts, err := f.client.ListPosts(ctx)
	if err != nil {
		return err
	}
	f.coord.Replace(posts)
	return nil
}

// Posts returns a copy of the current projection, newest first. Pending
// mutations are visible in it speculatively.
func (f *Feed) Posts() []domain.Post {
	return f.coord.Posts()
}

// Create publishes a new post. The projection gains a provisional entry
// immediately and loses it again if the server rejects the post.
func (f *Feed) Create(ctx context.Context, content string) error {
	h := f.coord.Begin(ctx, Intent{Kind: MutationCreate, Content: content})
	_, err := f.client.CreatePost(h.Context(), content)
	return f.rec.OnMutationSettled(ctx, h, err)
}

// Update edits an existing post's content. The change shows in the
// projection immediately and rolls back if the server rejects it, e.g. when
// this client does not own the post.
func (f *Feed) Update(ctx context.Context, id, content string) error {
	h := f.coord.Begin(ctx, Intent{Kind: MutationUpdate, TargetID: id, Content: content})
	_, err := f.client.UpdatePost(h.Context(), id, content)
	return f.rec.OnMutationSettled(ctx, h, err)
}

// Delete removes a post. The entry disappears from the projection
// immediately and reappears if the server rejects the deletion.
func (f *Feed) Delete(ctx context.Context, id string) error {
	h := f.coord.Begin(ctx, Intent{Kind: MutationDelete, TargetID: id})
	err := f.client.DeletePost(h.Context(), id)
	return f.rec.OnMutationSettled(ctx, h, err)
}
