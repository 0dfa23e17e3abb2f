package domain

import "context"

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	// CreatePost inserts a new post into the store.
	CreatePost(ctx context.Context, post *Post) error

	// GetPost retrieves a post by id, with its author embedded. Returns
	// ErrNotFound if the post does not exist.
	GetPost(ctx context.Context, id string) (*Post, error)

	// UpdatePost replaces the content of an existing post and returns the
	// updated post. Returns ErrNotFound if the post does not exist.
	UpdatePost(ctx context.Context, id, content string) (*Post, error)

	// DeletePost removes a post by id. Returns ErrNotFound if the post does
	// not exist.
	DeletePost(ctx context.Context, id string) error

	// ListPosts retrieves all posts ordered newest first, with authors
	// embedded.
	ListPosts(ctx context.Context) ([]Post, error)
}

// UserRepository defines lookup of registered accounts. The server resolves
// authenticated token subjects through this before applying any mutation.
type UserRepository interface {
	// GetUser retrieves a user by id. Returns ErrUserNotFound if no account
	// exists for the id.
	GetUser(ctx context.Context, id string) (*User, error)
}
