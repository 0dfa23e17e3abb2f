package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Authorize reports whether actorID may mutate a resource owned by ownerID.
// It is the single ownership check applied to every update and delete. Callers
// must load the owner from the store first; a client-supplied ownership claim
// is never trusted.
func Authorize(actorID, ownerID string) bool {
	return actorID != "" && ownerID != "" && actorID == ownerID
}

// PostService is the core domain service. It owns the business rules for the
// feed: content validation, ownership checks, and id/timestamp assignment.
type PostService struct {
	repo   PostRepository
	logger *slog.Logger
}

// NewPostService creates a PostService backed by the given repository.
func NewPostService(repo PostRepository, logger *slog.Logger) *PostService {
	return &PostService{repo: repo, logger: logger}
}

// ListPosts returns the feed ordered newest first.
func (s *PostService) ListPosts(ctx context.Context) ([]Post, error) {
	posts, err := s.repo.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// GetPost retrieves a single post by id.
func (s *PostService) GetPost(ctx context.Context, id string) (*Post, error) {
	return s.repo.GetPost(ctx, id)
}

// CreatePost validates and persists a new post by author.
func (s *PostService) CreatePost(ctx context.Context, author *User, content string) (*Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	post := &Post{
		ID:        uuid.NewString(),
		Content:   content,
		AuthorID:  author.ID,
		CreatedAt: time.Now().UTC(),
		Author:    &Author{ID: author.ID, Name: author.Name, Email: author.Email},
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.logger.Info("post created", "post_id", post.ID, "author_id", author.ID)
	return post, nil
}

// UpdatePost replaces the content of an existing post. The ownership check
// runs after the post is loaded and before the mutation is applied.
func (s *PostService) UpdatePost(ctx context.Context, actorID, id, content string) (*Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Authorize(actorID, post.AuthorID) {
		s.logger.Warn("update rejected", "post_id", id, "actor_id", actorID)
		return nil, ErrForbidden
	}

	updated, err := s.repo.UpdatePost(ctx, id, content)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return updated, nil
}

// DeletePost removes an existing post. The ownership check runs after the
// post is loaded and before the mutation is applied.
func (s *PostService) DeletePost(ctx context.Context, actorID, id string) error {
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if !Authorize(actorID, post.AuthorID) {
		s.logger.Warn("delete rejected", "post_id", id, "actor_id", actorID)
		return ErrForbidden
	}

	if err := s.repo.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	s.logger.Info("post deleted", "post_id", id, "actor_id", actorID)
	return nil
}
