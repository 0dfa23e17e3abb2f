package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackmichael/postfeed/internal/domain"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *Repository, id, name, email string) *domain.User {
	t.Helper()
	user := &domain.User{ID: id, Name: name, Email: email}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func seedPost(t *testing.T, repo *Repository, id, authorID, content string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, repo.CreatePost(context.Background(), &domain.Post{
		ID:        id,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: createdAt,
	}))
}

func TestCreateAndGetPost(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, "u1", "Alice", "alice@example.com")

	createdAt := time.Now().UTC().Truncate(time.Millisecond)
	seedPost(t, repo, "p1", "u1", "hello", createdAt)

	post, err := repo.GetPost(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", post.ID)
	assert.Equal(t, "hello", post.Content)
	assert.Equal(t, "u1", post.AuthorID)
	assert.True(t, post.CreatedAt.Equal(createdAt), "got %v want %v", post.CreatedAt, createdAt)
	require.NotNil(t, post.Author)
	assert.Equal(t, "Alice", post.Author.Name)
	assert.Equal(t, "alice@example.com", post.Author.Email)
}

func TestGetPost_Missing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetPost(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListPosts_NewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, "u1", "Alice", "alice@example.com")

	base := time.Now().UTC().Truncate(time.Millisecond)
	// Inserted out of order on purpose.
	seedPost(t, repo, "middle", "u1", "b", base.Add(-time.Minute))
	seedPost(t, repo, "newest", "u1", "c", base)
	seedPost(t, repo, "oldest", "u1", "a", base.Add(-2*time.Minute))

	posts, err := repo.ListPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "newest", posts[0].ID)
	assert.Equal(t, "middle", posts[1].ID)
	assert.Equal(t, "oldest", posts[2].ID)
}

func TestUpdatePost(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, "u1", "Alice", "alice@example.com")
	seedPost(t, repo, "p1", "u1", "old", time.Now().UTC())

	post, err := repo.UpdatePost(context.Background(), "p1", "new")
	require.NoError(t, err)
	assert.Equal(t, "new", post.Content)
	require.NotNil(t, post.Author)

	got, err := repo.GetPost(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Content)
}

func TestUpdatePost_Missing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.UpdatePost(context.Background(), "nope", "new")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeletePost(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, "u1", "Alice", "alice@example.com")
	seedPost(t, repo, "p1", "u1", "bye", time.Now().UTC())

	require.NoError(t, repo.DeletePost(context.Background(), "p1"))

	_, err := repo.GetPost(context.Background(), "p1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeletePost_Missing(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.DeletePost(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetUser(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, "u1", "Alice", "alice@example.com")

	user, err := repo.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)

	_, err = repo.GetUser(context.Background(), "nope")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	seedUser(t, repo, "u1", "Alice", "alice@example.com")

	err := repo.CreateUser(context.Background(), &domain.User{
		ID: "u2", Name: "Other Alice", Email: "alice@example.com",
	})
	require.Error(t, err)
}
