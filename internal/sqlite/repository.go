// Package sqlite implements the domain repositories over an embedded SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/blackmichael/postfeed/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id    TEXT PRIMARY KEY,
	name  TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS posts (
	id         TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	author_id  TEXT NOT NULL REFERENCES users(id),
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS posts_created_at ON posts (created_at DESC, id DESC);
`

// Repository implements domain.PostRepository and domain.UserRepository
// using SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository opens the database at path, creating the schema if needed,
// and returns a new Repository. The caller should call Close when the
// repository is no longer needed. Use ":memory:" for an ephemeral store.
func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection serializes writers and keeps :memory: databases
	// from splitting one-per-connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// CreatePost inserts a new post. Timestamps are stored as unix milliseconds.
func (r *Repository) CreatePost(ctx context.Context, post *domain.Post) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (id, content, author_id, created_at)
		VALUES (?, ?, ?, ?)`,
		post.ID,
		post.Content,
		post.AuthorID,
		post.CreatedAt.UnixMilli(),
	)
	return err
}

const selectPost = `
	SELECT p.id, p.content, p.author_id, p.created_at, u.name, u.email
	FROM posts p
	JOIN users u ON u.id = p.author_id`

// GetPost retrieves a post with its author embedded.
func (r *Repository) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	row := r.db.QueryRowContext(ctx, selectPost+` WHERE p.id = ?`, id)

	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan post: %w", err)
	}
	return post, nil
}

// UpdatePost replaces the content of an existing post and returns the
// updated row.
func (r *Repository) UpdatePost(ctx context.Context, id, content string) (*domain.Post, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE posts SET content = ? WHERE id = ?`, content, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, domain.ErrNotFound
	}

	return r.GetPost(ctx, id)
}

// DeletePost removes a post by id.
func (r *Repository) DeletePost(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListPosts retrieves all posts newest first, with authors embedded.
func (r *Repository) ListPosts(ctx context.Context) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, selectPost+`
		ORDER BY p.created_at DESC, p.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// GetUser retrieves a user by id.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a new account. Used by cmd/useradd and tests; the server
// itself only reads users.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email)
		VALUES (?, ?, ?)`,
		user.ID, user.Name, user.Email,
	)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*domain.Post, error) {
	var (
		p         domain.Post
		author    domain.Author
		createdAt int64
	)
	if err := row.Scan(&p.ID, &p.Content, &p.AuthorID, &createdAt, &author.Name, &author.Email); err != nil {
		return nil, err
	}
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	author.ID = p.AuthorID
	p.Author = &author
	return &p, nil
}
