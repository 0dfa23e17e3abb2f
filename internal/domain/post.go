package domain

import "time"

// Post is a single entry in the shared feed.
type Post struct {
	// ID is the opaque identifier assigned by the server on creation.
	ID string `json:"id"`

	// Content is the post body text.
	Content string `json:"content"`

	// AuthorID identifies the user that created the post. Ownership checks
	// always run against this stored value, never against request input.
	AuthorID string `json:"authorId"`

	// CreatedAt is when the post was created, in UTC.
	CreatedAt time.Time `json:"createdAt"`

	// Author is the author detail embedded in API responses.
	Author *Author `json:"author,omitempty"`
}

// Author is the subset of a user embedded in post responses.
type Author struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// User is a registered account. Accounts are provisioned outside the server
// (see cmd/useradd); the server only resolves token subjects against them.
type User struct {
	ID    string
	Name  string
	Email string
}
