package domain

import "errors"

// Sentinel errors forming the error taxonomy shared by the HTTP handlers and
// the feed client. Both sides branch on these with errors.Is; the handlers own
// the mapping to status codes and wire messages.
var (
	// ErrRateLimited means admission control rejected the request before any
	// other work happened.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnauthenticated means the request carried no valid identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound means the requested post does not exist.
	ErrNotFound = errors.New("post not found")

	// ErrUserNotFound means an authenticated token subject has no account.
	ErrUserNotFound = errors.New("user not found")

	// ErrForbidden means the actor is authenticated but does not own the post.
	ErrForbidden = errors.New("not the post author")

	// ErrEmptyContent means the post body was missing or blank.
	ErrEmptyContent = errors.New("content is required")

	// ErrSuperseded is client-local: a pending mutation was replaced by a
	// newer one against the same target before it settled. The server never
	// produces it.
	ErrSuperseded = errors.New("mutation superseded")
)
