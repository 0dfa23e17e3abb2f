// Package feedclient is the client half of the feed: an HTTP API client plus
// the optimistic mutation machinery that keeps a local projection of the feed
// in sync with the server. Mutations apply to the projection immediately,
// roll back to a snapshot when the server rejects them, and are replaced by
// an authoritative refetch once the server confirms them.
package feedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blackmichael/postfeed/internal/domain"
)

// Client is a minimal API client for the post feed server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL, authenticating with
// the given session token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListPosts fetches the authoritative feed, newest first.
func (c *Client) ListPosts(ctx context.Context) ([]domain.Post, error) {
	var posts []domain.Post
	if err := c.do(ctx, http.MethodGet, "/posts", nil, &posts); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// GetPost fetches a single post by id.
func (c *Client) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	if err := c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(id), nil, &post); err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

// CreatePost publishes a new post and returns the server-assigned record.
func (c *Client) CreatePost(ctx context.Context, content string) (*domain.Post, error) {
	var post domain.Post
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, "/posts", body, &post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &post, nil
}

// UpdatePost replaces a post's content and returns the updated record.
func (c *Client) UpdatePost(ctx context.Context, id, content string) (*domain.Post, error) {
	var post domain.Post
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPut, "/posts/"+url.PathEscape(id), body, &post); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return &post, nil
}

// DeletePost removes a post by id.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// streamURL converts the client's base URL into the websocket endpoint for
// the feed event stream.
func (c *Client) streamURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/posts/stream"
	return u.String(), nil
}

// apiError converts a non-2xx response into the shared error taxonomy so
// callers can branch with errors.Is. The server's message is kept as the
// error text so it can be surfaced at the point of mutation.
func apiError(status int, body []byte) error {
	message := strings.TrimSpace(string(body))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		message = payload.Error
	}

	var kind error
	switch status {
	case http.StatusTooManyRequests:
		kind = domain.ErrRateLimited
	case http.StatusUnauthorized:
		kind = domain.ErrUnauthenticated
	case http.StatusForbidden:
		kind = domain.ErrForbidden
	case http.StatusNotFound:
		kind = domain.ErrNotFound
	case http.StatusBadRequest:
		kind = domain.ErrEmptyContent
	default:
		return fmt.Errorf("api error (status %d): %s", status, message)
	}
	return fmt.Errorf("%s: %w", message, kind)
}
