package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/blackmichael/postfeed/internal/auth"
	"github.com/blackmichael/postfeed/internal/config"
	"github.com/blackmichael/postfeed/internal/domain"
	"github.com/blackmichael/postfeed/internal/ratelimit"
)

// Server is the HTTP server that serves the post feed API.
type Server struct {
	cfg        *config.Config
	posts      *domain.PostService
	users      domain.UserRepository
	limiter    *ratelimit.Store
	tokens     *auth.TokenManager
	hub        *Hub
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates a new HTTP server. Every API route passes admission
// control first, then token verification, then its handler.
func NewServer(
	cfg *config.Config,
	posts *domain.PostService,
	users domain.UserRepository,
	limiter *ratelimit.Store,
	tokens *auth.TokenManager,
	logger *slog.Logger,
) *Server {
	s := &Server{
		cfg:     cfg,
		posts:   posts,
		users:   users,
		limiter: limiter,
		tokens:  tokens,
		hub:     NewHub(logger),
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /posts", s.api(s.handleListPosts))
	mux.Handle("POST /posts", s.api(s.handleCreatePost))
	mux.Handle("GET /posts/stream", s.api(s.hub.handleStream))
	mux.Handle("GET /posts/{id}", s.api(s.handleGetPost))
	mux.Handle("PUT /posts/{id}", s.api(s.handleUpdatePost))
	mux.Handle("DELETE /posts/{id}", s.api(s.handleDeletePost))

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      withLogging(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the fully wired handler, for tests that mount the server
// on an httptest listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// api wraps an API handler in the standard gates: admission control first,
// then bearer token verification.
func (s *Server) api(h http.HandlerFunc) http.Handler {
	return s.withAdmission(s.withAuth(h))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.ListPosts(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.posts.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// postRequest is the JSON body for create and update.
type postRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := s.posts.CreatePost(r.Context(), user, req.Content)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.hub.Broadcast(EventCreated, post.ID)
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id := r.PathValue("id")
	post, err := s.posts.UpdatePost(r.Context(), user.ID, id, req.Content)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.hub.Broadcast(EventUpdated, post.ID)
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	id := r.PathValue("id")
	if err := s.posts.DeletePost(r.Context(), user.ID, id); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.hub.Broadcast(EventDeleted, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}

// currentUser resolves the authenticated token subject against the user
// store. Mutating handlers call this before touching any post.
func (s *Server) currentUser(r *http.Request) (*domain.User, error) {
	subject := subjectFrom(r.Context())
	if subject == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.users.GetUser(r.Context(), subject)
}

// respondError maps taxonomy errors to status codes and wire messages.
// Anything outside the taxonomy is internal: it is logged in full, and the
// cause is hidden from the response in production.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyContent):
		writeError(w, http.StatusBadRequest, "Content is required")
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "You are not the author of this post")
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Post not found")
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		message := "An unexpected error occurred"
		if !s.cfg.Production {
			message = err.Error()
		}
		writeError(w, http.StatusInternalServerError, message)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
