package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/blackmichael/postfeed/internal/auth"
	"github.com/blackmichael/postfeed/internal/config"
	"github.com/blackmichael/postfeed/internal/domain"
	"github.com/blackmichael/postfeed/internal/httpserver"
	"github.com/blackmichael/postfeed/internal/ratelimit"
	"github.com/blackmichael/postfeed/internal/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up repository (implements both PostRepository and UserRepository)
	repo, err := sqlite.NewRepository(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("create repository: %w", err)
	}
	defer repo.Close()
	logger.Info("opened database", "path", cfg.DatabasePath)

	tokens, err := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("create token manager: %w", err)
	}

	// The bucket store must outlive individual requests; per-request state
	// would reset the limiter on every call and defeat it.
	limiter := ratelimit.NewStore(cfg.RateLimitMax, cfg.RateLimitWindow)

	posts := domain.NewPostService(repo, logger)

	// Set up graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start the HTTP server
	server := httpserver.NewServer(cfg, posts, repo, limiter, tokens, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server exited with error", "error", err)
		}
	}()

	logger.Info("server started",
		"addr", cfg.Addr,
		"rate_limit_max", cfg.RateLimitMax,
		"rate_limit_window", cfg.RateLimitWindow,
		"production", cfg.Production,
	)

	// Wait for shutdown signal
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}

	return nil
}
