// Command useradd seeds an account into the feed database and prints a
// signed session token for it. It stands in for the external identity
// provider during development: the server only ever verifies tokens.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/blackmichael/postfeed/internal/auth"
	"github.com/blackmichael/postfeed/internal/domain"
	"github.com/blackmichael/postfeed/internal/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dbPath    string
		name      string
		email     string
		secret    string
		ttl       time.Duration
		tokenOnly string
	)

	flag.StringVar(&dbPath, "db", envOrDefault("POSTFEED_DB", "postfeed.db"), "SQLite database path")
	flag.StringVar(&name, "name", "", "Display name for the new user")
	flag.StringVar(&email, "email", "", "Email for the new user (must be unique)")
	flag.StringVar(&secret, "secret", envOrDefault("POSTFEED_TOKEN_SECRET", ""), "Token signing secret (must match the server)")
	flag.DurationVar(&ttl, "ttl", 24*time.Hour, "Token validity")
	flag.StringVar(&tokenOnly, "token-for", "", "Mint a token for an existing user id instead of creating one")
	flag.Parse()

	if secret == "" {
		return fmt.Errorf("--secret is required (or set POSTFEED_TOKEN_SECRET)")
	}

	tokens, err := auth.NewTokenManager(secret, ttl)
	if err != nil {
		return err
	}

	repo, err := sqlite.NewRepository(dbPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx := context.Background()

	if tokenOnly != "" {
		user, err := repo.GetUser(ctx, tokenOnly)
		if err != nil {
			return err
		}
		token, err := tokens.Issue(user.ID, user.Name)
		if err != nil {
			return err
		}
		fmt.Printf("Token for %s (%s):\n%s\n", user.Name, user.ID, token)
		return nil
	}

	if name == "" || email == "" {
		return fmt.Errorf("--name and --email are required")
	}

	user := &domain.User{
		ID:    uuid.NewString(),
		Name:  name,
		Email: email,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	token, err := tokens.Issue(user.ID, user.Name)
	if err != nil {
		return err
	}

	fmt.Printf("Created user %s\n", user.ID)
	fmt.Printf("Token (valid %s):\n%s\n", ttl, token)
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
