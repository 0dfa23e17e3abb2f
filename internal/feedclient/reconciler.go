package feedclient

import (
	"context"
	"log/slog"

	"github.com/blackmichael/postfeed/internal/domain"
)

// Reconciler decides, once a mutation's server round-trip settles, whether
// the speculative projection can stand. Success commits the mutation and
// triggers exactly one authoritative refetch that replaces the projection;
// failure rolls the projection back to the handle's snapshot.
type Reconciler struct {
	coord  *Coordinator
	fetch  func(ctx context.Context) ([]domain.Post, error)
	logger *slog.Logger
}

// NewReconciler creates a Reconciler that refetches through fetch.
func NewReconciler(coord *Coordinator, fetch func(ctx context.Context) ([]domain.Post, error), logger *slog.Logger) *Reconciler {
	return &Reconciler{coord: coord, fetch: fetch, logger: logger}
}

// OnMutationSettled resolves h exactly once. Settlements for different
// targets proceed independently of each other; a settlement for a superseded
// handle is ignored entirely and reported as domain.ErrSuperseded.
func (r *Reconciler) OnMutationSettled(ctx context.Context, h *Handle, cause error) error {
	if cause != nil {
		if !r.coord.Rollback(h) {
			return domain.ErrSuperseded
		}
		r.logger.Warn("mutation rolled back", "target", h.key, "error", cause)
		return cause
	}

	if !r.coord.Commit(h) {
		return domain.ErrSuperseded
	}

	posts, err := r.fetch(ctx)
	if err != nil {
		// The committed speculative state stays visible; the next refresh or
		// feed event supplies the authoritative projection.
		r.logger.Warn("refresh after commit failed", "target", h.key, "error", err)
		return nil
	}
	r.coord.Replace(posts)
	return nil
}
