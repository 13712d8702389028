package cache

import (
	"context"
	"log/slog"

	"reviewhub/internal/listing/models"
	"reviewhub/pkg/platform/circuit"
)

// Backend is the cache being guarded.
type Backend interface {
	Get(ctx context.Context, query string) ([]*models.Listing, int64, bool, error)
	Set(ctx context.Context, generation int64, query string, listings []*models.Listing) error
	Invalidate(ctx context.Context) error
}

// GuardedSearchCache stops calling an unhealthy backend. While the breaker is
// open every lookup is a miss and writes are dropped, so search falls through
// to the store without paying a network timeout per request. Invalidations
// skipped while open are covered by one invalidation when the breaker closes,
// before any entry is served again.
type GuardedSearchCache struct {
	backend Backend
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuardedSearchCache(backend Backend, breaker *circuit.Breaker, logger *slog.Logger) *GuardedSearchCache {
	return &GuardedSearchCache{backend: backend, breaker: breaker, logger: logger}
}

func (g *GuardedSearchCache) Get(ctx context.Context, query string) ([]*models.Listing, int64, bool, error) {
	if !g.breaker.Allow() {
		return nil, 0, false, nil
	}
	listings, generation, hit, err := g.backend.Get(ctx, query)
	if err != nil {
		g.failure(ctx, err)
		return nil, 0, false, err
	}
	if !g.success(ctx) {
		return listings, generation, hit, nil
	}

	// The breaker just closed. Invalidations skipped while it was open make
	// anything read under the old generation suspect, so bump it and read
	// again before answering.
	if err := g.backend.Invalidate(ctx); err != nil {
		g.failure(ctx, err)
		return nil, 0, false, err
	}
	listings, generation, hit, err = g.backend.Get(ctx, query)
	if err != nil {
		g.failure(ctx, err)
		return nil, 0, false, err
	}
	return listings, generation, hit, nil
}

func (g *GuardedSearchCache) Set(ctx context.Context, generation int64, query string, listings []*models.Listing) error {
	if g.breaker.IsOpen() {
		return nil
	}
	if err := g.backend.Set(ctx, generation, query, listings); err != nil {
		g.failure(ctx, err)
		return err
	}
	return nil
}

func (g *GuardedSearchCache) Invalidate(ctx context.Context) error {
	if g.breaker.IsOpen() {
		return nil
	}
	if err := g.backend.Invalidate(ctx); err != nil {
		g.failure(ctx, err)
		return err
	}
	return nil
}

func (g *GuardedSearchCache) failure(ctx context.Context, err error) {
	if _, change := g.breaker.RecordFailure(); change.Opened {
		g.logger.WarnContext(ctx, "search cache circuit opened", "breaker", g.breaker.Name(), "error", err)
	}
}

// success reports whether this success closed the breaker.
func (g *GuardedSearchCache) success(ctx context.Context) bool {
	_, change := g.breaker.RecordSuccess()
	if change.Closed {
		g.logger.InfoContext(ctx, "search cache circuit closed", "breaker", g.breaker.Name())
	}
	return change.Closed
}
