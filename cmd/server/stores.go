package main

import (
	"context"
	"database/sql"
	"log/slog"

	identityservice "reviewhub/internal/identity/service"
	identitystore "reviewhub/internal/identity/store"
	"reviewhub/internal/listing/cache"
	listingservice "reviewhub/internal/listing/service"
	listingstore "reviewhub/internal/listing/store"
	"reviewhub/internal/platform/config"
	"reviewhub/internal/platform/postgres"
	"reviewhub/internal/platform/redis"
	ratelimit "reviewhub/internal/ratelimit/middleware"
	"reviewhub/internal/ratelimit/store/bucket"
	reviewservice "reviewhub/internal/review/service"
	reviewstore "reviewhub/internal/review/store"
	httptransport "reviewhub/internal/transport/http"
	"reviewhub/pkg/platform/circuit"
)

// stores holds the selected storage backends. Postgres replaces the
// in-memory stores when DATABASE_URL is set; Redis adds the search cache
// and shared rate-limit windows when REDIS_URL is set.
type stores struct {
	users       identityservice.Store
	listings    listingservice.Store
	reviews     reviewservice.Store
	searchCache listingservice.SearchCache
	rateLimits  ratelimit.Limiter

	db    *sql.DB
	redis *redis.Client
}

func openStores(ctx context.Context, cfg config.Server, log *slog.Logger, readiness map[string]httptransport.ReadinessCheck) (*stores, error) {
	st := &stores{}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if db != nil {
		log.Info("using postgres storage")
		st.db = db
		st.users = identitystore.NewPostgres(db)
		st.listings = listingstore.NewPostgres(db)
		st.reviews = reviewstore.NewPostgres(db)
		readiness["postgres"] = db.PingContext
	} else {
		log.Info("using in-memory storage")
		st.users = identitystore.NewInMemory()
		st.listings = listingstore.NewInMemory()
		st.reviews = reviewstore.NewInMemory()
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		st.Close()
		return nil, err
	}
	if client != nil {
		log.Info("search cache enabled", "ttl", cfg.Search.CacheTTL.String())
		st.redis = client
		st.searchCache = cache.NewGuardedSearchCache(
			cache.NewRedisSearchCache(client.Client, cfg.Search.CacheTTL),
			circuit.New("search-cache"),
			log,
		)
		st.rateLimits = bucket.NewRedisBucketStore(client.Client)
		readiness["redis"] = client.Health
	} else {
		st.rateLimits = bucket.NewInMemoryBucketStore()
	}
	return st, nil
}

func (s *stores) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
