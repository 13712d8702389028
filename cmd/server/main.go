package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	identityhandler "reviewhub/internal/identity/handler"
	"reviewhub/internal/identity/password"
	identityservice "reviewhub/internal/identity/service"
	jwttoken "reviewhub/internal/jwt_token"
	listinghandler "reviewhub/internal/listing/handler"
	listingservice "reviewhub/internal/listing/service"
	"reviewhub/internal/platform/config"
	"reviewhub/internal/platform/httpserver"
	"reviewhub/internal/platform/logger"
	"reviewhub/internal/platform/metrics"
	ratelimit "reviewhub/internal/ratelimit/middleware"
	ratelimitmodels "reviewhub/internal/ratelimit/models"
	"reviewhub/internal/rating"
	reviewhandler "reviewhub/internal/review/handler"
	reviewservice "reviewhub/internal/review/service"
	httptransport "reviewhub/internal/transport/http"
	"reviewhub/pkg/platform/middleware/metadata"
)

// main wires the process: configuration, storage, event dispatch, the HTTP
// router and graceful shutdown. Business logic lives in the module services.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	clientIP, err := metadata.NewResolver(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	m := metrics.New()
	readiness := map[string]httptransport.ReadinessCheck{}

	st, err := openStores(ctx, cfg, log, readiness)
	if err != nil {
		return err
	}
	defer st.Close()

	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.TokenTTL)
	validator := jwttoken.NewJWTServiceAdapter(tokens)

	identitySvc := identityservice.New(st.users, tokens,
		identityservice.WithPasswordHasher(password.NewHasher(cfg.BcryptCost)),
		identityservice.WithLogger(log),
		identityservice.WithMetrics(m),
	)

	listingOpts := []listingservice.Option{
		listingservice.WithLogger(log),
		listingservice.WithMetrics(m),
	}
	if st.searchCache != nil {
		listingOpts = append(listingOpts, listingservice.WithSearchCache(st.searchCache))
	}
	listingSvc := listingservice.New(st.listings, listingOpts...)

	aggregator := rating.NewAggregator(st.reviews, listingSvc,
		rating.WithLogger(log),
		rating.WithMetrics(m),
	)
	events, err := newEvents(ctx, cfg.Kafka, aggregator, log)
	if err != nil {
		return err
	}
	defer events.Close()

	reviewSvc := reviewservice.New(st.reviews, listingSvc,
		reviewservice.WithPublisher(events.publisher),
		reviewservice.WithAuthorDirectory(identitySvc),
		reviewservice.WithLogger(log),
		reviewservice.WithMetrics(m),
	)

	limiter := ratelimit.New(st.rateLimits, map[ratelimitmodels.Class]ratelimitmodels.Policy{
		ratelimitmodels.ClassAuth:  {Limit: cfg.RateLimit.AuthLimit, Window: cfg.RateLimit.Window},
		ratelimitmodels.ClassWrite: {Limit: cfg.RateLimit.WriteLimit, Window: cfg.RateLimit.Window},
	}, log,
		ratelimit.WithDisabled(cfg.RateLimit.Disabled),
		ratelimit.WithMetrics(m),
	)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:    log,
		Metrics:   m,
		Readiness: readiness,
		RateLimit: limiter.Handler,
		ClientIP:  clientIP,
	},
		identityhandler.New(identitySvc, log, m, validator),
		listinghandler.New(listingSvc, log, m, validator),
		reviewhandler.New(reviewSvc, log, m, validator),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting reviewhub", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if events.consumer != nil {
		g.Go(func() error {
			return events.consumer.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "timeout", cfg.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
