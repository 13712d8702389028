package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"reviewhub/internal/platform/metrics"
	dErrors "reviewhub/pkg/domain-errors"
	"reviewhub/pkg/platform/httputil"
	"reviewhub/pkg/platform/middleware/metadata"
	request "reviewhub/pkg/platform/middleware/request"
	"reviewhub/pkg/platform/middleware/requesttime"
)

const defaultRequestTimeout = 30 * time.Second

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router)
}

// ReadinessCheck reports whether a backing dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

type RouterConfig struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
	Readiness      map[string]ReadinessCheck
	// ClientIP decides which forwarding headers to believe. Nil trusts none.
	ClientIP *metadata.Resolver
	// RateLimit, when set, runs after client metadata is resolved.
	RateLimit func(http.Handler) http.Handler
}

// NewRouter applies the shared middleware chain and mounts each handler.
// Handlers stay thin and delegate to their module service.
func NewRouter(cfg RouterConfig, handlers ...Registrar) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	clientMetadata := metadata.ClientMetadata
	if cfg.ClientIP != nil {
		clientMetadata = cfg.ClientIP.Middleware
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(clientMetadata)
	r.Use(request.Logger(cfg.Logger))
	if cfg.RateLimit != nil {
		r.Use(cfg.RateLimit)
	}
	r.Use(request.Timeout(timeout))
	r.Use(requesttime.Middleware)
	r.Use(request.LatencyMiddleware(cfg.Metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(cfg.Logger, cfg.Readiness))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		for _, h := range handlers {
			h.Register(r)
		}
	})
	return r
}

func readiness(logger *slog.Logger, checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "readiness check failed",
					"dependency", name,
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, name+" unavailable"))
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
