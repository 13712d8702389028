package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"reviewhub/internal/platform/metrics"
	"reviewhub/internal/ratelimit/models"
	dErrors "reviewhub/pkg/domain-errors"
	"reviewhub/pkg/platform/httputil"
	"reviewhub/pkg/platform/middleware/metadata"
	request "reviewhub/pkg/platform/middleware/request"
)

// Limiter is a sliding-window store keyed by class and client.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

type Middleware struct {
	limiter  Limiter
	policies map[models.Class]models.Policy
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the middleware into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) { m.disabled = disabled }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) { m.metrics = mt }
}

// New builds the middleware. A class missing from policies, or with a
// non-positive limit, is not limited.
func New(limiter Limiter, policies map[models.Class]models.Policy, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter:  limiter,
		policies: policies,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Classify maps a request onto its limit class. Reads are never limited.
func Classify(r *http.Request) (models.Class, bool) {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return "", false
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	if r.Method == http.MethodPost && (path == "/api/users/login" || path == "/api/users/register") {
		return models.ClassAuth, true
	}
	return models.ClassWrite, true
}

// Handler limits each client IP per class. Limiter failures let the request
// through.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}
		class, ok := Classify(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		policy, ok := m.policies[class]
		if !ok || policy.Limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := clientIP(r)
		result, err := m.limiter.Allow(ctx, string(class)+":"+ip, policy.Limit, policy.Window)
		if err != nil {
			m.logger.ErrorContext(ctx, "rate limit check failed",
				"class", class,
				"error", err,
				"request_id", request.GetRequestID(ctx),
			)
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)
		if !result.Allowed {
			m.metrics.IncrementRateLimited(string(class))
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"class", class,
				"client_ip", ip,
				"retry_after", result.RetryAfter,
				"request_id", request.GetRequestID(ctx),
			)
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, try again later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if c, ok := metadata.GetClient(r.Context()); ok {
		return c.IP
	}
	return metadata.ClientIPFromRequest(r)
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
