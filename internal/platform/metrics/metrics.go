package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ReviewsCreated         prometheus.Counter
	ListingsCreated        prometheus.Counter
	UsersRegistered        prometheus.Counter
	RatingRecomputeSeconds prometheus.Histogram
	RatingRecomputeErrors  prometheus.Counter
	SearchSeconds          prometheus.Histogram
	SearchCacheHits        prometheus.Counter
	SearchCacheMisses      prometheus.Counter
	AuthFailures           prometheus.Counter
	EventPublishFailures   prometheus.Counter
	RateLimited            *prometheus.CounterVec
	HTTPRequestSeconds     *prometheus.HistogramVec
}

// New registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers all metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ReviewsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "reviewhub_reviews_created_total",
			Help: "Total number of reviews created",
		}),
		ListingsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "reviewhub_listings_created_total",
			Help: "Total number of listings created",
		}),
		UsersRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "reviewhub_users_registered_total",
			Help: "Total number of users registered",
		}),
		RatingRecomputeSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "reviewhub_rating_recompute_duration_seconds",
			Help:    "Duration of aggregate rating recomputation",
			Buckets: latencyBuckets,
		}),
		RatingRecomputeErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "reviewhub_rating_recompute_failures_total",
			Help: "Aggregate rating recomputations that failed on storage",
		}),
		SearchSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "reviewhub_search_duration_seconds",
			Help:    "Duration of listing search resolution",
			Buckets: latencyBuckets,
		}),
		SearchCacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "reviewhub_search_cache_hits_total",
			Help: "Search results served from cache",
		}),
		SearchCacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "reviewhub_search_cache_misses_total",
			Help: "Search requests that missed the cache",
		}),
		AuthFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "reviewhub_auth_failures_total",
			Help: "Requests rejected by the access guard",
		}),
		EventPublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "reviewhub_event_publish_failures_total",
			Help: "ReviewCreated events that could not be published",
		}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewhub_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"class"}),
		HTTPRequestSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reviewhub_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: latencyBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) IncrementReviewsCreated() {
	if m != nil {
		m.ReviewsCreated.Inc()
	}
}

func (m *Metrics) IncrementListingsCreated() {
	if m != nil {
		m.ListingsCreated.Inc()
	}
}

func (m *Metrics) IncrementUsersRegistered() {
	if m != nil {
		m.UsersRegistered.Inc()
	}
}

// ObserveRatingRecompute records the duration of a recompute.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRatingRecompute(start time.Time) {
	if m != nil {
		m.RatingRecomputeSeconds.Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) IncrementRatingRecomputeErrors() {
	if m != nil {
		m.RatingRecomputeErrors.Inc()
	}
}

// ObserveSearch records the duration of a search.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSearch(start time.Time) {
	if m != nil {
		m.SearchSeconds.Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) IncrementSearchCacheHit() {
	if m != nil {
		m.SearchCacheHits.Inc()
	}
}

func (m *Metrics) IncrementSearchCacheMiss() {
	if m != nil {
		m.SearchCacheMisses.Inc()
	}
}

func (m *Metrics) IncrementAuthFailures() {
	if m != nil {
		m.AuthFailures.Inc()
	}
}

func (m *Metrics) IncrementEventPublishFailures() {
	if m != nil {
		m.EventPublishFailures.Inc()
	}
}

func (m *Metrics) IncrementRateLimited(class string) {
	if m != nil {
		m.RateLimited.WithLabelValues(class).Inc()
	}
}

// ObserveHTTPLatency satisfies the request latency middleware.
func (m *Metrics) ObserveHTTPLatency(method, route string, status int, d time.Duration) {
	if m != nil {
		m.HTTPRequestSeconds.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
	}
}
