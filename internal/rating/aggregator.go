package rating

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"reviewhub/internal/platform/metrics"
	reviewmodels "reviewhub/internal/review/models"
	id "reviewhub/pkg/domain"
	"reviewhub/pkg/platform/sentinel"
)

var tracer = otel.Tracer("reviewhub/rating")

// ReviewLister reads the full review set of a listing.
type ReviewLister interface {
	ListByListing(ctx context.Context, listingID id.ListingID) ([]*reviewmodels.Review, error)
}

// RatingWriter stores the aggregate on the listing.
type RatingWriter interface {
	SetRating(ctx context.Context, listingID id.ListingID, rating float64, count int) error
}

// Aggregator recomputes a listing's aggregate rating from all its reviews.
// Each run is a full recompute, so repeated or out-of-order triggers
// converge on the same value.
type Aggregator struct {
	reviews  ReviewLister
	listings RatingWriter
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Aggregator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

func NewAggregator(reviews ReviewLister, listings RatingWriter, opts ...Option) *Aggregator {
	a := &Aggregator{reviews: reviews, listings: listings, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Recompute stores and returns the mean rating rounded to one decimal. A
// listing that no longer exists is skipped.
func (a *Aggregator) Recompute(ctx context.Context, listingID id.ListingID) (float64, error) {
	ctx, span := tracer.Start(ctx, "rating.Recompute", trace.WithAttributes(attribute.String("listing_id", listingID.String())))
	defer span.End()
	defer a.metrics.ObserveRatingRecompute(time.Now())

	reviews, err := a.reviews.ListByListing(ctx, listingID)
	if err != nil {
		a.metrics.IncrementRatingRecomputeErrors()
		return 0, err
	}
	mean := Mean(reviews)

	if err := a.listings.SetRating(ctx, listingID, mean, len(reviews)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			a.logger.WarnContext(ctx, "rating recompute skipped for missing listing", "listing_id", listingID.String())
			return 0, nil
		}
		a.metrics.IncrementRatingRecomputeErrors()
		return 0, err
	}
	span.SetAttributes(attribute.Float64("rating", mean), attribute.Int("review_count", len(reviews)))
	return mean, nil
}

// Mean is the arithmetic mean of the ratings rounded half away from zero to
// one decimal place. No reviews means 0.
func Mean(reviews []*reviewmodels.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return math.Round(float64(sum)/float64(len(reviews))*10) / 10
}
