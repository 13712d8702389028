package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	listingmodels "reviewhub/internal/listing/models"
	"reviewhub/internal/platform/metrics"
	"reviewhub/internal/review/models"
	id "reviewhub/pkg/domain"
	dErrors "reviewhub/pkg/domain-errors"
	"reviewhub/pkg/platform/sentinel"
	"reviewhub/pkg/requestcontext"
)

var tracer = otel.Tracer("reviewhub/review")

// Store persists reviews.
type Store interface {
	Create(ctx context.Context, review *models.Review) error
	ListByListing(ctx context.Context, listingID id.ListingID) ([]*models.Review, error)
}

// ListingReader confirms a listing exists.
type ListingReader interface {
	Get(ctx context.Context, listingID id.ListingID) (*listingmodels.Listing, error)
}

// AuthorDirectory resolves display names for review authors.
type AuthorDirectory interface {
	Usernames(ctx context.Context, userIDs []id.UserID) (map[id.UserID]string, error)
}

// Publisher receives ReviewCreated after the review is stored.
type Publisher interface {
	PublishReviewCreated(ctx context.Context, event models.ReviewCreated) error
}

type Service struct {
	reviews   Store
	listings  ListingReader
	authors   AuthorDirectory
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuthorDirectory(d AuthorDirectory) Option {
	return func(s *Service) {
		s.authors = d
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func New(reviews Store, listings ListingReader, opts ...Option) *Service {
	s := &Service{reviews: reviews, listings: listings, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a review authored by authorID and then announces it. The
// review is durable before any rating recompute observes the event; publish
// failures do not fail the request.
func (s *Service) Create(ctx context.Context, authorID id.UserID, listingID id.ListingID, req *models.CreateReviewRequest) (*models.Review, error) {
	ctx, span := tracer.Start(ctx, "review.Create", trace.WithAttributes(attribute.String("listing_id", listingID.String())))
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.listings.Get(ctx, listingID); err != nil {
		return nil, err
	}

	review := req.ToReview(authorID, listingID, requestcontext.Now(ctx))
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "listing not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create review")
	}
	s.metrics.IncrementReviewsCreated()
	s.logger.InfoContext(ctx, "review created",
		"review_id", review.ID.String(),
		"listing_id", listingID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)

	if s.publisher != nil {
		if err := s.publisher.PublishReviewCreated(ctx, models.NewReviewCreated(review)); err != nil {
			s.metrics.IncrementEventPublishFailures()
			s.logger.ErrorContext(ctx, "failed to publish review created",
				"review_id", review.ID.String(),
				"listing_id", listingID.String(),
				"error", err,
			)
		}
	}
	return review, nil
}

// ListByListing returns the listing's reviews oldest first with author
// usernames. A failed name lookup leaves names empty.
func (s *Service) ListByListing(ctx context.Context, listingID id.ListingID) ([]models.ReviewView, error) {
	ctx, span := tracer.Start(ctx, "review.ListByListing", trace.WithAttributes(attribute.String("listing_id", listingID.String())))
	defer span.End()

	var reviews []*models.Review
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.listings.Get(gctx, listingID)
		return err
	})
	g.Go(func() error {
		var err error
		reviews, err = s.reviews.ListByListing(gctx, listingID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list reviews")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := s.authorNames(ctx, reviews)
	out := make([]models.ReviewView, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, models.ReviewView{Review: r, AuthorUsername: names[r.AuthorID]})
	}
	return out, nil
}

func (s *Service) authorNames(ctx context.Context, reviews []*models.Review) map[id.UserID]string {
	if s.authors == nil || len(reviews) == 0 {
		return nil
	}
	seen := make(map[id.UserID]struct{}, len(reviews))
	ids := make([]id.UserID, 0, len(reviews))
	for _, r := range reviews {
		if _, ok := seen[r.AuthorID]; ok {
			continue
		}
		seen[r.AuthorID] = struct{}{}
		ids = append(ids, r.AuthorID)
	}
	names, err := s.authors.Usernames(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "author lookup failed", "error", err)
		return nil
	}
	return names
}
