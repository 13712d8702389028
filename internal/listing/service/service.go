package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"reviewhub/internal/listing/models"
	"reviewhub/internal/platform/metrics"
	id "reviewhub/pkg/domain"
	dErrors "reviewhub/pkg/domain-errors"
	"reviewhub/pkg/platform/sentinel"
	"reviewhub/pkg/requestcontext"
)

var tracer = otel.Tracer("reviewhub/listing")

// Store owns listing records and their aggregate rating.
type Store interface {
	Create(ctx context.Context, listing *models.Listing) error
	FindByID(ctx context.Context, listingID id.ListingID) (*models.Listing, error)
	Update(ctx context.Context, listingID id.ListingID, fn func(*models.Listing) error) (*models.Listing, error)
	SetRating(ctx context.Context, listingID id.ListingID, rating float64, count int) error
	List(ctx context.Context) ([]*models.Listing, error)
	Search(ctx context.Context, query string) ([]*models.Listing, error)
}

// SearchCache is an optional read-through cache for Search.
type SearchCache interface {
	Get(ctx context.Context, query string) ([]*models.Listing, int64, bool, error)
	Set(ctx context.Context, generation int64, query string, listings []*models.Listing) error
	Invalidate(ctx context.Context) error
}

// Service implements listing CRUD, soft-close and search.
type Service struct {
	listings Store
	cache    SearchCache
	logger   *slog.Logger
	metrics  *metrics.Metrics
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

func WithSearchCache(c SearchCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func New(listings Store, opts ...Option) *Service {
	s := &Service{listings: listings, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, ownerID id.UserID, req *models.CreateListingRequest) (*models.Listing, error) {
	ctx, span := tracer.Start(ctx, "listing.Create")
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	listing := req.ToListing(ownerID, requestcontext.Now(ctx))
	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create listing")
	}

	span.SetAttributes(attribute.String("listing_id", listing.ID.String()))
	s.logger.InfoContext(ctx, "listing created",
		"listing_id", listing.ID.String(),
		"owner_id", ownerID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.metrics.IncrementListingsCreated()
	s.invalidate(ctx)
	return listing, nil
}

func (s *Service) Get(ctx context.Context, listingID id.ListingID) (*models.Listing, error) {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, translate(err, "failed to load listing")
	}
	return listing, nil
}

// Update applies a partial update. Only the owner may update a listing.
func (s *Service) Update(ctx context.Context, actor id.UserID, listingID id.ListingID, req *models.UpdateListingRequest) (*models.Listing, error) {
	ctx, span := tracer.Start(ctx, "listing.Update", trace.WithAttributes(attribute.String("listing_id", listingID.String())))
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	listing, err := s.listings.Update(ctx, listingID, func(l *models.Listing) error {
		if !l.IsOwnedBy(actor) {
			return errNotOwner
		}
		req.Apply(l, now)
		return nil
	})
	if err != nil {
		return nil, translate(err, "failed to update listing")
	}
	s.invalidate(ctx)
	return listing, nil
}

// SoftClose marks the listing closed. Repeating it is harmless.
func (s *Service) SoftClose(ctx context.Context, actor id.UserID, listingID id.ListingID) (*models.Listing, error) {
	ctx, span := tracer.Start(ctx, "listing.SoftClose", trace.WithAttributes(attribute.String("listing_id", listingID.String())))
	defer span.End()

	now := requestcontext.Now(ctx)
	listing, err := s.listings.Update(ctx, listingID, func(l *models.Listing) error {
		if !l.IsOwnedBy(actor) {
			return errNotOwner
		}
		l.Close(now)
		return nil
	})
	if err != nil {
		return nil, translate(err, "failed to close listing")
	}
	s.logger.InfoContext(ctx, "listing closed",
		"listing_id", listingID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.invalidate(ctx)
	return listing, nil
}

// SetRating persists a recomputed aggregate. Store errors keep their sentinel
// in the chain so callers can detect a missing listing.
func (s *Service) SetRating(ctx context.Context, listingID id.ListingID, rating float64, count int) error {
	if err := s.listings.SetRating(ctx, listingID, rating, count); err != nil {
		return translate(err, "failed to store rating")
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) List(ctx context.Context) ([]*models.Listing, error) {
	listings, err := s.listings.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list listings")
	}
	return listings, nil
}

// Search resolves a free-text query against name and cuisine. The query is
// matched as given, whitespace included; only the empty query returns the
// whole collection. Results keep insertion order.
func (s *Service) Search(ctx context.Context, query string) ([]*models.Listing, error) {
	ctx, span := tracer.Start(ctx, "listing.Search")
	defer span.End()
	defer s.metrics.ObserveSearch(time.Now())

	if query == "" {
		return s.List(ctx)
	}

	var (
		generation int64
		cacheable  bool
	)
	if s.cache != nil {
		cached, gen, hit, err := s.cache.Get(ctx, query)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "search cache read failed", "error", err)
		case hit:
			s.metrics.IncrementSearchCacheHit()
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return cached, nil
		default:
			s.metrics.IncrementSearchCacheMiss()
			generation = gen
			cacheable = true
		}
	}

	listings, err := s.listings.Search(ctx, query)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search listings")
	}
	// Without a generation from a successful read the entry could not be
	// tied to a cache state, so it is not written.
	if cacheable {
		if err := s.cache.Set(ctx, generation, query, listings); err != nil {
			s.logger.WarnContext(ctx, "search cache write failed", "error", err)
		}
	}
	return listings, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "search cache invalidation failed", "error", err)
	}
}

var errNotOwner = dErrors.New(dErrors.CodeForbidden, "only the listing owner may modify it")

func translate(err error, internalMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "listing not found")
	case dErrors.HasCode(err, dErrors.CodeForbidden):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
	}
}
