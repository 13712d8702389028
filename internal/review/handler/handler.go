package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"reviewhub/internal/platform/metrics"
	"reviewhub/internal/review/models"
	id "reviewhub/pkg/domain"
	dErrors "reviewhub/pkg/domain-errors"
	"reviewhub/pkg/platform/httputil"
	"reviewhub/pkg/platform/middleware/auth"
	request "reviewhub/pkg/platform/middleware/request"
	"reviewhub/pkg/requestcontext"
)

// Service defines the interface for review operations.
type Service interface {
	Create(ctx context.Context, authorID id.UserID, listingID id.ListingID, req *models.CreateReviewRequest) (*models.Review, error)
	ListByListing(ctx context.Context, listingID id.ListingID) ([]models.ReviewView, error)
}

// Handler serves /api/reviews.
type Handler struct {
	service      Service
	logger       *slog.Logger
	metrics      *metrics.Metrics
	jwtValidator auth.JWTValidator
}

func New(service Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator auth.JWTValidator) *Handler {
	return &Handler{
		service:      service,
		logger:       logger,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register registers the review routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/reviews/{restaurantId}", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.With(auth.RequireAuth(h.jwtValidator, h.logger, auth.WithFailureCounter(h.metrics))).
			Post("/", h.handleCreate)
	})
}

// handleCreate takes the author from the verified token. Any author field in
// the body is ignored.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listingID, err := id.ParseListingID(chi.URLParam(r, "restaurantId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.CreateReviewRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	review, err := h.service.Create(ctx, requestcontext.UserID(ctx), listingID, &req)
	if err != nil {
		h.logFailure(ctx, "create review failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, review)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listingID, err := id.ParseListingID(chi.URLParam(r, "restaurantId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reviews, err := h.service.ListByListing(ctx, listingID)
	if err != nil {
		h.logFailure(ctx, "list reviews failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reviews)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
		return
	}
	h.logger.WarnContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
}
