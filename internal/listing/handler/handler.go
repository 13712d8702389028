package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"reviewhub/internal/listing/models"
	"reviewhub/internal/platform/metrics"
	id "reviewhub/pkg/domain"
	dErrors "reviewhub/pkg/domain-errors"
	"reviewhub/pkg/platform/httputil"
	"reviewhub/pkg/platform/middleware/auth"
	request "reviewhub/pkg/platform/middleware/request"
	"reviewhub/pkg/requestcontext"
)

// Service defines the interface for listing operations.
type Service interface {
	Create(ctx context.Context, ownerID id.UserID, req *models.CreateListingRequest) (*models.Listing, error)
	Get(ctx context.Context, listingID id.ListingID) (*models.Listing, error)
	Update(ctx context.Context, actor id.UserID, listingID id.ListingID, req *models.UpdateListingRequest) (*models.Listing, error)
	SoftClose(ctx context.Context, actor id.UserID, listingID id.ListingID) (*models.Listing, error)
	List(ctx context.Context) ([]*models.Listing, error)
	Search(ctx context.Context, query string) ([]*models.Listing, error)
}

type closedResponse struct {
	Message string `json:"message"`
}

// Handler serves /api/restaurants and /api/search.
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

// Register registers the listing and search routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/search", h.handleSearch)
	r.Route("/api/restaurants", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/search", h.handleSearch)
		r.Get("/{id}", h.handleGet)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(h.jwtValidator, h.logger, auth.WithFailureCounter(h.metrics)))
			r.Post("/", h.handleCreate)
			r.Put("/{id}", h.handleUpdate)
			r.Delete("/{id}", h.handleClose)
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listings, err := h.service.List(ctx)
	if err != nil {
		h.logFailure(ctx, "list listings failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listings)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listings, err := h.service.Search(ctx, r.URL.Query().Get("query"))
	if err != nil {
		h.logFailure(ctx, "search failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listings)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listingID, err := id.ParseListingID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	listing, err := h.service.Get(ctx, listingID)
	if err != nil {
		h.logFailure(ctx, "get listing failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listing)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.CreateListingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	listing, err := h.service.Create(ctx, requestcontext.UserID(ctx), &req)
	if err != nil {
		h.logFailure(ctx, "create listing failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, listing)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listingID, err := id.ParseListingID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.UpdateListingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	listing, err := h.service.Update(ctx, requestcontext.UserID(ctx), listingID, &req)
	if err != nil {
		h.logFailure(ctx, "update listing failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listing)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	listingID, err := id.ParseListingID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if _, err := h.service.SoftClose(ctx, requestcontext.UserID(ctx), listingID); err != nil {
		h.logFailure(ctx, "close listing failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, closedResponse{Message: "restaurant marked as closed"})
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
		return
	}
	h.logger.WarnContext(ctx, msg, "error", err, "request_id", request.GetRequestID(ctx))
}
