package trips

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	appMiddleware "github.com/triptailor/triptailor/app/middleware"
	"github.com/triptailor/triptailor/internal/api"
	"github.com/triptailor/triptailor/internal/api/itinerary"
)

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service: service,
		logger:  logger,
	}
}

// ListTrips handles GET /api/v1/trips?page=N&page_size=M.
func (h *HandlerImpl) ListTrips(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripsHandler").Start(r.Context(), "ListTrips")
	defer span.End()
	r = r.WithContext(ctx)

	userID, ok := authenticatedUserID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	response, err := h.service.ListTrips(ctx, userID, page, pageSize)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to list trips")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, response)
}

// GetTrip handles GET /api/v1/trips/{tripID}.
func (h *HandlerImpl) GetTrip(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripsHandler").Start(r.Context(), "GetTrip")
	defer span.End()
	r = r.WithContext(ctx)

	userID, ok := authenticatedUserID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	tripID, err := uuid.Parse(chi.URLParam(r, "tripID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip ID")
		return
	}

	trip, err := h.service.GetTrip(ctx, userID, tripID)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to fetch trip")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, trip)
}

// CompleteTrip handles POST /api/v1/trips/{tripID}/complete.
func (h *HandlerImpl) CompleteTrip(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripsHandler").Start(r.Context(), "CompleteTrip")
	defer span.End()
	r = r.WithContext(ctx)

	userID, ok := authenticatedUserID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	tripID, err := uuid.Parse(chi.URLParam(r, "tripID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip ID")
		return
	}

	status, err := h.service.CompleteTrip(ctx, userID, tripID)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to complete trip")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, status)
}

// MemorySnapshot handles POST /api/v1/trips/{tripID}/memory.
func (h *HandlerImpl) MemorySnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripsHandler").Start(r.Context(), "MemorySnapshot")
	defer span.End()
	r = r.WithContext(ctx)

	userID, ok := authenticatedUserID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	tripID, err := uuid.Parse(chi.URLParam(r, "tripID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip ID")
		return
	}

	snapshot, err := h.service.MemorySnapshot(ctx, userID, tripID)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to build memory snapshot")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, snapshot)
}

func (h *HandlerImpl) writeServiceError(w http.ResponseWriter, r *http.Request, err error, logMessage string) {
	h.logger.ErrorContext(r.Context(), logMessage, slog.Any("error", err))

	switch {
	case errors.Is(err, itinerary.ErrTripNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, "Trip not found")
	case errors.Is(err, ErrTripNotCompleted):
		api.ErrorResponse(w, r, http.StatusBadRequest, "Trip must be completed before a memory snapshot can be created")
	default:
		api.ErrorResponse(w, r, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

func authenticatedUserID(r *http.Request) (uuid.UUID, bool) {
	raw, ok := appMiddleware.GetUserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
