package itinerary

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	appMiddleware "github.com/triptailor/triptailor/app/middleware"
	"github.com/triptailor/triptailor/internal/api"
	"github.com/triptailor/triptailor/internal/api/location"
	"github.com/triptailor/triptailor/internal/types"
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

// BuildItinerary handles POST /api/v1/itinerary.
func (h *HandlerImpl) BuildItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "BuildItinerary")
	defer span.End()
	r = r.WithContext(ctx)

	userID, ok := authenticatedUserID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req types.ItineraryRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.service.BuildItinerary(ctx, userID, &req)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to build itinerary")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, response)
}

// SerendipitySuggestion handles POST /api/v1/itinerary/serendipity. A 204
// means no suggestion could be made right now.
func (h *HandlerImpl) SerendipitySuggestion(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "SerendipitySuggestion")
	defer span.End()
	r = r.WithContext(ctx)

	userID, ok := authenticatedUserID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req types.SerendipityRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.service.SerendipitySuggestion(ctx, userID, &req)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to generate suggestion")
		return
	}
	if response == nil {
		api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, response)
}

// InsertActivity handles POST /api/v1/itinerary/insert.
func (h *HandlerImpl) InsertActivity(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "InsertActivity")
	defer span.End()
	r = r.WithContext(ctx)

	userID, ok := authenticatedUserID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req types.InsertionRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.service.InsertActivity(ctx, userID, &req)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to insert activity")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, response)
}

func (h *HandlerImpl) writeServiceError(w http.ResponseWriter, r *http.Request, err error, logMessage string) {
	h.logger.ErrorContext(r.Context(), logMessage, slog.Any("error", err))

	switch {
	case errors.Is(err, location.ErrNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, "The requested location could not be found")
	case errors.Is(err, location.ErrServiceUnavailable):
		api.ErrorResponse(w, r, http.StatusServiceUnavailable, "Could not fetch map data at this time")
	case errors.Is(err, ErrNoInsertionPoint):
		api.ErrorResponse(w, r, http.StatusBadRequest, "Could not find a valid insertion point for the new activity")
	case errors.Is(err, ErrWindowExceeded):
		api.ErrorResponse(w, r, http.StatusBadRequest, "Adding this activity exceeds the trip time window by more than the allowed grace period")
	case errors.Is(err, ErrTripNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, "Trip not found")
	default:
		api.ErrorResponse(w, r, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// authenticatedUserID pulls the user ID the auth middleware stored on the
// request context.
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
