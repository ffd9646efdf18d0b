package trips

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/triptailor/triptailor/internal/api/generative_ai"
	"github.com/triptailor/triptailor/internal/api/itinerary"
	"github.com/triptailor/triptailor/internal/types"
)

// ErrTripNotCompleted means a memory snapshot was requested before the trip
// was marked completed.
var ErrTripNotCompleted = errors.New("trip is not completed yet")

// Service manages the lifecycle of saved trips.
type Service interface {
	ListTrips(ctx context.Context, userID uuid.UUID, page, pageSize int) (*types.TripListResponse, error)
	GetTrip(ctx context.Context, userID, tripID uuid.UUID) (*types.Trip, error)
	CompleteTrip(ctx context.Context, userID, tripID uuid.UUID) (*types.TripCompletionStatus, error)
	MemorySnapshot(ctx context.Context, userID, tripID uuid.UUID) (*types.MemorySnapshotResponse, error)
}

type ServiceImpl struct {
	logger    *slog.Logger
	repo      itinerary.Repository
	generator generativeAI.Generator
}

var _ Service = (*ServiceImpl)(nil)

func NewServiceImpl(repo itinerary.Repository, generator generativeAI.Generator, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		repo:      repo,
		generator: generator,
	}
}

func (s *ServiceImpl) ListTrips(ctx context.Context, userID uuid.UUID, page, pageSize int) (*types.TripListResponse, error) {
	ctx, span := otel.Tracer("TripsService").Start(ctx, "ListTrips")
	defer span.End()
	return s.repo.ListTrips(ctx, userID, page, pageSize)
}

func (s *ServiceImpl) GetTrip(ctx context.Context, userID, tripID uuid.UUID) (*types.Trip, error) {
	ctx, span := otel.Tracer("TripsService").Start(ctx, "GetTrip")
	defer span.End()
	return s.repo.GetTrip(ctx, tripID, userID)
}

func (s *ServiceImpl) CompleteTrip(ctx context.Context, userID, tripID uuid.UUID) (*types.TripCompletionStatus, error) {
	ctx, span := otel.Tracer("TripsService").Start(ctx, "CompleteTrip")
	defer span.End()

	trip, err := s.repo.MarkTripCompleted(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Trip marked completed", slog.String("trip_id", tripID.String()))
	return &types.TripCompletionStatus{
		TripID:            trip.TripID.String(),
		Status:            trip.Status,
		MarkedCompletedAt: trip.MarkedCompletedAt,
		Message:           "Trip marked as completed. Hope it was a good one!",
	}, nil
}

// MemorySnapshot returns the keepsake text for a completed trip, generating
// and persisting it on first request.
func (s *ServiceImpl) MemorySnapshot(ctx context.Context, userID, tripID uuid.UUID) (*types.MemorySnapshotResponse, error) {
	ctx, span := otel.Tracer("TripsService").Start(ctx, "MemorySnapshot")
	defer span.End()

	trip, err := s.repo.GetTrip(ctx, tripID, userID)
	if err != nil {
		return nil, err
	}
	if trip.MemorySnapshotText != "" {
		return &types.MemorySnapshotResponse{
			TripID:             trip.TripID.String(),
			MemorySnapshotText: trip.MemorySnapshotText,
		}, nil
	}
	if trip.Status != "completed" {
		return nil, ErrTripNotCompleted
	}

	var activityNames []string
	for _, item := range trip.GeneratedResponse.Itinerary {
		if item.LegType == types.LegActivity {
			activityNames = append(activityNames, item.Activity)
		}
	}
	city := itinerary.NormalizeCityName(trip.LocationDisplayName)

	text, err := s.generator.MemorySnapshot(ctx, city, activityNames)
	if err != nil {
		return nil, fmt.Errorf("generating memory snapshot: %w", err)
	}
	if err = s.repo.SaveMemorySnapshot(ctx, tripID, userID, text); err != nil {
		return nil, err
	}

	return &types.MemorySnapshotResponse{
		TripID:             trip.TripID.String(),
		MemorySnapshotText: text,
		Message:            "Memory snapshot generated.",
	}, nil
}
