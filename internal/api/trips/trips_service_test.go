package trips

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	generativeAI "github.com/triptailor/triptailor/internal/api/generative_ai"
	"github.com/triptailor/triptailor/internal/api/itinerary"
	"github.com/triptailor/triptailor/internal/types"
)

// memoryTripRepo is an in-memory stand-in for the trip repository.
type memoryTripRepo struct {
	trips map[uuid.UUID]*types.Trip
}

var _ itinerary.Repository = (*memoryTripRepo)(nil)

func newMemoryTripRepo() *memoryTripRepo {
	return &memoryTripRepo{trips: make(map[uuid.UUID]*types.Trip)}
}

func (m *memoryTripRepo) CreateTrip(_ context.Context, trip *types.Trip) error {
	stored := *trip
	m.trips[trip.TripID] = &stored
	return nil
}

func (m *memoryTripRepo) UpdateTripResponse(_ context.Context, tripID, userID uuid.UUID, response *types.ItineraryResponse) error {
	trip, ok := m.trips[tripID]
	if !ok || trip.UserID != userID {
		return itinerary.ErrTripNotFound
	}
	trip.GeneratedResponse = *response
	return nil
}

func (m *memoryTripRepo) GetTrip(_ context.Context, tripID, userID uuid.UUID) (*types.Trip, error) {
	trip, ok := m.trips[tripID]
	if !ok || trip.UserID != userID {
		return nil, itinerary.ErrTripNotFound
	}
	copied := *trip
	return &copied, nil
}

func (m *memoryTripRepo) ListTrips(_ context.Context, userID uuid.UUID, page, pageSize int) (*types.TripListResponse, error) {
	var trips []types.Trip
	for _, trip := range m.trips {
		if trip.UserID == userID {
			trips = append(trips, *trip)
		}
	}
	return &types.TripListResponse{Trips: trips, TotalTrips: len(trips), Page: page, PageSize: pageSize}, nil
}

func (m *memoryTripRepo) MarkTripCompleted(_ context.Context, tripID, userID uuid.UUID) (*types.Trip, error) {
	trip, ok := m.trips[tripID]
	if !ok || trip.UserID != userID {
		return nil, itinerary.ErrTripNotFound
	}
	now := time.Now().UTC()
	trip.Status = "completed"
	trip.MarkedCompletedAt = &now
	copied := *trip
	return &copied, nil
}

func (m *memoryTripRepo) SaveMemorySnapshot(_ context.Context, tripID, userID uuid.UUID, text string) error {
	trip, ok := m.trips[tripID]
	if !ok || trip.UserID != userID {
		return itinerary.ErrTripNotFound
	}
	trip.MemorySnapshotText = text
	return nil
}

func setupTripsServiceTest() (*ServiceImpl, *memoryTripRepo) {
	repo := newMemoryTripRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServiceImpl(repo, generativeAI.NewNoopGenerator(), logger), repo
}

func seedTrip(repo *memoryTripRepo, userID uuid.UUID) uuid.UUID {
	tripID := uuid.New()
	_ = repo.CreateTrip(context.Background(), &types.Trip{
		TripID:              tripID,
		UserID:              userID,
		LocationDisplayName: "Lisbon, Portugal",
		Status:              "generated",
		GeneratedResponse: types.ItineraryResponse{
			Itinerary: []types.ItineraryItem{
				{LegType: types.LegTravel, Activity: "Travel to Castelo de São Jorge"},
				{LegType: types.LegActivity, Activity: "Castelo de São Jorge"},
				{LegType: types.LegTravel, Activity: "Travel to Taberna do Mar"},
				{LegType: types.LegActivity, Activity: "Taberna do Mar"},
			},
		},
	})
	return tripID
}

func TestListTrips(t *testing.T) {
	svc, repo := setupTripsServiceTest()
	userID := uuid.New()
	seedTrip(repo, userID)
	seedTrip(repo, uuid.New())

	page, err := svc.ListTrips(context.Background(), userID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalTrips)
	require.Len(t, page.Trips, 1)
	assert.Equal(t, userID, page.Trips[0].UserID)
}

func TestGetTrip(t *testing.T) {
	svc, repo := setupTripsServiceTest()
	userID := uuid.New()
	tripID := seedTrip(repo, userID)

	t.Run("success", func(t *testing.T) {
		trip, err := svc.GetTrip(context.Background(), userID, tripID)
		require.NoError(t, err)
		assert.Equal(t, tripID, trip.TripID)
	})

	t.Run("other user's trip is invisible", func(t *testing.T) {
		_, err := svc.GetTrip(context.Background(), uuid.New(), tripID)
		assert.ErrorIs(t, err, itinerary.ErrTripNotFound)
	})
}

func TestCompleteTrip(t *testing.T) {
	svc, repo := setupTripsServiceTest()
	userID := uuid.New()
	tripID := seedTrip(repo, userID)

	t.Run("marks the trip completed", func(t *testing.T) {
		status, err := svc.CompleteTrip(context.Background(), userID, tripID)
		require.NoError(t, err)
		assert.Equal(t, "completed", status.Status)
		assert.Equal(t, tripID.String(), status.TripID)
		require.NotNil(t, status.MarkedCompletedAt)
		assert.NotEmpty(t, status.Message)
	})

	t.Run("unknown trip", func(t *testing.T) {
		_, err := svc.CompleteTrip(context.Background(), userID, uuid.New())
		assert.ErrorIs(t, err, itinerary.ErrTripNotFound)
	})
}

func TestMemorySnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a completed trip", func(t *testing.T) {
		svc, repo := setupTripsServiceTest()
		userID := uuid.New()
		tripID := seedTrip(repo, userID)

		_, err := svc.MemorySnapshot(ctx, userID, tripID)
		assert.ErrorIs(t, err, ErrTripNotCompleted)
	})

	t.Run("generates and persists on first request", func(t *testing.T) {
		svc, repo := setupTripsServiceTest()
		userID := uuid.New()
		tripID := seedTrip(repo, userID)
		_, err := svc.CompleteTrip(ctx, userID, tripID)
		require.NoError(t, err)

		snapshot, err := svc.MemorySnapshot(ctx, userID, tripID)
		require.NoError(t, err)
		assert.Equal(t, tripID.String(), snapshot.TripID)
		assert.Contains(t, snapshot.MemorySnapshotText, "lisbon")
		assert.Contains(t, snapshot.MemorySnapshotText, "Castelo de São Jorge")

		stored, err := repo.GetTrip(ctx, tripID, userID)
		require.NoError(t, err)
		assert.Equal(t, snapshot.MemorySnapshotText, stored.MemorySnapshotText)
	})

	t.Run("returns the stored text on later requests", func(t *testing.T) {
		svc, repo := setupTripsServiceTest()
		userID := uuid.New()
		tripID := seedTrip(repo, userID)
		_, err := svc.CompleteTrip(ctx, userID, tripID)
		require.NoError(t, err)

		first, err := svc.MemorySnapshot(ctx, userID, tripID)
		require.NoError(t, err)
		second, err := svc.MemorySnapshot(ctx, userID, tripID)
		require.NoError(t, err)
		assert.Equal(t, first.MemorySnapshotText, second.MemorySnapshotText)
		assert.Empty(t, second.Message)
	})

	t.Run("unknown trip", func(t *testing.T) {
		svc, _ := setupTripsServiceTest()
		_, err := svc.MemorySnapshot(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, itinerary.ErrTripNotFound)
	})
}
