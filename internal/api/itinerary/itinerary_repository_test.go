package itinerary

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triptailor/triptailor/internal/types"
)

func setupRepositoryTest(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRepositoryImpl(mock, logger, nil), mock
}

var tripRowColumns = []string{
	"id", "trip_id", "user_id", "original_request", "generated_response",
	"trip_title", "location_display_name", "trip_start_datetime_utc",
	"trip_end_datetime_utc", "status", "created_at", "updated_at",
	"marked_completed_at", "memory_snapshot_text",
}

func tripRow(tripID, userID uuid.UUID, status string) *pgxmock.Rows {
	now := time.Now().UTC()
	return pgxmock.NewRows(tripRowColumns).AddRow(
		int64(1), tripID, userID, []byte(`{"budget": 5000}`), []byte(`{"start_lat": 38.7, "start_lon": -9.1, "itinerary": [], "total_estimated_cost": 0}`),
		"A day in Lisbon", "Lisbon, Portugal", now, now.Add(6*time.Hour), status,
		now, now, nil, "",
	)
}

func sampleTrip(tripID, userID uuid.UUID) *types.Trip {
	return &types.Trip{
		TripID:              tripID,
		UserID:              userID,
		OriginalRequest:     types.ItineraryRequest{Budget: 5000},
		GeneratedResponse:   types.ItineraryResponse{TripID: tripID.String()},
		Title:               "A day in Lisbon",
		LocationDisplayName: "Lisbon, Portugal",
		StartDatetimeUTC:    time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC),
		EndDatetimeUTC:      time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC),
		Status:              "generated",
	}
}

func TestRepositoryCreateTrip(t *testing.T) {
	ctx := context.Background()
	tripID, userID := uuid.New(), uuid.New()

	t.Run("success", func(t *testing.T) {
		repo, mock := setupRepositoryTest(t)
		trip := sampleTrip(tripID, userID)
		mock.ExpectExec("INSERT INTO user_trips").
			WithArgs(trip.TripID, trip.UserID, pgxmock.AnyArg(), pgxmock.AnyArg(), trip.Title,
				trip.LocationDisplayName, trip.StartDatetimeUTC, trip.EndDatetimeUTC, trip.Status).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.CreateTrip(ctx, trip))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		repo, mock := setupRepositoryTest(t)
		mock.ExpectExec("INSERT INTO user_trips").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(assert.AnError)

		err := repo.CreateTrip(ctx, sampleTrip(tripID, userID))
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestRepositoryUpdateTripResponse(t *testing.T) {
	ctx := context.Background()
	tripID, userID := uuid.New(), uuid.New()
	response := &types.ItineraryResponse{TripID: tripID.String(), TotalEstimatedCost: 750}

	t.Run("success", func(t *testing.T) {
		repo, mock := setupRepositoryTest(t)
		mock.ExpectExec("UPDATE user_trips").
			WithArgs(pgxmock.AnyArg(), tripID, userID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.UpdateTripResponse(ctx, tripID, userID, response))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no matching trip", func(t *testing.T) {
		repo, mock := setupRepositoryTest(t)
		mock.ExpectExec("UPDATE user_trips").
			WithArgs(pgxmock.AnyArg(), tripID, userID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateTripResponse(ctx, tripID, userID, response)
		assert.ErrorIs(t, err, ErrTripNotFound)
	})
}

func TestRepositoryGetTrip(t *testing.T) {
	ctx := context.Background()
	tripID, userID := uuid.New(), uuid.New()

	t.Run("success", func(t *testing.T) {
		repo, mock := setupRepositoryTest(t)
		mock.ExpectQuery("FROM user_trips WHERE trip_id").
			WithArgs(tripID, userID).
			WillReturnRows(tripRow(tripID, userID, "generated"))

		trip, err := repo.GetTrip(ctx, tripID, userID)
		require.NoError(t, err)
		assert.Equal(t, tripID, trip.TripID)
		assert.Equal(t, "generated", trip.Status)
		assert.Equal(t, 5000.0, trip.OriginalRequest.Budget)
		assert.Equal(t, "Lisbon, Portugal", trip.LocationDisplayName)
		assert.Nil(t, trip.MarkedCompletedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := setupRepositoryTest(t)
		mock.ExpectQuery("FROM user_trips WHERE trip_id").
			WithArgs(tripID, userID).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetTrip(ctx, tripID, userID)
		assert.ErrorIs(t, err, ErrTripNotFound)
	})
}

func TestRepositoryListTrips(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("returns a page with total", func(t *testing.T) {
		repo, mock := setupRepositoryTest(t)
		mock.ExpectQuery("SELECT COUNT").
			WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
		rows := tripRow(uuid.New(), userID, "generated")
		mock.ExpectQuery("FROM user_trips WHERE user_id").
			WithArgs(userID, 20, 0).
			WillReturnRows(rows)

		page, err := repo.ListTrips(ctx, userID, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, 2, page.TotalTrips)
		assert.Len(t, page.Trips, 1)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 20, page.PageSize)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("out-of-range paging is clamped", func(t *testing.T) {
		repo, mock := setupRepositoryTest(t)
		mock.ExpectQuery("SELECT COUNT").
			WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("FROM user_trips WHERE user_id").
			WithArgs(userID, 20, 0).
			WillReturnRows(pgxmock.NewRows(tripRowColumns))

		page, err := repo.ListTrips(ctx, userID, 0, 500)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 20, page.PageSize)
		assert.Empty(t, page.Trips)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("count failure", func(t *testing.T) {
		repo, mock := setupRepositoryTest(t)
		mock.ExpectQuery("SELECT COUNT").
			WithArgs(userID).
			WillReturnError(assert.AnError)

		_, err := repo.ListTrips(ctx, userID, 1, 20)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestRepositoryMarkTripCompleted(t *testing.T) {
	ctx := context.Background()
	tripID, userID := uuid.New(), uuid.New()

	t.Run("success", func(t *testing.T) {
		repo, mock := setupRepositoryTest(t)
		now := time.Now().UTC()
		row := pgxmock.NewRows(tripRowColumns).AddRow(
			int64(1), tripID, userID, []byte(`{}`), []byte(`{"start_lat": 0, "start_lon": 0, "itinerary": [], "total_estimated_cost": 0}`),
			"", "Lisbon, Portugal", now, now.Add(6*time.Hour), "completed",
			now, now, &now, "",
		)
		mock.ExpectQuery("UPDATE user_trips").
			WithArgs(tripID, userID).
			WillReturnRows(row)

		trip, err := repo.MarkTripCompleted(ctx, tripID, userID)
		require.NoError(t, err)
		assert.Equal(t, "completed", trip.Status)
		require.NotNil(t, trip.MarkedCompletedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := setupRepositoryTest(t)
		mock.ExpectQuery("UPDATE user_trips").
			WithArgs(tripID, userID).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.MarkTripCompleted(ctx, tripID, userID)
		assert.ErrorIs(t, err, ErrTripNotFound)
	})
}

func TestRepositorySaveMemorySnapshot(t *testing.T) {
	ctx := context.Background()
	tripID, userID := uuid.New(), uuid.New()

	t.Run("success", func(t *testing.T) {
		repo, mock := setupRepositoryTest(t)
		mock.ExpectExec("UPDATE user_trips").
			WithArgs("You spent the day in Lisbon.", tripID, userID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.SaveMemorySnapshot(ctx, tripID, userID, "You spent the day in Lisbon."))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := setupRepositoryTest(t)
		mock.ExpectExec("UPDATE user_trips").
			WithArgs("text", tripID, userID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.SaveMemorySnapshot(ctx, tripID, userID, "text")
		assert.ErrorIs(t, err, ErrTripNotFound)
	})
}
