package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/triptailor/triptailor/app/observability/metrics"
	"github.com/triptailor/triptailor/internal/types"
)

// ErrTripNotFound means no trip matched the ID for this user.
var ErrTripNotFound = errors.New("trip not found")

// Repository persists generated trips, always scoped to the owning user.
type Repository interface {
	CreateTrip(ctx context.Context, trip *types.Trip) error
	UpdateTripResponse(ctx context.Context, tripID, userID uuid.UUID, response *types.ItineraryResponse) error
	GetTrip(ctx context.Context, tripID, userID uuid.UUID) (*types.Trip, error)
	ListTrips(ctx context.Context, userID uuid.UUID, page, pageSize int) (*types.TripListResponse, error)
	MarkTripCompleted(ctx context.Context, tripID, userID uuid.UUID) (*types.Trip, error)
	SaveMemorySnapshot(ctx context.Context, tripID, userID uuid.UUID, text string) error
}

// PostgresRunner is the subset of pgxpool.Pool the repository needs. The
// pgxmock pool satisfies it in tests.
type PostgresRunner interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ PostgresRunner = (*pgxpool.Pool)(nil)

type RepositoryImpl struct {
	logger  *slog.Logger
	pgpool  PostgresRunner
	metrics *metrics.AppMetrics
}

var _ Repository = (*RepositoryImpl)(nil)

func NewRepositoryImpl(pool PostgresRunner, logger *slog.Logger, appMetrics *metrics.AppMetrics) *RepositoryImpl {
	return &RepositoryImpl{
		logger:  logger,
		pgpool:  pool,
		metrics: appMetrics,
	}
}

func (r *RepositoryImpl) observe(ctx context.Context, query string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("query", query))
	r.metrics.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		r.metrics.DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

func (r *RepositoryImpl) CreateTrip(ctx context.Context, trip *types.Trip) error {
	ctx, span := otel.Tracer("ItineraryRepository").Start(ctx, "CreateTrip")
	defer span.End()
	span.SetAttributes(attribute.String("trip.id", trip.TripID.String()))

	requestJSON, err := json.Marshal(trip.OriginalRequest)
	if err != nil {
		return fmt.Errorf("marshalling original request: %w", err)
	}
	responseJSON, err := json.Marshal(trip.GeneratedResponse)
	if err != nil {
		return fmt.Errorf("marshalling generated response: %w", err)
	}

	start := time.Now()
	_, err = r.pgpool.Exec(ctx, `
        INSERT INTO user_trips
            (trip_id, user_id, original_request, generated_response, trip_title,
             location_display_name, trip_start_datetime_utc, trip_end_datetime_utc, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		trip.TripID, trip.UserID, requestJSON, responseJSON, trip.Title,
		trip.LocationDisplayName, trip.StartDatetimeUTC, trip.EndDatetimeUTC, trip.Status,
	)
	r.observe(ctx, "create_trip", start, err)
	if err != nil {
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("inserting trip: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) UpdateTripResponse(ctx context.Context, tripID, userID uuid.UUID, response *types.ItineraryResponse) error {
	ctx, span := otel.Tracer("ItineraryRepository").Start(ctx, "UpdateTripResponse")
	defer span.End()

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("marshalling generated response: %w", err)
	}

	start := time.Now()
	tag, err := r.pgpool.Exec(ctx, `
        UPDATE user_trips
        SET generated_response = $1, updated_at = now()
        WHERE trip_id = $2 AND user_id = $3`,
		responseJSON, tripID, userID,
	)
	r.observe(ctx, "update_trip_response", start, err)
	if err != nil {
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("updating trip response: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTripNotFound
	}
	return nil
}

const tripColumns = `
    id, trip_id, user_id, original_request, generated_response,
    COALESCE(trip_title, ''), COALESCE(location_display_name, ''),
    trip_start_datetime_utc, trip_end_datetime_utc, status,
    created_at, updated_at, marked_completed_at, COALESCE(memory_snapshot_text, '')`

func scanTrip(row pgx.Row) (*types.Trip, error) {
	var trip types.Trip
	var requestJSON, responseJSON []byte
	err := row.Scan(
		&trip.ID, &trip.TripID, &trip.UserID, &requestJSON, &responseJSON,
		&trip.Title, &trip.LocationDisplayName,
		&trip.StartDatetimeUTC, &trip.EndDatetimeUTC, &trip.Status,
		&trip.CreatedAt, &trip.UpdatedAt, &trip.MarkedCompletedAt, &trip.MemorySnapshotText,
	)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(requestJSON, &trip.OriginalRequest); err != nil {
		return nil, fmt.Errorf("unmarshalling original request: %w", err)
	}
	if err = json.Unmarshal(responseJSON, &trip.GeneratedResponse); err != nil {
		return nil, fmt.Errorf("unmarshalling generated response: %w", err)
	}
	return &trip, nil
}

func (r *RepositoryImpl) GetTrip(ctx context.Context, tripID, userID uuid.UUID) (*types.Trip, error) {
	ctx, span := otel.Tracer("ItineraryRepository").Start(ctx, "GetTrip")
	defer span.End()
	span.SetAttributes(attribute.String("trip.id", tripID.String()))

	start := time.Now()
	trip, err := scanTrip(r.pgpool.QueryRow(ctx,
		`SELECT`+tripColumns+` FROM user_trips WHERE trip_id = $1 AND user_id = $2`,
		tripID, userID,
	))
	r.observe(ctx, "get_trip", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		span.SetStatus(codes.Error, "select failed")
		return nil, fmt.Errorf("fetching trip: %w", err)
	}
	return trip, nil
}

func (r *RepositoryImpl) ListTrips(ctx context.Context, userID uuid.UUID, page, pageSize int) (*types.TripListResponse, error) {
	ctx, span := otel.Tracer("ItineraryRepository").Start(ctx, "ListTrips")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	start := time.Now()
	var total int
	err := r.pgpool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_trips WHERE user_id = $1`, userID,
	).Scan(&total)
	r.observe(ctx, "count_trips", start, err)
	if err != nil {
		return nil, fmt.Errorf("counting trips: %w", err)
	}

	start = time.Now()
	rows, err := r.pgpool.Query(ctx,
		`SELECT`+tripColumns+`
         FROM user_trips WHERE user_id = $1
         ORDER BY created_at DESC
         LIMIT $2 OFFSET $3`,
		userID, pageSize, (page-1)*pageSize,
	)
	r.observe(ctx, "list_trips", start, err)
	if err != nil {
		span.SetStatus(codes.Error, "select failed")
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	defer rows.Close()

	trips := make([]types.Trip, 0, pageSize)
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning trip row: %w", err)
		}
		trips = append(trips, *trip)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trip rows: %w", err)
	}

	return &types.TripListResponse{
		Trips:      trips,
		TotalTrips: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

func (r *RepositoryImpl) MarkTripCompleted(ctx context.Context, tripID, userID uuid.UUID) (*types.Trip, error) {
	ctx, span := otel.Tracer("ItineraryRepository").Start(ctx, "MarkTripCompleted")
	defer span.End()
	span.SetAttributes(attribute.String("trip.id", tripID.String()))

	start := time.Now()
	trip, err := scanTrip(r.pgpool.QueryRow(ctx, `
        UPDATE user_trips
        SET status = 'completed', marked_completed_at = now(), updated_at = now()
        WHERE trip_id = $1 AND user_id = $2
        RETURNING`+tripColumns,
		tripID, userID,
	))
	r.observe(ctx, "mark_trip_completed", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		span.SetStatus(codes.Error, "update failed")
		return nil, fmt.Errorf("marking trip completed: %w", err)
	}
	return trip, nil
}

func (r *RepositoryImpl) SaveMemorySnapshot(ctx context.Context, tripID, userID uuid.UUID, text string) error {
	ctx, span := otel.Tracer("ItineraryRepository").Start(ctx, "SaveMemorySnapshot")
	defer span.End()

	start := time.Now()
	tag, err := r.pgpool.Exec(ctx, `
        UPDATE user_trips
        SET memory_snapshot_text = $1, updated_at = now()
        WHERE trip_id = $2 AND user_id = $3`,
		text, tripID, userID,
	)
	r.observe(ctx, "save_memory_snapshot", start, err)
	if err != nil {
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("saving memory snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTripNotFound
	}
	return nil
}
