package types

import (
	"time"

	"github.com/google/uuid"
)

// Trip is a persisted itinerary owned by one user. The original request and
// generated response are stored verbatim as JSON documents.
type Trip struct {
	ID                  int64              `json:"id"`
	TripID              uuid.UUID          `json:"trip_id"`
	UserID              uuid.UUID          `json:"user_id"`
	OriginalRequest     ItineraryRequest   `json:"original_request"`
	GeneratedResponse   ItineraryResponse  `json:"generated_response"`
	Title               string             `json:"title,omitempty"`
	LocationDisplayName string             `json:"location_display_name,omitempty"`
	StartDatetimeUTC    time.Time          `json:"start_datetime_utc"`
	EndDatetimeUTC      time.Time          `json:"end_datetime_utc"`
	Status              string             `json:"status"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
	MarkedCompletedAt   *time.Time         `json:"marked_completed_at,omitempty"`
	MemorySnapshotText  string             `json:"memory_snapshot_text,omitempty"`
}

// TripListResponse is a page of trips for one user.
type TripListResponse struct {
	Trips      []Trip `json:"trips"`
	TotalTrips int    `json:"total_trips"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
}

// MemorySnapshotResponse carries the narrative memory for a completed trip.
type MemorySnapshotResponse struct {
	TripID             string `json:"trip_id"`
	MemorySnapshotText string `json:"memory_snapshot_text,omitempty"`
	Message            string `json:"message,omitempty"`
}

// TripCompletionStatus reports a status change on a trip.
type TripCompletionStatus struct {
	TripID            string     `json:"trip_id"`
	Status            string     `json:"status"`
	MarkedCompletedAt *time.Time `json:"marked_completed_at,omitempty"`
	Message           string     `json:"message"`
}
