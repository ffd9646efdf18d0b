package types

import (
	"fmt"
	"strings"
	"time"
)

type LegType string

const (
	LegTravel   LegType = "TRAVEL"
	LegActivity LegType = "ACTIVITY"
	LegBreak    LegType = "BREAK"
)

type TravelMode string

const (
	ModeDriving   TravelMode = "driving"
	ModeWalking   TravelMode = "walking"
	ModeBicycling TravelMode = "bicycling"
	ModeTransit   TravelMode = "transit"
)

// MaxTripWindow caps a single plan at one contiguous window.
const MaxTripWindow = 7 * 24 * time.Hour

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RouteInfo is the routing provider's answer for one leg.
type RouteInfo struct {
	DistanceKm  float64    `json:"distance_km"`
	DurationHrs float64    `json:"duration_hrs"`
	Polyline    []GeoPoint `json:"overview_polyline,omitempty"`
}

// ItineraryRequest is the caller's build request. Datetimes are RFC3339
// strings so the wire format stays stable across clients.
type ItineraryRequest struct {
	Location               string     `json:"location,omitempty"`
	StartLat               *float64   `json:"start_lat,omitempty"`
	StartLon               *float64   `json:"start_lon,omitempty"`
	Budget                 float64    `json:"budget"`
	SelectedPreferences    []string   `json:"selected_preferences,omitempty"`
	CustomTripDescription  string     `json:"custom_trip_description,omitempty"`
	StartDatetime          string     `json:"start_datetime"`
	EndDatetime            string     `json:"end_datetime"`
	ExcludeOSMIDs          []int64    `json:"exclude_osm_ids,omitempty"`
	SurpriseMe             bool       `json:"surprise_me,omitempty"`
	TravelMode             TravelMode `json:"travel_mode,omitempty"`
}

// Validate rejects malformed requests before any external call is made.
func (r *ItineraryRequest) Validate() error {
	if r.Budget < 0 {
		return fmt.Errorf("budget must be non-negative")
	}
	hasText := strings.TrimSpace(r.Location) != "" && !strings.HasPrefix(r.Location, "[Lat:")
	hasCoords := r.StartLat != nil && r.StartLon != nil
	if !hasText && !hasCoords {
		return fmt.Errorf("either a location text or start_lat/start_lon must be provided")
	}
	if hasCoords {
		if *r.StartLat < -90 || *r.StartLat > 90 || *r.StartLon < -180 || *r.StartLon > 180 {
			return fmt.Errorf("start coordinates out of range")
		}
	}
	start, end, err := r.Window()
	if err != nil {
		return err
	}
	if !end.After(start) {
		return fmt.Errorf("end datetime must be strictly after start datetime")
	}
	if end.Sub(start) > MaxTripWindow {
		return fmt.Errorf("trip duration cannot exceed 7 days")
	}
	switch r.TravelMode {
	case "", ModeDriving, ModeWalking, ModeBicycling, ModeTransit:
	default:
		return fmt.Errorf("unsupported travel mode %q", r.TravelMode)
	}
	return nil
}

// Window parses the request datetimes into UTC instants.
func (r *ItineraryRequest) Window() (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, r.StartDatetime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_datetime %q: %w", r.StartDatetime, err)
	}
	end, err := time.Parse(time.RFC3339, r.EndDatetime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end_datetime %q: %w", r.EndDatetime, err)
	}
	return start.UTC(), end.UTC(), nil
}

// Mode returns the effective travel mode.
func (r *ItineraryRequest) Mode() TravelMode {
	if r.TravelMode == "" {
		return ModeDriving
	}
	return r.TravelMode
}

// ItineraryItem is one leg of a generated plan. LegType discriminates which
// fields carry meaning: TRAVEL legs have distance and polyline, ACTIVITY legs
// have matched preferences and insight, BREAK legs only have the time bounds.
type ItineraryItem struct {
	LegType              LegType    `json:"leg_type"`
	Activity             string     `json:"activity"`
	OSMID                *int64     `json:"osm_id,omitempty"`
	EstimatedDurationHrs float64    `json:"estimated_duration_hrs"`
	EstimatedCost        *float64   `json:"estimated_cost,omitempty"`
	MatchedPreferences   []string   `json:"matched_preferences,omitempty"`
	FoodType             FoodType   `json:"food_type,omitempty"`
	SpecificAmenity      string     `json:"specific_amenity,omitempty"`
	EstimatedArrival     *time.Time `json:"estimated_arrival,omitempty"`
	EstimatedDeparture   *time.Time `json:"estimated_departure,omitempty"`
	Description          string     `json:"description,omitempty"`
	Insight              string     `json:"insight,omitempty"`
	Lat                  *float64   `json:"lat,omitempty"`
	Lon                  *float64   `json:"lon,omitempty"`
	DistanceKm           *float64   `json:"distance_km,omitempty"`
	OverviewPolyline     []GeoPoint `json:"overview_polyline,omitempty"`
}

// ItineraryResponse is the full ordered plan plus totals.
type ItineraryResponse struct {
	TripID             string           `json:"trip_id,omitempty"`
	StartLat           float64          `json:"start_lat"`
	StartLon           float64          `json:"start_lon"`
	Itinerary          []ItineraryItem  `json:"itinerary"`
	TotalEstimatedCost float64          `json:"total_estimated_cost"`
	CustomHeading      string           `json:"custom_heading,omitempty"`
	Notes              string           `json:"notes,omitempty"`
	WeatherInfo        *WeatherForecast `json:"weather_info,omitempty"`
}

// SerendipityRequest asks for one spontaneous suggestion against a live plan.
type SerendipityRequest struct {
	CurrentItinerary       []ItineraryItem  `json:"current_itinerary"`
	OriginalRequestDetails ItineraryRequest `json:"original_request_details"`
	ExcludedSerendipityIDs []int64          `json:"excluded_serendipity_ids,omitempty"`
}

// SerendipityResponse is a proposal only; nothing is committed to the plan.
type SerendipityResponse struct {
	SuggestionID         string        `json:"suggestion_id"`
	SuggestedActivity    ItineraryItem `json:"suggested_activity"`
	ActionableText       string        `json:"actionable_text"`
	TimeExtensionMinutes float64       `json:"time_extension_minutes"`
}

// InsertionRequest splices a user-chosen activity into an existing plan.
type InsertionRequest struct {
	CurrentItinerary []ItineraryItem  `json:"current_itinerary"`
	NewActivity      ItineraryItem    `json:"new_activity"`
	OriginalRequest  ItineraryRequest `json:"original_request"`
	CurrentHeading   string           `json:"current_heading,omitempty"`
	CurrentWeather   *WeatherForecast `json:"current_weather,omitempty"`
	TripID           string           `json:"trip_id,omitempty"`
}

// Viability is the outcome of checking whether a candidate fits the
// remaining schedule, with timing adjusted where needed.
type Viability struct {
	IsViable            bool
	AdjustedArrival     time.Time
	AdjustedDeparture   time.Time
	AdjustedDurationHrs float64
	WaitTimeHrs         float64
	Reason              string
}
