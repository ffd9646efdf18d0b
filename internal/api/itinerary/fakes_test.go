package itinerary

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	generativeAI "github.com/triptailor/triptailor/internal/api/generative_ai"
	"github.com/triptailor/triptailor/internal/api/location"
	"github.com/triptailor/triptailor/internal/api/weather"
	"github.com/triptailor/triptailor/internal/types"
)

// fakeLocation implements location.Service with canned data. Routes default
// to straight-line distance at a fixed speed unless routeFn overrides them.
type fakeLocation struct {
	mu sync.Mutex

	geocodePoint types.GeoPoint
	geocodeName  string
	geocodeErr   error
	reverseName  string
	elements     []types.OSMElement
	searchErr    error
	wiki         map[string]string
	wikiCalls    []string
	routeFn      func(from, to types.GeoPoint) (*types.RouteInfo, error)
	routeCalls   int
}

var _ location.Service = (*fakeLocation)(nil)

func (f *fakeLocation) Geocode(_ context.Context, _ string) (types.GeoPoint, string, error) {
	if f.geocodeErr != nil {
		return types.GeoPoint{}, "", f.geocodeErr
	}
	return f.geocodePoint, f.geocodeName, nil
}

func (f *fakeLocation) ReverseGeocode(_ context.Context, _ types.GeoPoint) (string, error) {
	if f.reverseName == "" {
		return "", location.ErrNotFound
	}
	return f.reverseName, nil
}

func (f *fakeLocation) SearchPOIs(_ context.Context, _ types.GeoPoint, _ float64, _ []string) ([]types.OSMElement, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.elements, nil
}

func (f *fakeLocation) WikipediaSummary(_ context.Context, title string) (string, error) {
	f.mu.Lock()
	f.wikiCalls = append(f.wikiCalls, title)
	f.mu.Unlock()
	return f.wiki[title], nil
}

func (f *fakeLocation) wikiTitles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.wikiCalls...)
}

func (f *fakeLocation) GetRoute(_ context.Context, from, to types.GeoPoint, _ types.TravelMode) (*types.RouteInfo, error) {
	f.mu.Lock()
	f.routeCalls++
	f.mu.Unlock()
	if f.routeFn != nil {
		return f.routeFn(from, to)
	}
	distance := HaversineKm(from, to)
	return &types.RouteInfo{
		DistanceKm:  distance,
		DurationHrs: distance / 40.0,
	}, nil
}

func (f *fakeLocation) totalRouteCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.routeCalls
}

type fakeWeather struct {
	forecast *types.WeatherForecast
	err      error
}

var _ weather.Service = (*fakeWeather)(nil)

func (f *fakeWeather) ForecastAt(_ context.Context, _ types.GeoPoint, _ time.Time) (*types.WeatherForecast, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.forecast, nil
}

// fakeRepo keeps trips in memory keyed by trip ID.
type fakeRepo struct {
	mu        sync.Mutex
	trips     map[uuid.UUID]*types.Trip
	createErr error
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{trips: make(map[uuid.UUID]*types.Trip)}
}

func (f *fakeRepo) CreateTrip(_ context.Context, trip *types.Trip) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *trip
	f.trips[trip.TripID] = &stored
	return nil
}

func (f *fakeRepo) UpdateTripResponse(_ context.Context, tripID, userID uuid.UUID, response *types.ItineraryResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	trip, ok := f.trips[tripID]
	if !ok || trip.UserID != userID {
		return ErrTripNotFound
	}
	trip.GeneratedResponse = *response
	return nil
}

func (f *fakeRepo) GetTrip(_ context.Context, tripID, userID uuid.UUID) (*types.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	trip, ok := f.trips[tripID]
	if !ok || trip.UserID != userID {
		return nil, ErrTripNotFound
	}
	copied := *trip
	return &copied, nil
}

func (f *fakeRepo) ListTrips(_ context.Context, userID uuid.UUID, page, pageSize int) (*types.TripListResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var trips []types.Trip
	for _, trip := range f.trips {
		if trip.UserID == userID {
			trips = append(trips, *trip)
		}
	}
	return &types.TripListResponse{Trips: trips, TotalTrips: len(trips), Page: page, PageSize: pageSize}, nil
}

func (f *fakeRepo) MarkTripCompleted(_ context.Context, tripID, userID uuid.UUID) (*types.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	trip, ok := f.trips[tripID]
	if !ok || trip.UserID != userID {
		return nil, ErrTripNotFound
	}
	now := time.Now().UTC()
	trip.Status = "completed"
	trip.MarkedCompletedAt = &now
	copied := *trip
	return &copied, nil
}

func (f *fakeRepo) SaveMemorySnapshot(_ context.Context, tripID, userID uuid.UUID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	trip, ok := f.trips[tripID]
	if !ok || trip.UserID != userID {
		return ErrTripNotFound
	}
	trip.MemorySnapshotText = text
	return nil
}

func (f *fakeRepo) tripCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.trips)
}

func nodeElement(id int64, name string, lat, lon float64, tags map[string]string) types.OSMElement {
	full := map[string]string{"name": name}
	for k, v := range tags {
		full[k] = v
	}
	return types.OSMElement{
		ID:   id,
		Type: "node",
		Lat:  &lat,
		Lon:  &lon,
		Tags: full,
	}
}

func routeError(_, _ types.GeoPoint) (*types.RouteInfo, error) {
	return nil, fmt.Errorf("%w: routing offline", location.ErrServiceUnavailable)
}

// failingGenerator errors on every call, standing in for a configured model
// that is unreachable.
type failingGenerator struct {
	err error
}

var _ generativeAI.Generator = (*failingGenerator)(nil)

func (f *failingGenerator) AnalyzeTripDescription(_ context.Context, _ string, _ []string) ([]string, []string, error) {
	return nil, nil, f.err
}

func (f *failingGenerator) DynamicLocalKeywords(_ context.Context, _ string) ([]string, error) {
	return nil, f.err
}

func (f *failingGenerator) CreativeTripTitle(_ context.Context, _ string, _ []string) (string, error) {
	return "", f.err
}

func (f *failingGenerator) ActivityInsight(_ context.Context, _, _, _ string) (string, error) {
	return "", f.err
}

func (f *failingGenerator) SerendipityText(_ context.Context, _ string, _ float64) (string, error) {
	return "", f.err
}

func (f *failingGenerator) ValidateItinerary(_ context.Context, _ string, _ []string) ([]string, error) {
	return nil, f.err
}

func (f *failingGenerator) WeatherSentence(_ context.Context, _ string, _ *types.WeatherForecast) (string, error) {
	return "", f.err
}

func (f *failingGenerator) MemorySnapshot(_ context.Context, _ string, _ []string) (string, error) {
	return "", f.err
}
