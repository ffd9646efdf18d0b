package itinerary

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triptailor/triptailor/internal/types"
)

func buildRequest() *types.ItineraryRequest {
	return &types.ItineraryRequest{
		Location:            "Lisbon, Portugal",
		Budget:              5000,
		SelectedPreferences: []string{"history", "foodie"},
		StartDatetime:       "2026-06-01T09:00:00Z",
		EndDatetime:         "2026-06-01T15:00:00Z",
		TravelMode:          types.ModeDriving,
	}
}

func lisbonSearchResults() []types.OSMElement {
	noName := 38.72
	return []types.OSMElement{
		nodeElement(101, "Castelo de São Jorge", 38.7139, -9.1335, map[string]string{
			"historic":  "castle",
			"wikipedia": "pt:Castelo de São Jorge",
		}),
		{
			ID:     103,
			Type:   "way",
			Center: &types.GeoPoint{Lat: 38.6979, Lon: -9.2068},
			Tags:   map[string]string{"name": "Mosteiro dos Jerónimos", "historic": "monastery", "wikidata": "Q191956"},
		},
		nodeElement(102, "Taberna do Mar", 38.7106, -9.1330, map[string]string{"amenity": "restaurant"}),
		nodeElement(104, "Millennium BCP", 38.711, -9.139, map[string]string{"amenity": "bank"}),
		{ID: 105, Type: "node", Lat: &noName, Lon: ptr(-9.14), Tags: map[string]string{"historic": "ruins"}},
	}
}

func lisbonLocation() *fakeLocation {
	return &fakeLocation{
		geocodePoint: types.GeoPoint{Lat: 38.7223, Lon: -9.1393},
		geocodeName:  "Lisboa, Grande Lisboa, Portugal",
		elements:     lisbonSearchResults(),
		wiki: map[string]string{
			"Castelo de São Jorge": "A Moorish castle overlooking the historic centre of Lisbon.",
		},
	}
}

func lisbonWeather() *fakeWeather {
	return &fakeWeather{forecast: &types.WeatherForecast{
		TemperatureCelsius: 24,
		Condition:          types.WeatherCondition{Description: "Clear sky", IconChar: "☀️"},
	}}
}

func TestBuildItinerary(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("full build from location text", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(lisbonLocation(), lisbonWeather(), repo)

		resp, err := svc.BuildItinerary(ctx, userID, buildRequest())
		require.NoError(t, err)
		require.NotNil(t, resp)

		_, err = uuid.Parse(resp.TripID)
		assert.NoError(t, err, "trip ID should be a UUID")
		assert.Equal(t, 38.7223, resp.StartLat)
		assert.Equal(t, -9.1393, resp.StartLon)

		var activities []types.ItineraryItem
		for i, item := range resp.Itinerary {
			if item.LegType == types.LegActivity {
				activities = append(activities, item)
				assert.Equal(t, types.LegTravel, resp.Itinerary[i-1].LegType)
				assert.NotEmpty(t, item.Insight)
			}
		}
		require.Len(t, activities, 3, "bank and unnamed elements must not survive enrichment")
		assert.LessOrEqual(t, resp.TotalEstimatedCost, 5000.0)
		assert.Greater(t, resp.TotalEstimatedCost, 0.0)

		last := resp.Itinerary[len(resp.Itinerary)-1]
		assert.Equal(t, types.LegTravel, last.LegType)
		assert.Equal(t, "Travel back to start location", last.Activity)

		require.NotNil(t, resp.WeatherInfo)
		assert.NotEmpty(t, resp.WeatherInfo.WeatherSentence)
		assert.Contains(t, resp.CustomHeading, "lisbon")

		assert.Equal(t, 1, repo.tripCount())
		trip, err := repo.GetTrip(ctx, uuid.MustParse(resp.TripID), userID)
		require.NoError(t, err)
		assert.Equal(t, "generated", trip.Status)
		assert.Equal(t, "Lisbon, Portugal", trip.LocationDisplayName)
	})

	t.Run("matched preferences are recorded on activities", func(t *testing.T) {
		svc := newTestService(lisbonLocation(), lisbonWeather(), newFakeRepo())

		resp, err := svc.BuildItinerary(ctx, userID, buildRequest())
		require.NoError(t, err)

		for _, item := range resp.Itinerary {
			switch item.Activity {
			case "Castelo de São Jorge", "Mosteiro dos Jerónimos":
				assert.Equal(t, []string{"history"}, item.MatchedPreferences)
			case "Taberna do Mar":
				assert.Equal(t, []string{"foodie"}, item.MatchedPreferences)
				assert.Equal(t, types.FoodMeal, item.FoodType)
			}
		}
	})

	t.Run("explicit start coordinates skip geocoding", func(t *testing.T) {
		loc := lisbonLocation()
		loc.geocodeErr = assert.AnError
		loc.reverseName = "Alfama, Lisboa, Portugal"
		svc := newTestService(loc, lisbonWeather(), newFakeRepo())

		req := buildRequest()
		req.Location = ""
		req.StartLat = ptr(38.7223)
		req.StartLon = ptr(-9.1393)

		resp, err := svc.BuildItinerary(ctx, userID, req)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Itinerary)
	})

	t.Run("excluded OSM IDs never appear", func(t *testing.T) {
		svc := newTestService(lisbonLocation(), lisbonWeather(), newFakeRepo())
		req := buildRequest()
		req.ExcludeOSMIDs = []int64{101}

		resp, err := svc.BuildItinerary(ctx, userID, req)
		require.NoError(t, err)
		for _, item := range resp.Itinerary {
			assert.NotEqual(t, "Castelo de São Jorge", item.Activity)
		}
	})

	t.Run("no search results still returns a persisted plan", func(t *testing.T) {
		loc := lisbonLocation()
		loc.elements = nil
		repo := newFakeRepo()
		svc := newTestService(loc, lisbonWeather(), repo)

		resp, err := svc.BuildItinerary(ctx, userID, buildRequest())
		require.NoError(t, err)
		assert.Empty(t, resp.Itinerary)
		assert.Equal(t, 0.0, resp.TotalEstimatedCost)
		assert.Equal(t, 1, repo.tripCount())
	})

	t.Run("invalid request is rejected before any provider call", func(t *testing.T) {
		loc := lisbonLocation()
		svc := newTestService(loc, lisbonWeather(), newFakeRepo())
		req := buildRequest()
		req.Budget = -1

		_, err := svc.BuildItinerary(ctx, userID, req)
		assert.Error(t, err)
		assert.Zero(t, loc.totalRouteCalls())
	})

	t.Run("geocoding failure surfaces as an error", func(t *testing.T) {
		loc := lisbonLocation()
		loc.geocodeErr = assert.AnError
		svc := newTestService(loc, lisbonWeather(), newFakeRepo())

		_, err := svc.BuildItinerary(ctx, userID, buildRequest())
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("persistence failure surfaces as an error", func(t *testing.T) {
		repo := newFakeRepo()
		repo.createErr = assert.AnError
		svc := newTestService(lisbonLocation(), lisbonWeather(), repo)

		_, err := svc.BuildItinerary(ctx, userID, buildRequest())
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("generator failure falls back to a deterministic title", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestServiceWithGenerator(&failingGenerator{err: assert.AnError}, lisbonLocation(), lisbonWeather(), repo)

		resp, err := svc.BuildItinerary(ctx, userID, buildRequest())
		require.NoError(t, err)
		assert.Equal(t, "Your Adventure in Lisbon", resp.CustomHeading)

		trip, err := repo.GetTrip(ctx, uuid.MustParse(resp.TripID), userID)
		require.NoError(t, err)
		assert.Equal(t, "Your Adventure in Lisbon", trip.Title)
	})

	t.Run("surprise me fills in preferences", func(t *testing.T) {
		svc := newTestService(lisbonLocation(), lisbonWeather(), newFakeRepo())
		req := buildRequest()
		req.SelectedPreferences = nil
		req.SurpriseMe = true

		resp, err := svc.BuildItinerary(ctx, userID, req)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Itinerary)
	})
}

func TestCollectPreferences(t *testing.T) {
	t.Run("normalizes case and whitespace", func(t *testing.T) {
		prefs := collectPreferences(&types.ItineraryRequest{
			SelectedPreferences: []string{" History ", "FOODIE", ""},
		})
		assert.Equal(t, map[string]bool{"history": true, "foodie": true}, prefs)
	})

	t.Run("surprise me only applies without explicit preferences", func(t *testing.T) {
		prefs := collectPreferences(&types.ItineraryRequest{
			SelectedPreferences: []string{"park"},
			SurpriseMe:          true,
		})
		assert.Equal(t, map[string]bool{"park": true}, prefs)

		surprise := collectPreferences(&types.ItineraryRequest{SurpriseMe: true})
		assert.Len(t, surprise, len(surpriseMePreferences))
	})
}

func TestExcludeByID(t *testing.T) {
	candidates := []*types.Candidate{
		{OSMID: 1, Name: "a"},
		{OSMID: 2, Name: "b"},
		{OSMID: 3, Name: "c"},
	}

	kept := excludeByID(candidates, []int64{2})
	require.Len(t, kept, 2)
	assert.Equal(t, int64(1), kept[0].OSMID)
	assert.Equal(t, int64(3), kept[1].OSMID)

	assert.Len(t, excludeByID(candidates, nil), 3)
}
