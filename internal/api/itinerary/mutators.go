package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/triptailor/triptailor/internal/types"
)

var (
	// ErrNoInsertionPoint means no adjacent pair could host the new stop.
	ErrNoInsertionPoint = errors.New("no viable insertion point for the new activity")
	// ErrWindowExceeded means the rebuilt plan overruns the trip window past
	// the allowed grace period.
	ErrWindowExceeded = errors.New("adding this activity exceeds the trip time window")
)

// SerendipitySuggestion proposes one spontaneous nearby stop against a live
// plan. Any failure along the way yields no suggestion rather than an error.
func (s *ServiceImpl) SerendipitySuggestion(ctx context.Context, userID uuid.UUID, req *types.SerendipityRequest) (*types.SerendipityResponse, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "SerendipitySuggestion")
	defer span.End()

	original := &req.OriginalRequestDetails
	if original.StartLat == nil || original.StartLon == nil {
		return nil, nil
	}
	start := types.GeoPoint{Lat: *original.StartLat, Lon: *original.StartLon}

	windowFrom, windowTo, err := original.Window()
	if err != nil {
		return nil, nil
	}
	radiusKm := windowTo.Sub(windowFrom).Hours() / 2.5 * s.cfg.SearchRadiusSpeedKmph
	if radiusKm < s.cfg.MinSearchRadiusKm {
		radiusKm = s.cfg.MinSearchRadiusKm
	}

	userPrefs := collectPreferences(original)
	if len(userPrefs) == 0 {
		for _, p := range surpriseMePreferences {
			userPrefs[p] = true
		}
	}
	selectors := SelectorsForPreferences(userPrefs)
	if len(selectors) == 0 {
		return nil, nil
	}

	elements, err := s.location.SearchPOIs(ctx, start, radiusKm, selectors)
	if err != nil {
		s.logger.WarnContext(ctx, "Serendipity search failed", slog.Any("error", err))
		return nil, nil
	}

	skip := make(map[int64]bool)
	for _, item := range req.CurrentItinerary {
		if item.OSMID != nil {
			skip[*item.OSMID] = true
		}
	}
	for _, id := range req.ExcludedSerendipityIDs {
		skip[id] = true
	}
	eligible := elements[:0]
	for _, el := range elements {
		if el.ID != 0 && !skip[el.ID] {
			eligible = append(eligible, el)
		}
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	sampled := sampleElements(eligible, s.cfg.SerendipitySampleSize)
	candidates := s.enricher.EnrichAll(ctx, sampled, s.cfg.SerendipityConcurrency)
	if len(candidates) == 0 {
		s.logger.WarnContext(ctx, "Serendipity: no candidates survived enrichment")
		return nil, nil
	}

	best := candidates[0]
	bestScore := math.MinInt
	for _, c := range candidates {
		matched := MatchedPreferences(c.Tags, userPrefs)
		score := s.packer.scorer.Score(c, matched, scoreContext{
			fulfilledPrefs:  map[string]bool{},
			addedSignatures: map[string]bool{},
		})
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	s.logger.InfoContext(ctx, "Serendipity selected candidate",
		slog.String("name", best.Name),
		slog.Int64("osm_id", best.OSMID),
	)

	// Anchor the detour between the stop underway and the next one.
	now := time.Now().UTC()
	from, to := detourAnchors(req.CurrentItinerary, start, now)
	suggested := types.GeoPoint{Lat: best.Lat, Lon: best.Lon}
	mode := original.Mode()

	toSuggestion, err := s.location.GetRoute(ctx, from, suggested, mode)
	if err != nil {
		return nil, nil
	}
	fromSuggestion, err := s.location.GetRoute(ctx, suggested, to, mode)
	if err != nil {
		return nil, nil
	}
	originalLegHrs := 0.0
	if from != to {
		originalLeg, err := s.location.GetRoute(ctx, from, to, mode)
		if err != nil {
			return nil, nil
		}
		originalLegHrs = originalLeg.DurationHrs
	}

	extensionMinutes := (toSuggestion.DurationHrs + best.AvgVisitDurationHrs + fromSuggestion.DurationHrs - originalLegHrs) * 60

	item := types.ItineraryItem{
		LegType:              types.LegActivity,
		Activity:             best.Name,
		OSMID:                ptr(best.OSMID),
		EstimatedDurationHrs: best.AvgVisitDurationHrs,
		EstimatedCost:        best.EstimatedCost,
		Lat:                  ptr(best.Lat),
		Lon:                  ptr(best.Lon),
		Description:          best.Description,
		FoodType:             best.FoodType,
		SpecificAmenity:      best.SpecificAmenity(),
	}
	city := NormalizeCityName(original.Location)
	if insight, err := s.generator.ActivityInsight(ctx, best.Name, city, item.SpecificAmenity); err == nil {
		item.Insight = insight
	}

	actionableText, err := s.generator.SerendipityText(ctx, best.Name, extensionMinutes)
	if err != nil || actionableText == "" {
		actionableText = fmt.Sprintf("✨ How about a visit to %s?", best.Name)
	}

	return &types.SerendipityResponse{
		SuggestionID:         uuid.New().String(),
		SuggestedActivity:    item,
		ActionableText:       actionableText,
		TimeExtensionMinutes: extensionMinutes,
	}, nil
}

// detourAnchors picks the coordinates the detour must bridge: the most recent
// activity already reached and the next one coming up.
func detourAnchors(items []types.ItineraryItem, start types.GeoPoint, now time.Time) (types.GeoPoint, types.GeoPoint) {
	var current, next *types.ItineraryItem
	for i := range items {
		item := &items[i]
		if item.LegType != types.LegActivity || item.EstimatedArrival == nil || item.Lat == nil || item.Lon == nil {
			continue
		}
		if !item.EstimatedArrival.After(now) {
			if current == nil || item.EstimatedArrival.After(*current.EstimatedArrival) {
				current = item
			}
		} else {
			if next == nil || item.EstimatedArrival.Before(*next.EstimatedArrival) {
				next = item
			}
		}
	}

	from := start
	if current != nil {
		from = types.GeoPoint{Lat: *current.Lat, Lon: *current.Lon}
	}
	to := from
	if next != nil {
		to = types.GeoPoint{Lat: *next.Lat, Lon: *next.Lon}
	}
	return from, to
}

func sampleElements(elements []types.OSMElement, size int) []types.OSMElement {
	if len(elements) <= size {
		return elements
	}
	picked := rand.Perm(len(elements))[:size]
	sampled := make([]types.OSMElement, 0, size)
	for _, idx := range picked {
		sampled = append(sampled, elements[idx])
	}
	return sampled
}

// InsertActivity splices a chosen stop into an existing plan at the point of
// least extra travel, then rebuilds the full timeline from the trip start.
func (s *ServiceImpl) InsertActivity(ctx context.Context, userID uuid.UUID, req *types.InsertionRequest) (*types.ItineraryResponse, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "InsertActivity")
	defer span.End()
	s.logger.InfoContext(ctx, "Inserting activity into itinerary", slog.String("activity", req.NewActivity.Activity))

	original := &req.OriginalRequest
	if original.StartLat == nil || original.StartLon == nil {
		return nil, fmt.Errorf("original request is missing start coordinates")
	}
	if req.NewActivity.Lat == nil || req.NewActivity.Lon == nil {
		return nil, fmt.Errorf("new activity is missing coordinates")
	}
	windowFrom, windowTo, err := original.Window()
	if err != nil {
		return nil, err
	}
	start := types.GeoPoint{Lat: *original.StartLat, Lon: *original.StartLon}
	newPos := types.GeoPoint{Lat: *req.NewActivity.Lat, Lon: *req.NewActivity.Lon}
	mode := original.Mode()

	var activities []types.ItineraryItem
	for _, item := range req.CurrentItinerary {
		if item.LegType == types.LegActivity && item.Lat != nil && item.Lon != nil {
			activities = append(activities, item)
		}
	}

	path := make([]types.GeoPoint, 0, len(activities)+2)
	path = append(path, start)
	for _, act := range activities {
		path = append(path, types.GeoPoint{Lat: *act.Lat, Lon: *act.Lon})
	}
	path = append(path, start)

	bestIndex, minExtraHrs := -1, math.Inf(1)
	for i := 0; i < len(path)-1; i++ {
		originalLeg, err := s.location.GetRoute(ctx, path[i], path[i+1], mode)
		if err != nil {
			s.logger.WarnContext(ctx, "Could not calculate detour for insertion point", slog.Int("index", i), slog.Any("error", err))
			continue
		}
		leg1, err := s.location.GetRoute(ctx, path[i], newPos, mode)
		if err != nil {
			continue
		}
		leg2, err := s.location.GetRoute(ctx, newPos, path[i+1], mode)
		if err != nil {
			continue
		}
		extra := leg1.DurationHrs + leg2.DurationHrs - originalLeg.DurationHrs
		if extra < minExtraHrs {
			minExtraHrs = extra
			bestIndex = i
		}
	}
	if bestIndex == -1 {
		return nil, ErrNoInsertionPoint
	}
	s.logger.InfoContext(ctx, "Best insertion point found",
		slog.Int("index", bestIndex),
		slog.Float64("extra_travel_hrs", minExtraHrs),
	)

	sequence := make([]types.ItineraryItem, 0, len(activities)+1)
	sequence = append(sequence, activities[:bestIndex]...)
	sequence = append(sequence, req.NewActivity)
	sequence = append(sequence, activities[bestIndex:]...)

	items, totalCost, finalArrival, err := s.rebuildTimeline(ctx, sequence, start, windowFrom, mode)
	if err != nil {
		return nil, err
	}
	if finalArrival.After(windowTo.Add(hoursToDuration(s.cfg.InsertionGraceHrs))) {
		return nil, ErrWindowExceeded
	}

	heading := req.CurrentHeading
	if heading == "" {
		heading = "Your Updated Trip"
	}
	response := &types.ItineraryResponse{
		StartLat:           start.Lat,
		StartLon:           start.Lon,
		Itinerary:          items,
		TotalEstimatedCost: round2(totalCost),
		CustomHeading:      heading,
		WeatherInfo:        req.CurrentWeather,
		Notes:              "Your itinerary has been updated with the new activity.",
	}

	if tripID, parseErr := uuid.Parse(req.TripID); parseErr == nil {
		response.TripID = req.TripID
		if err = s.repo.UpdateTripResponse(ctx, tripID, userID, response); err != nil {
			s.logger.WarnContext(ctx, "Could not persist updated itinerary", slog.Any("error", err))
		}
	} else {
		s.logger.WarnContext(ctx, "No trip ID supplied, returning updated plan unpersisted")
	}
	return response, nil
}

// rebuildTimeline walks the activity sequence from the trip start, routing
// every leg and recomputing arrivals, departures and costs. The final return
// leg to the start is included.
func (s *ServiceImpl) rebuildTimeline(ctx context.Context, sequence []types.ItineraryItem, start types.GeoPoint, windowFrom time.Time, mode types.TravelMode) ([]types.ItineraryItem, float64, time.Time, error) {
	var items []types.ItineraryItem
	totalCost := 0.0
	currentTime := windowFrom
	currentPos := start

	for _, activity := range sequence {
		pos := types.GeoPoint{Lat: *activity.Lat, Lon: *activity.Lon}
		route, err := s.location.GetRoute(ctx, currentPos, pos, mode)
		if err != nil {
			return nil, 0, time.Time{}, fmt.Errorf("routing to %q: %w", activity.Activity, err)
		}
		travelCost := s.packer.travelCost(mode, route.DistanceKm)
		arrival := currentTime.Add(hoursToDuration(route.DurationHrs))
		items = append(items, types.ItineraryItem{
			LegType:              types.LegTravel,
			Activity:             "Travel to " + activity.Activity,
			EstimatedDurationHrs: round2(route.DurationHrs),
			EstimatedCost:        ptr(round2(travelCost)),
			DistanceKm:           ptr(round1(route.DistanceKm)),
			EstimatedArrival:     ptr(arrival),
			EstimatedDeparture:   ptr(currentTime),
			OverviewPolyline:     route.Polyline,
		})
		totalCost += travelCost
		currentTime = arrival

		durationHrs := activity.EstimatedDurationHrs
		if durationHrs <= 0 {
			durationHrs = s.cfg.Costs.DefaultActivityHrs
		}
		departure := currentTime.Add(hoursToDuration(durationHrs))
		activity.EstimatedDurationHrs = durationHrs
		activity.EstimatedArrival = ptr(currentTime)
		activity.EstimatedDeparture = ptr(departure)
		items = append(items, activity)

		if activity.EstimatedCost != nil {
			totalCost += *activity.EstimatedCost
		}
		currentTime = departure
		currentPos = pos
	}

	returnRoute, err := s.location.GetRoute(ctx, currentPos, start, mode)
	if err != nil {
		return nil, 0, time.Time{}, fmt.Errorf("routing back to start: %w", err)
	}
	returnCost := s.packer.travelCost(mode, returnRoute.DistanceKm)
	finalArrival := currentTime.Add(hoursToDuration(returnRoute.DurationHrs))
	items = append(items, types.ItineraryItem{
		LegType:              types.LegTravel,
		Activity:             "Travel back to start location",
		EstimatedDurationHrs: round2(returnRoute.DurationHrs),
		EstimatedCost:        ptr(round2(returnCost)),
		DistanceKm:           ptr(round1(returnRoute.DistanceKm)),
		EstimatedArrival:     ptr(finalArrival),
		EstimatedDeparture:   ptr(currentTime),
		OverviewPolyline:     returnRoute.Polyline,
	})
	totalCost += returnCost

	return items, totalCost, finalArrival, nil
}
