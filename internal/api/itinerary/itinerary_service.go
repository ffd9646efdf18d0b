package itinerary

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/triptailor/triptailor/app/observability/metrics"
	"github.com/triptailor/triptailor/config"
	"github.com/triptailor/triptailor/internal/api/generative_ai"
	"github.com/triptailor/triptailor/internal/api/location"
	"github.com/triptailor/triptailor/internal/api/weather"
	"github.com/triptailor/triptailor/internal/types"
)

// Service builds, mutates and augments itineraries.
type Service interface {
	BuildItinerary(ctx context.Context, userID uuid.UUID, req *types.ItineraryRequest) (*types.ItineraryResponse, error)
	SerendipitySuggestion(ctx context.Context, userID uuid.UUID, req *types.SerendipityRequest) (*types.SerendipityResponse, error)
	InsertActivity(ctx context.Context, userID uuid.UUID, req *types.InsertionRequest) (*types.ItineraryResponse, error)
}

type ServiceImpl struct {
	logger    *slog.Logger
	cfg       config.PlannerConfig
	location  location.Service
	weather   weather.Service
	generator generativeAI.Generator
	repo      Repository
	metrics   *metrics.AppMetrics
	enricher  *enricher
	packer    *packer
}

var _ Service = (*ServiceImpl)(nil)

func NewServiceImpl(
	cfg config.PlannerConfig,
	locationSvc location.Service,
	weatherSvc weather.Service,
	generator generativeAI.Generator,
	repo Repository,
	appMetrics *metrics.AppMetrics,
	logger *slog.Logger,
) *ServiceImpl {
	sc := &scorer{weights: cfg.Scoring}
	return &ServiceImpl{
		logger:    logger,
		cfg:       cfg,
		location:  locationSvc,
		weather:   weatherSvc,
		generator: generator,
		repo:      repo,
		metrics:   appMetrics,
		enricher:  &enricher{location: locationSvc, costs: cfg.Costs, logger: logger},
		packer: &packer{
			location: locationSvc,
			cfg:      cfg,
			scorer:   sc,
			checker:  TimeBudgetChecker{},
			logger:   logger,
		},
	}
}

func (s *ServiceImpl) BuildItinerary(ctx context.Context, userID uuid.UUID, req *types.ItineraryRequest) (*types.ItineraryResponse, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "BuildItinerary")
	defer span.End()
	buildStart := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	windowFrom, windowTo, err := req.Window()
	if err != nil {
		return nil, err
	}

	start, displayName, err := s.resolveStart(ctx, req)
	if err != nil {
		return nil, err
	}
	city := NormalizeCityName(displayName)
	span.SetAttributes(attribute.String("itinerary.city", city))

	userPrefs := collectPreferences(req)
	keywords := s.collectKeywords(ctx, req, city, userPrefs)
	s.logger.InfoContext(ctx, "Search keywords resolved",
		slog.Any("keywords", keywords),
		slog.Any("preferences", prefList(userPrefs)),
	)

	windowHrs := windowTo.Sub(windowFrom).Hours()
	radiusKm := windowHrs / 2.0 * s.cfg.SearchRadiusSpeedKmph
	if radiusKm < s.cfg.MinSearchRadiusKm {
		radiusKm = s.cfg.MinSearchRadiusKm
	}

	var elements []types.OSMElement
	selectors := SelectorsForPreferences(userPrefs)
	if len(selectors) > 0 {
		elements, err = s.location.SearchPOIs(ctx, start, radiusKm, selectors)
		if err != nil {
			span.SetStatus(codes.Error, "candidate search failed")
			return nil, fmt.Errorf("searching for candidates: %w", err)
		}
	} else {
		s.logger.WarnContext(ctx, "No preferences resolved for search")
	}
	s.logger.InfoContext(ctx, "Broad search complete", slog.Int("element_count", len(elements)))

	candidates := s.enricher.EnrichAll(ctx, elements, s.cfg.EnrichmentConcurrency)
	candidates = Deduplicate(candidates)
	candidates = excludeByID(candidates, req.ExcludeOSMIDs)
	s.logger.InfoContext(ctx, "Enrichment complete", slog.Int("candidate_count", len(candidates)))

	items, totalCost := s.packer.Pack(ctx, packInput{
		start:      start,
		windowFrom: windowFrom,
		windowTo:   windowTo,
		budget:     req.Budget,
		mode:       req.Mode(),
		userPrefs:  userPrefs,
		keywords:   keywords,
		candidates: candidates,
	})

	s.attachInsights(ctx, items, city)
	items = s.validateActivities(ctx, items, city)

	response := &types.ItineraryResponse{
		TripID:             uuid.New().String(),
		StartLat:           start.Lat,
		StartLon:           start.Lon,
		Itinerary:          items,
		TotalEstimatedCost: totalCost,
		Notes:              "Itinerary generated successfully!",
	}
	s.attachWeatherAndTitle(ctx, response, city, prefList(userPrefs), start, windowFrom)

	trip := &types.Trip{
		TripID:              uuid.MustParse(response.TripID),
		UserID:              userID,
		OriginalRequest:     *req,
		GeneratedResponse:   *response,
		Title:               response.CustomHeading,
		LocationDisplayName: displayName,
		StartDatetimeUTC:    windowFrom,
		EndDatetimeUTC:      windowTo,
		Status:              "generated",
	}
	if err = s.repo.CreateTrip(ctx, trip); err != nil {
		span.SetStatus(codes.Error, "trip persistence failed")
		return nil, fmt.Errorf("persisting trip: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ItineraryBuildsTotal.Add(ctx, 1)
		s.metrics.ItineraryBuildSeconds.Record(ctx, time.Since(buildStart).Seconds())
		s.metrics.ItineraryActivitiesPacked.Record(ctx, int64(countActivities(items)))
	}
	s.logger.InfoContext(ctx, "Itinerary build complete",
		slog.Duration("elapsed", time.Since(buildStart)),
		slog.Int("activity_count", countActivities(items)),
		slog.Float64("total_cost", totalCost),
	)
	return response, nil
}

// resolveStart determines coordinates and a human-readable location name.
func (s *ServiceImpl) resolveStart(ctx context.Context, req *types.ItineraryRequest) (types.GeoPoint, string, error) {
	if req.StartLat != nil && req.StartLon != nil {
		start := types.GeoPoint{Lat: *req.StartLat, Lon: *req.StartLon}
		displayName := req.Location
		if displayName == "" || strings.HasPrefix(displayName, "[Lat:") {
			name, err := s.location.ReverseGeocode(ctx, start)
			if err != nil {
				s.logger.WarnContext(ctx, "Reverse geocoding failed, using default name", slog.Any("error", err))
				name = "your current location"
			}
			displayName = name
		}
		return start, displayName, nil
	}

	start, displayName, err := s.location.Geocode(ctx, req.Location)
	if err != nil {
		return types.GeoPoint{}, "", fmt.Errorf("resolving start location: %w", err)
	}
	if req.Location != "" {
		displayName = req.Location
	}
	return start, displayName, nil
}

func collectPreferences(req *types.ItineraryRequest) map[string]bool {
	prefs := make(map[string]bool)
	for _, p := range req.SelectedPreferences {
		prefs[strings.ToLower(strings.TrimSpace(p))] = true
	}
	delete(prefs, "")
	if req.SurpriseMe && len(prefs) == 0 {
		for _, p := range surpriseMePreferences {
			prefs[p] = true
		}
	}
	return prefs
}

// collectKeywords merges keywords from the trip description analysis and the
// city's local specialities. Both sources are best-effort.
func (s *ServiceImpl) collectKeywords(ctx context.Context, req *types.ItineraryRequest, city string, userPrefs map[string]bool) []string {
	seen := make(map[string]bool)
	var keywords []string
	add := func(kws []string) {
		for _, kw := range kws {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && !seen[kw] {
				seen[kw] = true
				keywords = append(keywords, kw)
			}
		}
	}

	if req.CustomTripDescription != "" {
		kws, prefs, err := s.generator.AnalyzeTripDescription(ctx, req.CustomTripDescription, KnownPreferences())
		if err != nil {
			s.logger.WarnContext(ctx, "Trip description analysis failed", slog.Any("error", err))
		} else {
			add(kws)
			for _, p := range prefs {
				userPrefs[p] = true
			}
		}
	}

	if len(userPrefs) > 0 && city != "" {
		kws, err := s.generator.DynamicLocalKeywords(ctx, city)
		if err != nil {
			s.logger.WarnContext(ctx, "Local keyword lookup failed", slog.Any("error", err))
		} else {
			add(kws)
		}
	}
	return keywords
}

// attachInsights fills the Insight field on activity legs concurrently.
func (s *ServiceImpl) attachInsights(ctx context.Context, items []types.ItineraryItem, city string) {
	g, gctx := errgroup.WithContext(ctx)
	for i := range items {
		if items[i].LegType != types.LegActivity {
			continue
		}
		g.Go(func() error {
			insight, err := s.generator.ActivityInsight(gctx, items[i].Activity, city, items[i].SpecificAmenity)
			if err == nil {
				items[i].Insight = insight
			}
			return nil
		})
	}
	_ = g.Wait()
}

// validateActivities asks the model to flag implausible stops. Plans with two
// or fewer activities are returned untouched so the caller always gets
// something back.
func (s *ServiceImpl) validateActivities(ctx context.Context, items []types.ItineraryItem, city string) []types.ItineraryItem {
	activityNames := make([]string, 0, len(items))
	for _, item := range items {
		if item.LegType == types.LegActivity {
			activityNames = append(activityNames, item.Activity)
		}
	}
	if len(activityNames) <= 2 {
		return items
	}

	flagged, err := s.generator.ValidateItinerary(ctx, city, activityNames)
	if err != nil {
		s.logger.WarnContext(ctx, "Itinerary validation failed", slog.Any("error", err))
		return items
	}
	if len(flagged) == 0 {
		return items
	}

	rejected := make(map[string]bool, len(flagged))
	for _, name := range flagged {
		rejected[name] = true
	}
	remove := make(map[int]bool)
	for i, item := range items {
		if item.LegType == types.LegActivity && rejected[item.Activity] {
			remove[i] = true
			if i > 0 && items[i-1].LegType == types.LegTravel {
				remove[i-1] = true
			}
		}
	}
	if len(remove) == 0 {
		return items
	}

	kept := make([]types.ItineraryItem, 0, len(items))
	for i, item := range items {
		if !remove[i] {
			kept = append(kept, item)
		}
	}
	s.logger.InfoContext(ctx, "Removed implausible activities after validation", slog.Int("removed", len(flagged)))
	return kept
}

// attachWeatherAndTitle fetches the forecast and the creative heading
// concurrently. Both are soft failures.
func (s *ServiceImpl) attachWeatherAndTitle(ctx context.Context, response *types.ItineraryResponse, city string, prefs []string, start types.GeoPoint, at time.Time) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		forecast, err := s.weather.ForecastAt(gctx, start, at)
		if err != nil {
			s.logger.WarnContext(gctx, "Weather lookup failed", slog.Any("error", err))
			return nil
		}
		if sentence, err := s.generator.WeatherSentence(gctx, city, forecast); err == nil {
			forecast.WeatherSentence = sentence
		}
		response.WeatherInfo = forecast
		return nil
	})
	g.Go(func() error {
		title, err := s.generator.CreativeTripTitle(gctx, city, prefs)
		if err != nil {
			s.logger.WarnContext(gctx, "Trip title generation failed", slog.Any("error", err))
			title = ""
		}
		if title == "" {
			title = fallbackTitle(city)
		}
		response.CustomHeading = title
		return nil
	})
	_ = g.Wait()
}

// fallbackTitle is the deterministic heading used when title generation is
// unavailable or fails.
func fallbackTitle(city string) string {
	if city == "" {
		return "Your Adventure"
	}
	words := strings.Fields(city)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return "Your Adventure in " + strings.Join(words, " ")
}

func excludeByID(candidates []*types.Candidate, excluded []int64) []*types.Candidate {
	if len(excluded) == 0 {
		return candidates
	}
	skip := make(map[int64]bool, len(excluded))
	for _, id := range excluded {
		skip[id] = true
	}
	kept := candidates[:0]
	for _, c := range candidates {
		if !skip[c.OSMID] {
			kept = append(kept, c)
		}
	}
	return kept
}

func countActivities(items []types.ItineraryItem) int {
	count := 0
	for _, item := range items {
		if item.LegType == types.LegActivity {
			count++
		}
	}
	return count
}

func prefList(prefs map[string]bool) []string {
	list := make([]string, 0, len(prefs))
	for p := range prefs {
		list = append(list, p)
	}
	sort.Strings(list)
	return list
}
