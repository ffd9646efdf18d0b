package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/twpayne/go-polyline"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/triptailor/triptailor/config"
	"github.com/triptailor/triptailor/internal/types"
)

const userAgent = "TripTailor/1.0 (itinerary planner)"

var (
	// ErrNotFound means the provider answered but had no result for the input.
	ErrNotFound = errors.New("location: not found")
	// ErrServiceUnavailable means the provider could not be reached or failed.
	ErrServiceUnavailable = errors.New("location: upstream service unavailable")
)

// Service exposes the external geo providers behind one interface so the
// planner never talks HTTP directly.
type Service interface {
	// Geocode resolves free text to a coordinate and a display name.
	Geocode(ctx context.Context, query string) (types.GeoPoint, string, error)
	// ReverseGeocode resolves a coordinate to a human-readable display name.
	ReverseGeocode(ctx context.Context, pt types.GeoPoint) (string, error)
	// SearchPOIs runs an around-radius tag search and returns raw elements.
	SearchPOIs(ctx context.Context, center types.GeoPoint, radiusKm float64, selectors []string) ([]types.OSMElement, error)
	// WikipediaSummary returns the page extract for a title, or "" when the
	// page is missing or ambiguous. Absence is not an error.
	WikipediaSummary(ctx context.Context, title string) (string, error)
	// GetRoute returns distance, duration and geometry for one leg.
	GetRoute(ctx context.Context, from, to types.GeoPoint, mode types.TravelMode) (*types.RouteInfo, error)
}

// ServiceImpl provides location data backed by Nominatim, Overpass,
// Wikipedia and an OSRM-compatible routing endpoint.
type ServiceImpl struct {
	logger       *slog.Logger
	providers    config.Providers
	geocodeHTTP  *http.Client
	overpassHTTP *http.Client
	wikiHTTP     *http.Client
	routingHTTP  *http.Client
	geocodeCache *cache.Cache
	wikiCache    *cache.Cache
	routeLimiter *rate.Limiter
}

var _ Service = (*ServiceImpl)(nil)

func NewServiceImpl(providers config.Providers, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:       logger,
		providers:    providers,
		geocodeHTTP:  &http.Client{Timeout: providers.Nominatim.Timeout},
		overpassHTTP: &http.Client{Timeout: providers.Overpass.Timeout},
		wikiHTTP:     &http.Client{Timeout: providers.Wikipedia.Timeout},
		routingHTTP:  &http.Client{Timeout: providers.Routing.Timeout},
		geocodeCache: cache.New(24*time.Hour, time.Hour),
		wikiCache:    cache.New(24*time.Hour, time.Hour),
		// The public routing endpoint asks clients to stay around one
		// request per 100ms.
		routeLimiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type geocodeEntry struct {
	Point       types.GeoPoint
	DisplayName string
}

func (s *ServiceImpl) Geocode(ctx context.Context, query string) (types.GeoPoint, string, error) {
	ctx, span := otel.Tracer("LocationService").Start(ctx, "Geocode")
	defer span.End()
	span.SetAttributes(attribute.String("geocode.query", query))

	cacheKey := "geocode:" + strings.ToLower(strings.TrimSpace(query))
	if cached, found := s.geocodeCache.Get(cacheKey); found {
		entry := cached.(geocodeEntry)
		return entry.Point, entry.DisplayName, nil
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", s.providers.Nominatim.URL, url.QueryEscape(query))
	var results []nominatimResult
	if err := s.getJSON(ctx, s.geocodeHTTP, endpoint, &results); err != nil {
		span.SetStatus(codes.Error, "geocoding request failed")
		s.logger.ErrorContext(ctx, "Geocoding request failed", slog.Any("error", err), slog.String("query", query))
		return types.GeoPoint{}, "", fmt.Errorf("%w: geocoding %q: %v", ErrServiceUnavailable, query, err)
	}
	if len(results) == 0 {
		return types.GeoPoint{}, "", fmt.Errorf("%w: no geocoding result for %q", ErrNotFound, query)
	}

	var pt types.GeoPoint
	if _, err := fmt.Sscanf(results[0].Lat, "%f", &pt.Lat); err != nil {
		return types.GeoPoint{}, "", fmt.Errorf("invalid latitude in geocoding result: %w", err)
	}
	if _, err := fmt.Sscanf(results[0].Lon, "%f", &pt.Lon); err != nil {
		return types.GeoPoint{}, "", fmt.Errorf("invalid longitude in geocoding result: %w", err)
	}

	s.geocodeCache.Set(cacheKey, geocodeEntry{Point: pt, DisplayName: results[0].DisplayName}, cache.DefaultExpiration)
	return pt, results[0].DisplayName, nil
}

func (s *ServiceImpl) ReverseGeocode(ctx context.Context, pt types.GeoPoint) (string, error) {
	ctx, span := otel.Tracer("LocationService").Start(ctx, "ReverseGeocode")
	defer span.End()

	cacheKey := fmt.Sprintf("reverse:%.4f,%.4f", pt.Lat, pt.Lon)
	if cached, found := s.geocodeCache.Get(cacheKey); found {
		return cached.(string), nil
	}

	endpoint := fmt.Sprintf("%s/reverse?lat=%f&lon=%f&format=json&zoom=14", s.providers.Nominatim.URL, pt.Lat, pt.Lon)
	var result nominatimResult
	if err := s.getJSON(ctx, s.geocodeHTTP, endpoint, &result); err != nil {
		span.SetStatus(codes.Error, "reverse geocoding request failed")
		return "", fmt.Errorf("%w: reverse geocoding: %v", ErrServiceUnavailable, err)
	}
	if result.DisplayName == "" {
		return "", fmt.Errorf("%w: no display name at %.4f,%.4f", ErrNotFound, pt.Lat, pt.Lon)
	}

	s.geocodeCache.Set(cacheKey, result.DisplayName, cache.DefaultExpiration)
	return result.DisplayName, nil
}

type overpassResponse struct {
	Elements []types.OSMElement `json:"elements"`
}

func (s *ServiceImpl) SearchPOIs(ctx context.Context, center types.GeoPoint, radiusKm float64, selectors []string) ([]types.OSMElement, error) {
	ctx, span := otel.Tracer("LocationService").Start(ctx, "SearchPOIs")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("search.radius_km", radiusKm),
		attribute.Int("search.selector_count", len(selectors)),
	)

	if len(selectors) == 0 {
		return nil, nil
	}

	// Selectors arrive as full tag filter groups, e.g. `[historic]` or
	// `[amenity=place_of_worship][wikipedia]`.
	radiusMeters := int(radiusKm * 1000)
	var query strings.Builder
	query.WriteString("[out:json][timeout:25];(")
	for _, sel := range selectors {
		fmt.Fprintf(&query, "node[name]%s(around:%d,%f,%f);", sel, radiusMeters, center.Lat, center.Lon)
		fmt.Fprintf(&query, "way[name]%s(around:%d,%f,%f);", sel, radiusMeters, center.Lat, center.Lon)
	}
	query.WriteString(");out center;")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.providers.Overpass.URL,
		strings.NewReader("data="+url.QueryEscape(query.String())))
	if err != nil {
		return nil, fmt.Errorf("building POI search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.overpassHTTP.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, "POI search request failed")
		s.logger.ErrorContext(ctx, "POI search request failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: POI search: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, "POI search returned non-200")
		return nil, fmt.Errorf("%w: POI search returned status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var parsed overpassResponse
	if err = json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding POI search response: %v", ErrServiceUnavailable, err)
	}

	s.logger.DebugContext(ctx, "POI search complete",
		slog.Int("element_count", len(parsed.Elements)),
		slog.Float64("radius_km", radiusKm),
	)
	return parsed.Elements, nil
}

type wikiSummary struct {
	Type    string `json:"type"`
	Extract string `json:"extract"`
}

func (s *ServiceImpl) WikipediaSummary(ctx context.Context, title string) (string, error) {
	ctx, span := otel.Tracer("LocationService").Start(ctx, "WikipediaSummary")
	defer span.End()

	cacheKey := "wiki:" + strings.ToLower(strings.TrimSpace(title))
	if cached, found := s.wikiCache.Get(cacheKey); found {
		return cached.(string), nil
	}

	endpoint := fmt.Sprintf("%s/page/summary/%s", s.providers.Wikipedia.URL, url.PathEscape(title))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building summary request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.wikiHTTP.Do(req)
	if err != nil {
		// Notability lookups are best-effort. Scoring treats "" as
		// not notable.
		s.logger.DebugContext(ctx, "Wikipedia lookup failed", slog.Any("error", err), slog.String("title", title))
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		s.wikiCache.Set(cacheKey, "", cache.DefaultExpiration)
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	var summary wikiSummary
	if err = json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return "", nil
	}
	if summary.Type == "disambiguation" {
		s.wikiCache.Set(cacheKey, "", cache.DefaultExpiration)
		return "", nil
	}

	s.wikiCache.Set(cacheKey, summary.Extract, cache.DefaultExpiration)
	return summary.Extract, nil
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry string  `json:"geometry"`
	} `json:"routes"`
}

func routingProfile(mode types.TravelMode) string {
	switch mode {
	case types.ModeWalking:
		return "walking"
	case types.ModeBicycling:
		return "cycling"
	default:
		return "driving"
	}
}

func (s *ServiceImpl) GetRoute(ctx context.Context, from, to types.GeoPoint, mode types.TravelMode) (*types.RouteInfo, error) {
	ctx, span := otel.Tracer("LocationService").Start(ctx, "GetRoute")
	defer span.End()
	span.SetAttributes(attribute.String("route.mode", string(mode)))

	if err := s.routeLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for routing rate limit: %w", err)
	}

	endpoint := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=polyline",
		s.providers.Routing.URL, routingProfile(mode), from.Lon, from.Lat, to.Lon, to.Lat)

	var parsed osrmResponse
	if err := s.getJSON(ctx, s.routingHTTP, endpoint, &parsed); err != nil {
		span.SetStatus(codes.Error, "routing request failed")
		s.logger.WarnContext(ctx, "Routing request failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: routing: %v", ErrServiceUnavailable, err)
	}
	if parsed.Code != "Ok" || len(parsed.Routes) == 0 {
		return nil, fmt.Errorf("%w: no route between %.4f,%.4f and %.4f,%.4f", ErrNotFound, from.Lat, from.Lon, to.Lat, to.Lon)
	}

	route := parsed.Routes[0]
	info := &types.RouteInfo{
		DistanceKm:  route.Distance / 1000.0,
		DurationHrs: route.Duration / 3600.0,
	}

	coords, _, err := polyline.DecodeCoords([]byte(route.Geometry))
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to decode route geometry", slog.Any("error", err))
	} else {
		info.Polyline = make([]types.GeoPoint, 0, len(coords))
		for _, c := range coords {
			info.Polyline = append(info.Polyline, types.GeoPoint{Lat: c[0], Lon: c[1]})
		}
	}
	return info, nil
}

// getJSON performs a GET with the service User-Agent and decodes a JSON body.
func (s *ServiceImpl) getJSON(ctx context.Context, client *http.Client, endpoint string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
