package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/triptailor/triptailor/config"
	"github.com/triptailor/triptailor/internal/types"
)

// Service returns a forecast for the hour nearest a trip start. Forecast
// failures are soft: callers get nil and keep going.
type Service interface {
	ForecastAt(ctx context.Context, pt types.GeoPoint, at time.Time) (*types.WeatherForecast, error)
}

type ServiceImpl struct {
	logger  *slog.Logger
	baseURL string
	client  *http.Client
}

var _ Service = (*ServiceImpl)(nil)

func NewServiceImpl(cfg config.Providers, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:  logger,
		baseURL: cfg.Weather.URL,
		client:  &http.Client{Timeout: cfg.Weather.Timeout},
	}
}

type openMeteoResponse struct {
	Hourly struct {
		Time                     []string  `json:"time"`
		Temperature2m            []float64 `json:"temperature_2m"`
		ApparentTemperature      []float64 `json:"apparent_temperature"`
		PrecipitationProbability []int     `json:"precipitation_probability"`
		WeatherCode              []int     `json:"weather_code"`
		WindSpeed10m             []float64 `json:"wind_speed_10m"`
		IsDay                    []int     `json:"is_day"`
	} `json:"hourly"`
}

func (s *ServiceImpl) ForecastAt(ctx context.Context, pt types.GeoPoint, at time.Time) (*types.WeatherForecast, error) {
	ctx, span := otel.Tracer("WeatherService").Start(ctx, "ForecastAt")
	defer span.End()

	at = at.UTC()
	day := at.Format("2006-01-02")
	endpoint := fmt.Sprintf(
		"%s/v1/forecast?latitude=%f&longitude=%f&hourly=temperature_2m,apparent_temperature,precipitation_probability,weather_code,wind_speed_10m,is_day&start_date=%s&end_date=%s&timezone=UTC",
		s.baseURL, pt.Lat, pt.Lon, day, day,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building forecast request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, "forecast request failed")
		s.logger.WarnContext(ctx, "Forecast request failed", slog.Any("error", err))
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast returned status %d", resp.StatusCode)
	}

	var parsed openMeteoResponse
	if err = json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding forecast: %w", err)
	}
	if len(parsed.Hourly.Time) == 0 {
		return nil, fmt.Errorf("forecast contains no hourly records")
	}

	idx := nearestHourIndex(parsed.Hourly.Time, at)
	if idx < 0 {
		return nil, fmt.Errorf("no hourly record near %s", at.Format(time.RFC3339))
	}

	forecast := &types.WeatherForecast{
		RawCode:             parsed.Hourly.WeatherCode[idx],
		Condition:           DescribeCode(parsed.Hourly.WeatherCode[idx]),
		TimeOfDayDescriptor: TimeOfDayDescriptor(at.Hour()),
	}
	if idx < len(parsed.Hourly.Temperature2m) {
		forecast.TemperatureCelsius = parsed.Hourly.Temperature2m[idx]
	}
	if idx < len(parsed.Hourly.ApparentTemperature) {
		forecast.FeelsLikeCelsius = parsed.Hourly.ApparentTemperature[idx]
	}
	if idx < len(parsed.Hourly.PrecipitationProbability) {
		forecast.PrecipitationProbabilityPercent = parsed.Hourly.PrecipitationProbability[idx]
	}
	if idx < len(parsed.Hourly.WindSpeed10m) {
		forecast.WindSpeedKmh = parsed.Hourly.WindSpeed10m[idx]
	}
	if idx < len(parsed.Hourly.IsDay) {
		isDay := parsed.Hourly.IsDay[idx]
		forecast.IsDay = &isDay
	}
	return forecast, nil
}

// nearestHourIndex finds the hourly record closest to the target instant.
// Hourly timestamps arrive as "2006-01-02T15:04" in UTC.
func nearestHourIndex(stamps []string, target time.Time) int {
	best := -1
	bestDiff := math.MaxFloat64
	for i, stamp := range stamps {
		ts, err := time.Parse("2006-01-02T15:04", stamp)
		if err != nil {
			continue
		}
		diff := math.Abs(ts.Sub(target).Hours())
		if diff < bestDiff {
			bestDiff = diff
			best = i
		}
	}
	return best
}

// TimeOfDayDescriptor buckets an hour of day for prompt building.
func TimeOfDayDescriptor(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 21:
		return "evening"
	default:
		return "night"
	}
}
