package generativeAI

import (
	"context"
	"fmt"
	"strings"

	"github.com/triptailor/triptailor/internal/types"
)

// NoopGenerator produces deterministic text when no model is configured.
// The planner stays fully functional, just less lyrical.
type NoopGenerator struct{}

var _ Generator = (*NoopGenerator)(nil)

func NewNoopGenerator() *NoopGenerator { return &NoopGenerator{} }

func (n *NoopGenerator) AnalyzeTripDescription(_ context.Context, _ string, _ []string) ([]string, []string, error) {
	return nil, nil, nil
}

func (n *NoopGenerator) DynamicLocalKeywords(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (n *NoopGenerator) CreativeTripTitle(_ context.Context, city string, preferences []string) (string, error) {
	if len(preferences) > 0 {
		return fmt.Sprintf("A %s day in %s", strings.Join(preferences, " and "), titleCity(city)), nil
	}
	return fmt.Sprintf("A day in %s", titleCity(city)), nil
}

func (n *NoopGenerator) ActivityInsight(_ context.Context, activityName, _, _ string) (string, error) {
	return fmt.Sprintf("%s is a local favorite worth a stop.", activityName), nil
}

func (n *NoopGenerator) SerendipityText(_ context.Context, activityName string, extraMinutes float64) (string, error) {
	return fmt.Sprintf("Feeling spontaneous? %s is nearby and would add about %.0f minutes. Up for it?", activityName, extraMinutes), nil
}

func (n *NoopGenerator) ValidateItinerary(_ context.Context, _ string, _ []string) ([]string, error) {
	return nil, nil
}

func (n *NoopGenerator) WeatherSentence(_ context.Context, _ string, forecast *types.WeatherForecast) (string, error) {
	if forecast == nil {
		return "", nil
	}
	return fmt.Sprintf("Expect %s around %.0f°C during your trip.",
		strings.ToLower(forecast.Condition.Description), forecast.TemperatureCelsius), nil
}

func (n *NoopGenerator) MemorySnapshot(_ context.Context, city string, activityNames []string) (string, error) {
	if len(activityNames) == 0 {
		return fmt.Sprintf("You explored %s at your own pace.", titleCity(city)), nil
	}
	return fmt.Sprintf("You spent the day in %s, stopping at %s.", titleCity(city), strings.Join(activityNames, ", ")), nil
}

func titleCity(city string) string {
	if city == "" {
		return "the city"
	}
	return city
}
