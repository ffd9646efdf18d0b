package generativeAI

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"google.golang.org/genai"

	"github.com/triptailor/triptailor/internal/types"
)

const (
	defaultModel = "gemini-2.0-flash"
	callTimeout  = 20 * time.Second
)

// Generator is the narrative capability surface of the planner. Every method
// is best-effort: callers must tolerate errors and fall back to deterministic
// text, so a missing or failing model never blocks a build.
type Generator interface {
	// AnalyzeTripDescription extracts search keywords and matching known
	// preferences from free-form trip text.
	AnalyzeTripDescription(ctx context.Context, description string, knownPreferences []string) (keywords []string, preferences []string, err error)
	// DynamicLocalKeywords suggests locally famous things to seek out in a city.
	DynamicLocalKeywords(ctx context.Context, city string) ([]string, error)
	// CreativeTripTitle names a generated plan.
	CreativeTripTitle(ctx context.Context, city string, preferences []string) (string, error)
	// ActivityInsight writes one enthusiastic sentence about a stop.
	ActivityInsight(ctx context.Context, activityName, city, amenity string) (string, error)
	// SerendipityText phrases a spontaneous detour proposal.
	SerendipityText(ctx context.Context, activityName string, extraMinutes float64) (string, error)
	// ValidateItinerary returns the names of stops implausible for the city.
	ValidateItinerary(ctx context.Context, city string, activityNames []string) ([]string, error)
	// WeatherSentence turns a forecast into one planning-relevant sentence.
	WeatherSentence(ctx context.Context, city string, forecast *types.WeatherForecast) (string, error)
	// MemorySnapshot writes a short keepsake paragraph for a completed trip.
	MemorySnapshot(ctx context.Context, city string, activityNames []string) (string, error)
}

// AIClient wraps the Gemini SDK with a fixed model and per-call timeout.
type AIClient struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

var _ Generator = (*AIClient)(nil)

func NewAIClient(ctx context.Context, logger *slog.Logger) (*AIClient, error) {
	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_GEMINI_API_KEY environment variable is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating AI client: %w", err)
	}
	return &AIClient{
		client: client,
		model:  defaultModel,
		logger: logger,
	}, nil
}

func (ai *AIClient) generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	ctx, span := otel.Tracer("AIClient").Start(ctx, "GenerateContent")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](temperature),
	}
	result, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	return strings.TrimSpace(result.Text()), nil
}

type tripAnalysis struct {
	Keywords    []string `json:"keywords"`
	Preferences []string `json:"preferences"`
}

func (ai *AIClient) AnalyzeTripDescription(ctx context.Context, description string, knownPreferences []string) ([]string, []string, error) {
	raw, err := ai.generate(ctx, analyzeTripPrompt(description, knownPreferences), 0.2)
	if err != nil {
		return nil, nil, err
	}
	var analysis tripAnalysis
	if err = json.Unmarshal([]byte(extractJSON(raw)), &analysis); err != nil {
		ai.logger.WarnContext(ctx, "Unparseable trip analysis", slog.Any("error", err), slog.String("raw", raw))
		return nil, nil, fmt.Errorf("parsing trip analysis: %w", err)
	}
	// The model may invent preference labels. Keep only known ones.
	known := make(map[string]bool, len(knownPreferences))
	for _, p := range knownPreferences {
		known[strings.ToLower(p)] = true
	}
	var prefs []string
	for _, p := range analysis.Preferences {
		if known[strings.ToLower(p)] {
			prefs = append(prefs, strings.ToLower(p))
		}
	}
	return analysis.Keywords, prefs, nil
}

func (ai *AIClient) DynamicLocalKeywords(ctx context.Context, city string) ([]string, error) {
	raw, err := ai.generate(ctx, localKeywordsPrompt(city), 0.4)
	if err != nil {
		return nil, err
	}
	var keywords []string
	if err = json.Unmarshal([]byte(extractJSON(raw)), &keywords); err != nil {
		return nil, fmt.Errorf("parsing local keywords: %w", err)
	}
	return keywords, nil
}

func (ai *AIClient) CreativeTripTitle(ctx context.Context, city string, preferences []string) (string, error) {
	title, err := ai.generate(ctx, tripTitlePrompt(city, preferences), 0.8)
	if err != nil {
		return "", err
	}
	return strings.Trim(title, `"`), nil
}

func (ai *AIClient) ActivityInsight(ctx context.Context, activityName, city, amenity string) (string, error) {
	return ai.generate(ctx, activityInsightPrompt(activityName, city, amenity), 0.7)
}

func (ai *AIClient) SerendipityText(ctx context.Context, activityName string, extraMinutes float64) (string, error) {
	return ai.generate(ctx, serendipityPrompt(activityName, extraMinutes), 0.8)
}

func (ai *AIClient) ValidateItinerary(ctx context.Context, city string, activityNames []string) ([]string, error) {
	raw, err := ai.generate(ctx, validateItineraryPrompt(city, activityNames), 0.1)
	if err != nil {
		return nil, err
	}
	var flagged []string
	if err = json.Unmarshal([]byte(extractJSON(raw)), &flagged); err != nil {
		return nil, fmt.Errorf("parsing validation result: %w", err)
	}
	// Only names actually present in the plan count as flags.
	present := make(map[string]bool, len(activityNames))
	for _, name := range activityNames {
		present[name] = true
	}
	var result []string
	for _, name := range flagged {
		if present[name] {
			result = append(result, name)
		}
	}
	return result, nil
}

func (ai *AIClient) WeatherSentence(ctx context.Context, city string, forecast *types.WeatherForecast) (string, error) {
	if forecast == nil {
		return "", fmt.Errorf("no forecast to describe")
	}
	return ai.generate(ctx, weatherSentencePrompt(city, forecast), 0.6)
}

func (ai *AIClient) MemorySnapshot(ctx context.Context, city string, activityNames []string) (string, error) {
	return ai.generate(ctx, memorySnapshotPrompt(city, activityNames), 0.8)
}

// extractJSON strips markdown fencing and leading prose so model output can
// be unmarshalled.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, "```"); idx >= 0 {
		raw = raw[idx+3:]
		raw = strings.TrimPrefix(raw, "json")
		if end := strings.Index(raw, "```"); end >= 0 {
			raw = raw[:end]
		}
	}
	start := strings.IndexAny(raw, "[{")
	if start < 0 {
		return raw
	}
	var closer byte = ']'
	if raw[start] == '{' {
		closer = '}'
	}
	end := strings.LastIndexByte(raw, closer)
	if end <= start {
		return raw[start:]
	}
	return raw[start : end+1]
}
