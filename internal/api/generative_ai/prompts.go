package generativeAI

import (
	"fmt"
	"strings"

	"github.com/triptailor/triptailor/internal/types"
)

func analyzeTripPrompt(description string, knownPreferences []string) string {
	return fmt.Sprintf(`You are a travel intent analyst. A traveler described their ideal trip as:

"%s"

Known preference categories: %s

Respond with JSON only, in this exact shape:
{"keywords": ["..."], "preferences": ["..."]}

"keywords" are 3 to 8 short search terms for specific kinds of places the traveler wants (e.g. "jazz bar", "street art").
"preferences" is the subset of the known categories that match the description. Do not invent new categories.`,
		description, strings.Join(knownPreferences, ", "))
}

func localKeywordsPrompt(city string) string {
	return fmt.Sprintf(`List 3 to 5 things %s is genuinely famous for among locals: signature dishes, craft traditions or unique place types a visitor should search for.

Respond with a JSON array of short lowercase search terms only, e.g. ["pastel de nata", "fado house", "azulejo"].`, city)
}

func tripTitlePrompt(city string, preferences []string) string {
	prefText := "a bit of everything"
	if len(preferences) > 0 {
		prefText = strings.Join(preferences, ", ")
	}
	return fmt.Sprintf(`Write a short, evocative title (max 8 words) for a day trip in %s focused on %s. Respond with the title only, no quotes.`, city, prefText)
}

func activityInsightPrompt(activityName, city, amenity string) string {
	return fmt.Sprintf(`In one enthusiastic sentence, tell a traveler why "%s" (%s) in %s is worth the stop. Be concrete, never generic. Respond with the sentence only.`,
		activityName, amenity, city)
}

func serendipityPrompt(activityName string, extraMinutes float64) string {
	return fmt.Sprintf(`A traveler is mid-itinerary. Propose a spontaneous detour to "%s" which adds about %.0f minutes. Write one playful sentence inviting them, ending with a question. Respond with the sentence only.`,
		activityName, extraMinutes)
}

func validateItineraryPrompt(city string, activityNames []string) string {
	var list strings.Builder
	for _, name := range activityNames {
		fmt.Fprintf(&list, "- %s\n", name)
	}
	return fmt.Sprintf(`The following stops were selected for a trip in %s:

%s
Identify any stop that is clearly implausible or out of place for this city (wrong city, obviously mislabeled, or not a real visitable place). Respond with a JSON array of the exact names to remove, or [] if all are plausible.`,
		city, list.String())
}

func weatherSentencePrompt(city string, f *types.WeatherForecast) string {
	return fmt.Sprintf(`Weather in %s for the %s: %s, %.0f°C (feels like %.0f°C), %d%% chance of precipitation, wind %.0f km/h.

Write one friendly sentence telling a traveler how this weather affects their day out. Respond with the sentence only.`,
		city, f.TimeOfDayDescriptor, f.Condition.Description, f.TemperatureCelsius, f.FeelsLikeCelsius,
		f.PrecipitationProbabilityPercent, f.WindSpeedKmh)
}

func memorySnapshotPrompt(city string, activityNames []string) string {
	return fmt.Sprintf(`A traveler just completed a trip in %s visiting: %s.

Write a warm 2-3 sentence keepsake paragraph in second person capturing the day. Respond with the paragraph only.`,
		city, strings.Join(activityNames, ", "))
}
