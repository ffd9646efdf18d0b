package weather

import "github.com/triptailor/triptailor/internal/types"

// wmoConditions maps WMO weather interpretation codes to display text.
var wmoConditions = map[int]types.WeatherCondition{
	0:  {Description: "Clear sky", IconChar: "☀️"},
	1:  {Description: "Mainly clear", IconChar: "🌤️"},
	2:  {Description: "Partly cloudy", IconChar: "⛅"},
	3:  {Description: "Overcast", IconChar: "☁️"},
	45: {Description: "Fog", IconChar: "🌫️"},
	48: {Description: "Depositing rime fog", IconChar: "🌫️"},
	51: {Description: "Light drizzle", IconChar: "🌦️"},
	53: {Description: "Moderate drizzle", IconChar: "🌦️"},
	55: {Description: "Dense drizzle", IconChar: "🌧️"},
	56: {Description: "Light freezing drizzle", IconChar: "🌧️"},
	57: {Description: "Dense freezing drizzle", IconChar: "🌧️"},
	61: {Description: "Slight rain", IconChar: "🌧️"},
	63: {Description: "Moderate rain", IconChar: "🌧️"},
	65: {Description: "Heavy rain", IconChar: "🌧️"},
	66: {Description: "Light freezing rain", IconChar: "🌧️"},
	67: {Description: "Heavy freezing rain", IconChar: "🌧️"},
	71: {Description: "Slight snowfall", IconChar: "🌨️"},
	73: {Description: "Moderate snowfall", IconChar: "🌨️"},
	75: {Description: "Heavy snowfall", IconChar: "❄️"},
	77: {Description: "Snow grains", IconChar: "❄️"},
	80: {Description: "Slight rain showers", IconChar: "🌦️"},
	81: {Description: "Moderate rain showers", IconChar: "🌧️"},
	82: {Description: "Violent rain showers", IconChar: "⛈️"},
	85: {Description: "Slight snow showers", IconChar: "🌨️"},
	86: {Description: "Heavy snow showers", IconChar: "🌨️"},
	95: {Description: "Thunderstorm", IconChar: "⛈️"},
	96: {Description: "Thunderstorm with slight hail", IconChar: "⛈️"},
	99: {Description: "Thunderstorm with heavy hail", IconChar: "⛈️"},
}

// DescribeCode resolves a WMO code, falling back to a generic description
// for codes outside the table.
func DescribeCode(code int) types.WeatherCondition {
	if cond, ok := wmoConditions[code]; ok {
		return cond
	}
	return types.WeatherCondition{Description: "Unknown conditions", IconChar: "🌡️"}
}
