package types

// WeatherCondition maps a WMO weather code to a display description.
type WeatherCondition struct {
	Description string `json:"description"`
	IconChar    string `json:"icon_char"`
}

// WeatherForecast is the hourly record nearest the trip start.
type WeatherForecast struct {
	TemperatureCelsius              float64          `json:"temperature_celsius"`
	FeelsLikeCelsius                float64          `json:"feels_like_celsius"`
	PrecipitationProbabilityPercent int              `json:"precipitation_probability_percent"`
	WindSpeedKmh                    float64          `json:"wind_speed_kmh"`
	Condition                       WeatherCondition `json:"condition"`
	RawCode                         int              `json:"raw_code"`
	IsDay                           *int             `json:"is_day,omitempty"`
	TimeOfDayDescriptor             string           `json:"time_of_day_descriptor,omitempty"`
	WeatherSentence                 string           `json:"weather_sentence,omitempty"`
}
