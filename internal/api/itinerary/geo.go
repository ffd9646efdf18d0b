package itinerary

import (
	"math"
	"strings"

	"github.com/triptailor/triptailor/internal/types"
)

const earthRadiusKm = 6371

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(a, b types.GeoPoint) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// NormalizeCityName reduces a display name to the leading city token:
// everything before the first comma, trimmed and lowercased.
func NormalizeCityName(location string) string {
	if location == "" {
		return ""
	}
	city, _, _ := strings.Cut(location, ",")
	return strings.ToLower(strings.TrimSpace(city))
}
