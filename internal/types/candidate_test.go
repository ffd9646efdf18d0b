package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOSMElementPosition(t *testing.T) {
	lat, lon := 38.7139, -9.1335

	t.Run("node coordinates", func(t *testing.T) {
		e := OSMElement{ID: 1, Type: "node", Lat: &lat, Lon: &lon}
		pos, ok := e.Position()
		assert.True(t, ok)
		assert.Equal(t, GeoPoint{Lat: lat, Lon: lon}, pos)
	})

	t.Run("way center", func(t *testing.T) {
		e := OSMElement{ID: 2, Type: "way", Center: &GeoPoint{Lat: lat, Lon: lon}}
		pos, ok := e.Position()
		assert.True(t, ok)
		assert.Equal(t, GeoPoint{Lat: lat, Lon: lon}, pos)
	})

	t.Run("no coordinates at all", func(t *testing.T) {
		e := OSMElement{ID: 3, Type: "way"}
		_, ok := e.Position()
		assert.False(t, ok)
	})

	t.Run("partial coordinates fall back to center", func(t *testing.T) {
		e := OSMElement{ID: 4, Type: "node", Lat: &lat, Center: &GeoPoint{Lat: 1, Lon: 2}}
		pos, ok := e.Position()
		assert.True(t, ok)
		assert.Equal(t, GeoPoint{Lat: 1, Lon: 2}, pos)
	})
}

func TestCandidateSpecificAmenity(t *testing.T) {
	tests := []struct {
		name     string
		tags     map[string]string
		expected string
	}{
		{"amenity first", map[string]string{"amenity": "cafe", "shop": "coffee"}, "cafe"},
		{"shop second", map[string]string{"shop": "gift", "leisure": "park"}, "gift"},
		{"leisure third", map[string]string{"leisure": "garden", "historic": "castle"}, "garden"},
		{"historic last", map[string]string{"historic": "monument"}, "monument"},
		{"nothing matches", map[string]string{"tourism": "viewpoint"}, ""},
		{"nil tags", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Candidate{Tags: tt.tags}
			assert.Equal(t, tt.expected, c.SpecificAmenity())
		})
	}
}
