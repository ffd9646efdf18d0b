package types

type FoodType string

const (
	FoodNone    FoodType = ""
	FoodMeal    FoodType = "meal"
	FoodSnack   FoodType = "snack"
	FoodDessert FoodType = "dessert"
)

// OSMElement is a raw record from the POI search provider. Way and relation
// elements carry their coordinates in Center instead of Lat/Lon.
type OSMElement struct {
	ID     int64             `json:"id"`
	Type   string            `json:"type"`
	Lat    *float64          `json:"lat,omitempty"`
	Lon    *float64          `json:"lon,omitempty"`
	Center *GeoPoint         `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

// Position resolves the element's coordinate regardless of element type.
func (e *OSMElement) Position() (GeoPoint, bool) {
	if e.Lat != nil && e.Lon != nil {
		return GeoPoint{Lat: *e.Lat, Lon: *e.Lon}, true
	}
	if e.Center != nil {
		return *e.Center, true
	}
	return GeoPoint{}, false
}

// Candidate is an enriched POI eligible for scoring within one build.
// Candidates are owned by a single build invocation and never shared.
type Candidate struct {
	OSMID               int64
	Name                string
	Tags                map[string]string
	Lat                 float64
	Lon                 float64
	AvgVisitDurationHrs float64
	FoodType            FoodType
	// EstimatedCost is nil when the cost is unknown or variable (e.g. shops).
	EstimatedCost *float64
	Description   string
}

// SpecificAmenity returns the tag subtype used for activity signatures.
func (c *Candidate) SpecificAmenity() string {
	for _, key := range []string{"amenity", "shop", "leisure", "historic"} {
		if v := c.Tags[key]; v != "" {
			return v
		}
	}
	return ""
}
