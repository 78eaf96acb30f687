package domain

// GeoPoint is a WGS 84 coordinate
type GeoPoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// DisposalFacility is a place that accepts a category of waste
type DisposalFacility struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// RankedFacility is a facility with its distance from the query point
type RankedFacility struct {
	DisposalFacility
	DistanceMiles float64 `json:"distance_miles"`
}

// Feature is a single GeoJSON feature. Coordinates are [lon, lat].
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry is a GeoJSON point geometry
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// FeatureCollection is the map artifact handed to the dashboard map widget
type FeatureCollection struct {
	Type       string         `json:"type"`
	Features   []Feature      `json:"features"`
	Properties map[string]any `json:"properties,omitempty"`
}

// FacilitySearch is the result of a disposal location lookup
type FacilitySearch struct {
	Query      string            `json:"query,omitempty"`
	Address    string            `json:"address,omitempty"`
	Center     GeoPoint          `json:"center"`
	Category   WasteCategory     `json:"category"`
	Facilities []RankedFacility  `json:"facilities"`
	Map        FeatureCollection `json:"map"`
}
