package domain

import "time"

// FootprintResult is the carbon calculator output
type FootprintResult struct {
	WasteType string  `json:"waste_type"`
	WeightKg  float64 `json:"weight_kg"`
	Factor    float64 `json:"factor"`
	KgCO2e    float64 `json:"kg_co2e"`
	// DrivingKmEquivalent is the distance an average car covers for the same emissions
	DrivingKmEquivalent float64  `json:"driving_km_equivalent"`
	Tips                []string `json:"tips"`
}

// FootprintPoint is one month of the historical impact chart
type FootprintPoint struct {
	Month  time.Time `json:"month"`
	KgCO2e float64   `json:"kg_co2e"`
}

// FootprintHistory wraps the monthly series with its total
type FootprintHistory struct {
	Points        []FootprintPoint `json:"points"`
	TotalKg       float64          `json:"total_kg"`
	TreesToOffset float64          `json:"trees_to_offset"`
	IsMock        bool             `json:"is_mock"`
}
