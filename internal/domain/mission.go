package domain

import "errors"

var (
	// ErrInvalidInput marks requests the caller must fix
	ErrInvalidInput = errors.New("invalid input")
	// ErrLocationNotFound is returned when a place name does not geocode
	ErrLocationNotFound = errors.New("location not found")
)

// AnalysisRequest is the text analysis mission input
type AnalysisRequest struct {
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
	WasteType   string `json:"waste_type,omitempty"`
}

// AnalysisResult is the outcome of a text analysis mission
type AnalysisResult struct {
	Suggestion      string               `json:"suggestion"`
	IsMock          bool                 `json:"is_mock"`
	Classification  ClassificationResult `json:"classification"`
	LocationFound   bool                 `json:"location_found"`
	LocationMessage string               `json:"location_message,omitempty"`
	Search          *FacilitySearch      `json:"search,omitempty"`
	Outcome         EventOutcome         `json:"outcome"`
}

// FacilityQuery locates the search center either by coordinates or by place name
type FacilityQuery struct {
	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lon,omitempty"`
	Place     string   `json:"q,omitempty"`
	Category  string   `json:"category"`
}

// FacilityResult is a facility search plus its gamification outcome
type FacilityResult struct {
	Search  FacilitySearch `json:"search"`
	Outcome EventOutcome   `json:"outcome"`
}

// FootprintOutcome is a carbon calculation plus its gamification outcome
type FootprintOutcome struct {
	Footprint FootprintResult `json:"footprint"`
	Outcome   EventOutcome    `json:"outcome"`
}
