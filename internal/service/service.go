package service

import (
	"context"

	"github.com/ecoquest/backend/internal/domain"
)

// ActivityRepository and SessionRepository are re-exported from domain for convenience
type (
	ActivityRepository = domain.ActivityRepository
	SessionRepository  = domain.SessionRepository
)

// Generator produces disposal advice and image captions. *GenAIBridge implements it.
type Generator interface {
	GenerateSuggestions(ctx context.Context, description, wasteType string) (Generation, error)
	AnalyzeImage(ctx context.Context, image []byte, mimeType string) (Generation, error)
}

// PlaceResolver geocodes place names and coordinates. *Geocoder implements it.
type PlaceResolver interface {
	Geocode(ctx context.Context, query string) (domain.GeoPoint, bool, error)
	Reverse(ctx context.Context, p domain.GeoPoint) (string, bool, error)
}
