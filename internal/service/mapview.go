package service

import (
	"github.com/ecoquest/backend/internal/domain"
	"github.com/ecoquest/backend/pkg/utils"
)

const (
	mapZoom  = 13
	mapTiles = "CartoDB positron"
)

// RenderMap builds the GeoJSON the dashboard map draws: the user's position
// first, then one marker per facility in ranked order.
func RenderMap(center domain.GeoPoint, facilities []domain.RankedFacility) domain.FeatureCollection {
	features := make([]domain.Feature, 0, len(facilities)+1)
	features = append(features, pointFeature(center.Latitude, center.Longitude, map[string]any{
		"label":  "Your Location",
		"role":   "origin",
		"marker": "red",
		"icon":   "info-sign",
	}))

	for i, f := range facilities {
		features = append(features, pointFeature(f.Latitude, f.Longitude, map[string]any{
			"label":          f.Name,
			"role":           "facility",
			"marker":         "green",
			"rank":           i + 1,
			"distance_miles": utils.RoundTo(f.DistanceMiles, 2),
		}))
	}

	return domain.FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
		Properties: map[string]any{
			"center": []float64{center.Longitude, center.Latitude},
			"zoom":   mapZoom,
			"tiles":  mapTiles,
		},
	}
}

func pointFeature(lat, lon float64, props map[string]any) domain.Feature {
	return domain.Feature{
		Type: "Feature",
		Geometry: domain.Geometry{
			Type:        "Point",
			Coordinates: []float64{lon, lat},
		},
		Properties: props,
	}
}
