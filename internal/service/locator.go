package service

import (
	"sort"

	"github.com/ecoquest/backend/internal/domain"
	"github.com/ecoquest/backend/pkg/utils"
)

// facilityOffset places a mock facility relative to the query point, so every
// search returns nearby results wherever the user is.
type facilityOffset struct {
	name      string
	latOffset float64
	lonOffset float64
}

var disposalFacilities = map[domain.WasteCategory][]facilityOffset{
	domain.Plastic: {
		{"City Recycling Center", 0.02, 0.01},
		{"Green Earth Recyclers", -0.01, 0.02},
	},
	domain.Electronic: {
		{"E-Waste Solutions", 0.03, -0.01},
		{"Tech Recycling Hub", -0.02, -0.02},
	},
	domain.Organic: {
		{"Community Composting", 0.01, 0.03},
		{"Garden Waste Center", -0.03, 0.01},
	},
}

// Rank returns the disposal facilities for category ordered by distance from
// (lat, lon). Categories without facilities, General included, yield an
// empty slice.
func Rank(lat, lon float64, category string) []domain.RankedFacility {
	offsets := disposalFacilities[domain.WasteCategory(category)]
	ranked := make([]domain.RankedFacility, 0, len(offsets))
	for _, o := range offsets {
		f := domain.DisposalFacility{
			Name:      o.name,
			Latitude:  lat + o.latOffset,
			Longitude: lon + o.lonOffset,
		}
		ranked = append(ranked, domain.RankedFacility{
			DisposalFacility: f,
			DistanceMiles:    utils.GeodesicMiles(lat, lon, f.Latitude, f.Longitude),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceMiles < ranked[j].DistanceMiles
	})
	return ranked
}
