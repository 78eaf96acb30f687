package utils

import (
	"math"

	"github.com/tidwall/geodesic"
)

const kmPerMile = 1.609344

// GeodesicKm returns the WGS 84 ellipsoidal distance between two points in kilometers
func GeodesicKm(lat1, lon1, lat2, lon2 float64) float64 {
	var meters float64
	geodesic.WGS84.Inverse(lat1, lon1, lat2, lon2, &meters, nil, nil)
	return meters / 1000
}

// GeodesicMiles is GeodesicKm in statute miles
func GeodesicMiles(lat1, lon1, lat2, lon2 float64) float64 {
	return GeodesicKm(lat1, lon1, lat2, lon2) / kmPerMile
}

// Clamp limits a value between min and max
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// RoundTo rounds a float to specified decimal places
func RoundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
