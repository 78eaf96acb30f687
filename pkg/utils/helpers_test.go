package utils

import (
	"math"
	"testing"
)

func TestGeodesicKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
		tolerance              float64
	}{
		{"same point", 40.7128, -74.0060, 40.7128, -74.0060, 0, 1e-9},
		// WGS 84 meridian degree at the equator is shorter than along the equator
		{"one degree north at equator", 0, 0, 1, 0, 110.574, 0.001},
		{"one degree east at equator", 0, 0, 0, 1, 111.319, 0.001},
		{"new york to london", 40.7128, -74.0060, 51.5074, -0.1278, 5585, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GeodesicKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("GeodesicKm() = %.4f km, want %.4f ± %.4f", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestGeodesicMiles(t *testing.T) {
	km := GeodesicKm(43.2389, 76.8897, 43.2589, 76.8997)
	miles := GeodesicMiles(43.2389, 76.8897, 43.2589, 76.8997)
	if math.Abs(miles*1.609344-km) > 1e-9 {
		t.Errorf("GeodesicMiles() = %f, inconsistent with %f km", miles, km)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(-1, 0, 100); got != 0 {
		t.Errorf("Clamp(-1) = %v, want 0", got)
	}
	if got := Clamp(150, 0, 100); got != 100 {
		t.Errorf("Clamp(150) = %v, want 100", got)
	}
	if got := Clamp(42, 0, 100); got != 42 {
		t.Errorf("Clamp(42) = %v, want 42", got)
	}
}

func TestRoundTo(t *testing.T) {
	if got := RoundTo(1.23456, 2); got != 1.23 {
		t.Errorf("RoundTo() = %v, want 1.23", got)
	}
	if got := RoundTo(2.5, 0); got != 3 {
		t.Errorf("RoundTo() = %v, want 3", got)
	}
}
