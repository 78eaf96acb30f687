package service

import (
	"math"
	"strings"
	"testing"
)

func TestCalculateCarbonFootprint(t *testing.T) {
	cases := []struct {
		wasteType string
		weight    float64
		want      float64
	}{
		{"plastic", 2.0, 12.0},
		{"PLASTIC", 1.0, 6.0},
		{"Electronic", 0.5, 10.0},
		{"glass", 10, 9.0},
		{"styrofoam", 1.0, 3.0},
		{"", 2.0, 6.0},
	}
	for _, tc := range cases {
		if got := CalculateCarbonFootprint(tc.wasteType, tc.weight); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("CalculateCarbonFootprint(%q, %v) = %v, want %v", tc.wasteType, tc.weight, got, tc.want)
		}
	}
}

func TestEcoTipsThresholds(t *testing.T) {
	cases := []struct {
		kg     float64
		prefix string
		n      int
	}{
		{50.1, "Consider recycling", 4},
		{50, "You're doing well", 3},
		{20.1, "You're doing well", 3},
		{20, "Great job", 3},
		{0, "Great job", 3},
	}
	for _, tc := range cases {
		tips := EcoTips(tc.kg)
		if len(tips) != tc.n {
			t.Errorf("EcoTips(%v) returned %d tips, want %d", tc.kg, len(tips), tc.n)
			continue
		}
		if !strings.HasPrefix(tips[0], tc.prefix) {
			t.Errorf("EcoTips(%v)[0] = %q, want prefix %q", tc.kg, tips[0], tc.prefix)
		}
	}
}

func TestFootprint(t *testing.T) {
	r := Footprint("metal", 15)
	if r.Factor != 4.0 || r.KgCO2e != 60 {
		t.Fatalf("Footprint = %+v", r)
	}
	if len(r.Tips) != 4 {
		t.Fatalf("expected high-footprint tips, got %v", r.Tips)
	}
	if r.DrivingKmEquivalent != 240 {
		t.Fatalf("DrivingKmEquivalent = %v, want 240", r.DrivingKmEquivalent)
	}
}

func TestEquivalents(t *testing.T) {
	if got := DrivingKmEquivalent(12.5); got != 50 {
		t.Errorf("DrivingKmEquivalent(12.5) = %v, want 50", got)
	}
	if got := TreesToOffset(360); got != 3.6 {
		t.Errorf("TreesToOffset(360) = %v, want 3.6", got)
	}
}
