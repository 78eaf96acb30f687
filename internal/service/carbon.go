package service

import (
	"strings"

	"github.com/ecoquest/backend/internal/domain"
)

const (
	// defaultCarbonFactor applies to waste types without their own factor
	defaultCarbonFactor = 3.0

	drivingKmPerKgCO2e = 4.0
	kgCO2ePerTree      = 100.0
)

// carbonFactors are kg CO2e per kg of waste
var carbonFactors = map[string]float64{
	"plastic":    6.0,
	"paper":      2.5,
	"metal":      4.0,
	"glass":      0.9,
	"organic":    1.2,
	"electronic": 20.0,
}

// CarbonFactor returns the emission factor for a waste type (case-insensitive)
func CarbonFactor(wasteType string) float64 {
	if f, ok := carbonFactors[strings.ToLower(wasteType)]; ok {
		return f
	}
	return defaultCarbonFactor
}

// CalculateCarbonFootprint returns kg CO2e for weightKg of wasteType
func CalculateCarbonFootprint(wasteType string, weightKg float64) float64 {
	return CarbonFactor(wasteType) * weightKg
}

// EcoTips picks advice for a footprint in kg CO2e
func EcoTips(kgCO2e float64) []string {
	switch {
	case kgCO2e > 50:
		return []string{
			"Consider recycling more of your waste",
			"Try composting organic waste",
			"Reduce single-use plastic consumption",
			"Choose products with less packaging",
		}
	case kgCO2e > 20:
		return []string{
			"You're doing well! Here are some additional tips:",
			"Buy products with recyclable packaging",
			"Start a small compost bin",
		}
	default:
		return []string{
			"Great job keeping your carbon footprint low!",
			"Share your eco-friendly practices with others",
			"Consider joining local environmental initiatives",
		}
	}
}

// Footprint bundles the calculation with its tips
func Footprint(wasteType string, weightKg float64) domain.FootprintResult {
	factor := CarbonFactor(wasteType)
	kg := factor * weightKg
	return domain.FootprintResult{
		WasteType: wasteType,
		WeightKg:  weightKg,
		Factor:    factor,
		KgCO2e:    kg,

		DrivingKmEquivalent: DrivingKmEquivalent(kg),
		Tips:                EcoTips(kg),
	}
}

// DrivingKmEquivalent converts kg CO2e to km driven in an average car
func DrivingKmEquivalent(kgCO2e float64) float64 {
	return kgCO2e * drivingKmPerKgCO2e
}

// TreesToOffset is the number of trees needed to absorb kgCO2e
func TreesToOffset(kgCO2e float64) float64 {
	return kgCO2e / kgCO2ePerTree
}
