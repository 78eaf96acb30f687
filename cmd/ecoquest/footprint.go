package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ecoquest/backend/internal/service"
)

var footprintCmd = &cobra.Command{
	Use:   "footprint --type TYPE --weight KG",
	Short: "Estimate the carbon footprint of discarded waste",
	Args:  cobra.NoArgs,
	RunE:  runFootprint,
}

func init() {
	footprintCmd.Flags().String("type", "", "waste type (plastic, paper, metal, glass, organic, electronic)")
	footprintCmd.Flags().Float64("weight", 1.0, "weight in kg")
	_ = footprintCmd.MarkFlagRequired("type")
}

func runFootprint(cmd *cobra.Command, args []string) error {
	wasteType, err := cmd.Flags().GetString("type")
	if err != nil {
		return fmt.Errorf("failed to get type flag: %w", err)
	}
	weight, err := cmd.Flags().GetFloat64("weight")
	if err != nil {
		return fmt.Errorf("failed to get weight flag: %w", err)
	}
	if weight < 0.1 || weight > 1000 {
		return fmt.Errorf("weight must be between 0.1 and 1000 kg, got %g", weight)
	}

	out := cmd.OutOrStdout()
	result := service.Footprint(wasteType, weight)
	color.New(color.FgCyan, color.Bold).Fprintf(out, "%.2f kg CO2e\n", result.KgCO2e)
	fmt.Fprintf(out, "%g kg of %s at %.1f kg CO2e/kg\n", result.WeightKg, result.WasteType, result.Factor)
	fmt.Fprintf(out, "about %.1f km in an average car\n", result.DrivingKmEquivalent)
	for _, tip := range result.Tips {
		fmt.Fprintf(out, "  - %s\n", tip)
	}
	return nil
}
