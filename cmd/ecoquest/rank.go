package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ecoquest/backend/internal/service"
)

var rankCmd = &cobra.Command{
	Use:   "rank --lat LAT --lon LON [--category NAME]",
	Short: "List disposal facilities nearest to a point",
	Args:  cobra.NoArgs,
	RunE:  runRank,
}

func init() {
	rankCmd.Flags().Float64("lat", 0, "latitude of the query point")
	rankCmd.Flags().Float64("lon", 0, "longitude of the query point")
	rankCmd.Flags().String("category", "Plastic", "waste category (Plastic|Electronic|Organic|...)")
	_ = rankCmd.MarkFlagRequired("lat")
	_ = rankCmd.MarkFlagRequired("lon")
}

func runRank(cmd *cobra.Command, args []string) error {
	lat, err := cmd.Flags().GetFloat64("lat")
	if err != nil {
		return fmt.Errorf("failed to get lat flag: %w", err)
	}
	lon, err := cmd.Flags().GetFloat64("lon")
	if err != nil {
		return fmt.Errorf("failed to get lon flag: %w", err)
	}
	category, err := cmd.Flags().GetString("category")
	if err != nil {
		return fmt.Errorf("failed to get category flag: %w", err)
	}
	if !(lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180) {
		return fmt.Errorf("coordinates out of range: %g, %g", lat, lon)
	}

	out := cmd.OutOrStdout()
	facilities := service.Rank(lat, lon, category)
	if len(facilities) == 0 {
		fmt.Fprintf(out, "no disposal facilities known for %s\n", category)
		return nil
	}
	name := color.New(color.Bold)
	for i, f := range facilities {
		fmt.Fprintf(out, "%d. %s  %.2f mi  (%.4f, %.4f)\n",
			i+1, name.Sprint(f.Name), f.DistanceMiles, f.Latitude, f.Longitude)
	}
	return nil
}
