package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ecoquest",
	Short: "EcoQuest waste analysis tools",
	Long:  `Offline access to the EcoQuest classifier, facility ranker and carbon calculator`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		mode, err := cmd.Root().PersistentFlags().GetString("color")
		if err != nil {
			return fmt.Errorf("failed to get color flag: %w", err)
		}
		switch mode {
		case "on":
			color.NoColor = false
		case "off":
			color.NoColor = true
		case "auto":
		default:
			return fmt.Errorf("unknown color mode: %s", mode)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(footprintCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
