package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ecoquest/backend/internal/service"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [text...]",
	Short: "Score a waste description against each category",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

var (
	topColor      = color.New(color.FgGreen, color.Bold)
	fallbackColor = color.New(color.FgYellow)
)

func runClassify(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	result := service.Score(strings.Join(args, " "))
	top := result.Top()

	if result.IsFallback {
		fallbackColor.Fprintln(out, "no keywords matched, showing baseline confidences")
	}
	for _, s := range result.Scores {
		line := fmt.Sprintf("%-8s %5.1f%%  hazard=%s", s.Category, s.Confidence*100, s.HazardLevel)
		if !result.IsFallback && s.Category == top.Category {
			topColor.Fprintln(out, line)
			continue
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
