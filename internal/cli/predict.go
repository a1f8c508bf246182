package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AnrPg/noema/internal/client"
	"github.com/AnrPg/noema/internal/hlr"
)

// parseFeatures turns repeated --feature name=value flags into a vector.
func parseFeatures(raw []string) ([]hlr.Feature, error) {
	features := make([]hlr.Feature, 0, len(raw))
	for _, f := range raw {
		name, val, ok := strings.Cut(f, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid feature %q, want name=value", f)
		}
		x, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", f, err)
		}
		features = append(features, hlr.Feature{Name: name, Value: x})
	}
	return features, nil
}

// --- predict command ---

var (
	predictFeatures []string
	predictDays     float64
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict recall probability and half-life",
	Long: "Ask a running hlrd server for a recall/half-life estimate.\n" +
		"Example: hlrd predict --feature right=2.449 --feature wrong=1 --feature bias=1 --days 3.5",
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringArrayVarP(&predictFeatures, "feature", "f", nil, "Feature as name=value (repeatable)")
	predictCmd.Flags().Float64VarP(&predictDays, "days", "d", 0, "Days since last review")

	trainCmd.Flags().StringArrayVarP(&trainFeatures, "feature", "f", nil, "Feature as name=value (repeatable)")
	trainCmd.Flags().Float64VarP(&trainDays, "days", "d", 0, "Days since last review")
	trainCmd.Flags().Float64VarP(&trainRecall, "recall", "r", -1, "Observed recall proportion in [0, 1]")
	trainCmd.Flags().Float64Var(&trainHalfLife, "half-life", -1, "Observed half-life in days (estimated if omitted)")
}

func runPredict(cmd *cobra.Command, args []string) error {
	features, err := parseFeatures(predictFeatures)
	if err != nil {
		return err
	}

	c := client.New()
	pred, err := c.Predict(features, predictDays)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}

	fmt.Printf("recall probability: %.4f\n", pred.RecallProbability)
	fmt.Printf("half-life:          %.2f days\n", pred.HalfLifeDays)
	return nil
}

// --- train command ---

var (
	trainFeatures []string
	trainDays     float64
	trainRecall   float64
	trainHalfLife float64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Submit one observed review outcome",
	Long: "Update the server's model weights from a single observation.\n" +
		"Example: hlrd train --feature bias=1 --days 1 --recall 0.9",
	RunE: runTrain,
}

func runTrain(cmd *cobra.Command, args []string) error {
	features, err := parseFeatures(trainFeatures)
	if err != nil {
		return err
	}
	if trainRecall < 0 || trainRecall > 1 {
		return fmt.Errorf("--recall must be in [0, 1]")
	}

	var halfLife *float64
	if cmd.Flags().Changed("half-life") {
		if trainHalfLife < 0 {
			return fmt.Errorf("--half-life must be >= 0")
		}
		halfLife = &trainHalfLife
	}

	c := client.New()
	pred, err := c.Train(features, trainDays, trainRecall, halfLife)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	fmt.Println("weights updated")
	fmt.Printf("recall probability: %.4f\n", pred.RecallProbability)
	fmt.Printf("half-life:          %.2f days\n", pred.HalfLifeDays)
	return nil
}
