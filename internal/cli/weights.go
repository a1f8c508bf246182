package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AnrPg/noema/internal/client"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Export or import model weights",
}

var weightsExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the server's current weights as JSON",
	Long:  "Fetch the current weight snapshot. Writes to stdout unless a file is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWeightsExport,
}

var weightsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the server's weights from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runWeightsImport,
}

func init() {
	weightsCmd.AddCommand(weightsExportCmd)
	weightsCmd.AddCommand(weightsImportCmd)
}

func runWeightsExport(cmd *cobra.Command, args []string) error {
	c := client.New()
	snap, err := c.Weights()
	if err != nil {
		return fmt.Errorf("fetch weights: %w", err)
	}

	data, err := json.MarshalIndent(snap.Weights, "", "  ")
	if err != nil {
		return fmt.Errorf("encode weights: %w", err)
	}
	data = append(data, '\n')

	if len(args) == 0 {
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(args[0], data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}
	fmt.Fprintf(os.Stderr, "wrote %d weights to %s\n", len(snap.Weights), args[0])
	return nil
}

func runWeightsImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	var weights map[string]float64
	if err := json.Unmarshal(data, &weights); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	c := client.New()
	if err := c.LoadWeights(weights); err != nil {
		return fmt.Errorf("load weights: %w", err)
	}

	fmt.Fprintf(os.Stderr, "loaded %d weights\n", len(weights))
	return nil
}
