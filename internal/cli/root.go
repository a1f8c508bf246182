package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hlrd",
	Short: "Half-life regression sidecar for spaced-repetition scheduling",
	Long: "hlrd predicts how likely a learner is to recall an item after some elapsed\n" +
		"time, and how long that recall will persist. It serves predictions over HTTP\n" +
		"and updates its weights online from observed review outcomes.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(historyCmd)
}
