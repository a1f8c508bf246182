package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnrPg/noema/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent training observations",
	Long:  "List recent review-log entries straight from the database.",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of entries")
}

// openDB is a helper that opens the database for CLI commands.
func openDB() (*store.DB, error) {
	dbPath := os.Getenv("HLR_DB")
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return store.Open(dbPath)
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	reviews, err := db.GetRecentReviews(historyLimit)
	if err != nil {
		return fmt.Errorf("get reviews: %w", err)
	}

	if len(reviews) == 0 {
		fmt.Println("No training observations recorded.")
		return nil
	}

	total, _ := db.CountReviews()
	fmt.Printf("## Review Log (%d of %d)\n\n", len(reviews), total)

	for _, r := range reviews {
		ts := time.UnixMilli(r.CreatedAt).Format("2006-01-02 15:04")

		var feats []string
		for _, f := range r.Features {
			feats = append(feats, fmt.Sprintf("%s=%g", f.Name, f.Value))
		}

		fmt.Printf("[%s] recall %.2f after %.2f days  (%s)\n", ts, r.ActualRecall, r.DeltaDays, strings.Join(feats, " "))
		fmt.Printf("  p: %.4f -> %.4f   h: %.2f -> %.2f days\n",
			r.PredictedRecall, r.PostRecall, r.PredictedHalfLife, r.PostHalfLife)
	}

	return nil
}
