package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnrPg/noema/internal/config"
	"github.com/AnrPg/noema/internal/hlr"
	"github.com/AnrPg/noema/internal/server"
	"github.com/AnrPg/noema/internal/store"
)

var (
	serveConfigPath  string
	serveWeightsPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to TOML config file")
	serveCmd.Flags().StringVar(&serveWeightsPath, "weights", "", "JSON file of initial weights to import at startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Resolve database path
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	hp := hlr.Hyperparameters{
		LearningRate: cfg.Model.LearningRate,
		HLWeight:     cfg.Model.HLWeight,
		L2Weight:     cfg.Model.L2Weight,
		Sigma:        cfg.Model.Sigma,
		OmitHTerm:    cfg.Model.OmitHTerm,
	}

	// The model lives for the process lifetime. It starts empty unless
	// an initial weight snapshot is supplied; ongoing persistence is the
	// caller's concern via the weights API.
	var initial map[string]float64
	if serveWeightsPath != "" {
		data, err := os.ReadFile(serveWeightsPath)
		if err != nil {
			return fmt.Errorf("read weights: %w", err)
		}
		if err := json.Unmarshal(data, &initial); err != nil {
			return fmt.Errorf("parse weights %s: %w", serveWeightsPath, err)
		}
	}
	model := hlr.NewModel(hp, initial)

	srv := server.New(model, db, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "hlrd serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  lrate: %g  hlwt: %g  l2wt: %g  sigma: %g\n",
			hp.LearningRate, hp.HLWeight, hp.L2Weight, hp.Sigma)
		if len(initial) > 0 {
			fmt.Fprintf(os.Stderr, "  weights: %d features from %s\n", len(initial), serveWeightsPath)
		}
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
