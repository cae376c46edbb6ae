package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/minjae-dev/quantpipe/internal/api"
	"github.com/minjae-dev/quantpipe/internal/api/handlers"
	"github.com/minjae-dev/quantpipe/internal/contracts"
	"github.com/minjae-dev/quantpipe/internal/indicators"
	"github.com/minjae-dev/quantpipe/internal/ranking"
	"github.com/minjae-dev/quantpipe/internal/strategyconfig"
	"github.com/minjae-dev/quantpipe/pkg/config"
	"github.com/minjae-dev/quantpipe/pkg/database"
	"github.com/minjae-dev/quantpipe/pkg/logger"
)

// apiCmd starts the read-only HTTP API.
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Starts the read-only API over the latest pipeline results.

Endpoints:
  GET /health                  - Health check
  GET /api/snapshot            - Latest raw ranking snapshot
  GET /api/rankings/{family}   - Fresh raw ranking (momentum|reversal)

Example:
  go run ./cmd/quantpipe api
  go run ./cmd/quantpipe api --port 8089`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	// 4. Strategy and ranking wiring
	strategy, err := strategyconfig.LoadOrDefault(cfg.Pipeline.StrategyPath)
	if err != nil {
		return fmt.Errorf("load strategy config: %w", err)
	}

	repo := indicators.NewRepository(db.Pool)
	panels := indicators.NewSource(repo, cfg.Pipeline.HistoryDays, log)
	rankers := []contracts.SignalRanker{
		ranking.NewMomentumRanker(strategy.Momentum, log),
		ranking.NewReversalRanker(strategy.Reversal, log),
	}

	// 5. Handlers and router
	snapshotHandler := handlers.NewSnapshotHandler(cfg.Pipeline.SnapshotPath, log)
	rankingHandler := handlers.NewRankingHandler(panels, rankers, log)
	router := api.NewRouter(snapshotHandler, rankingHandler, log)

	// 6. Start server with graceful shutdown
	server := api.New(cfg, log, router)
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
