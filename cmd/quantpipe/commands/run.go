package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/minjae-dev/quantpipe/internal/display"
	"github.com/minjae-dev/quantpipe/internal/indicators"
	"github.com/minjae-dev/quantpipe/internal/pipeline"
	"github.com/minjae-dev/quantpipe/internal/ranking"
	"github.com/minjae-dev/quantpipe/internal/snapshot"
	"github.com/minjae-dev/quantpipe/internal/stats"
	"github.com/minjae-dev/quantpipe/internal/strategyconfig"
	"github.com/minjae-dev/quantpipe/pkg/config"
	"github.com/minjae-dev/quantpipe/pkg/database"
	"github.com/minjae-dev/quantpipe/pkg/logger"
)

// runCmd executes one full pipeline run.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the signal ranking pipeline once",
	Long: `Runs the full pipeline: indicator panel, outcome statistics,
momentum and reversal rankings, terminal display and JSON snapshot.

The command always exits zero; stage failures are reported in the
run summary and the logs.

Example:
  go run ./cmd/quantpipe run`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	// 4. Build the pipeline
	orchestrator, err := buildOrchestrator(cfg, db, log)
	if err != nil {
		return err
	}

	// 5. Run. The orchestrator reports through logs and the snapshot; run
	// outcome does not become a process error.
	report := orchestrator.Run(cmd.Context())

	fmt.Printf("\nPipeline finished in %s\n", report.Duration().Round(time.Millisecond))
	for _, stage := range report.Stages {
		status := "ok"
		if !stage.OK {
			status = "failed"
		}
		fmt.Printf("  %-18s %-8s rows=%d\n", stage.Stage, status, stage.Rows)
	}
	if report.Aborted {
		fmt.Println("Run aborted before completion")
	}
	if report.SnapshotWritten {
		fmt.Printf("Snapshot written to %s\n", cfg.Pipeline.SnapshotPath)
	}

	return nil
}

// buildOrchestrator wires the pipeline from configuration. Shared by run and
// schedule.
func buildOrchestrator(cfg *config.Config, db *database.DB, log *logger.Logger) (*pipeline.Orchestrator, error) {
	strategy, err := strategyconfig.LoadOrDefault(cfg.Pipeline.StrategyPath)
	if err != nil {
		return nil, fmt.Errorf("load strategy config: %w", err)
	}

	repo := indicators.NewRepository(db.Pool)
	panels := indicators.NewSource(repo, cfg.Pipeline.HistoryDays, log)
	statsEngine := stats.NewEngine(repo, cfg.Pipeline.HistoryDays, log)

	momentum := ranking.NewMomentumRanker(strategy.Momentum, log)
	reversal := ranking.NewReversalRanker(strategy.Reversal, log)

	presenter := display.NewTablePresenter(os.Stdout)
	writer := snapshot.NewWriter(cfg.Pipeline.SnapshotPath, cfg.Pipeline.MomentumTopN, cfg.Pipeline.ReversalTopN, log)

	return pipeline.NewOrchestrator(
		panels,
		statsEngine,
		momentum,
		reversal,
		presenter,
		writer,
		pipeline.Config{
			MomentumTopN:     cfg.Pipeline.MomentumTopN,
			ReversalTopN:     cfg.Pipeline.ReversalTopN,
			Horizons:         cfg.Pipeline.Horizons,
			SuccessThreshold: cfg.Pipeline.SuccessThreshold,
		},
		log,
	), nil
}
