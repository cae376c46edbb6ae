package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/minjae-dev/quantpipe/internal/collector"
	"github.com/minjae-dev/quantpipe/internal/external/naver"
	"github.com/minjae-dev/quantpipe/internal/indicators"
	"github.com/minjae-dev/quantpipe/internal/scheduler"
	"github.com/minjae-dev/quantpipe/internal/scheduler/jobs"
	"github.com/minjae-dev/quantpipe/pkg/config"
	"github.com/minjae-dev/quantpipe/pkg/database"
	"github.com/minjae-dev/quantpipe/pkg/httputil"
	"github.com/minjae-dev/quantpipe/pkg/logger"
)

// scheduleCmd runs collection and the pipeline on cron schedules.
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run collection and the pipeline on a schedule",
	Long: `Starts a scheduler that collects prices after market close and then
runs the ranking pipeline. Blocks until interrupted.

Example:
  go run ./cmd/quantpipe schedule
  go run ./cmd/quantpipe schedule --pipeline-cron "0 30 16 * * MON-FRI"`,
	RunE: runSchedule,
}

var (
	collectCron  string
	pipelineCron string
)

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVar(&collectCron, "collect-cron", "0 0 16 * * MON-FRI", "cron schedule for price collection (with seconds)")
	scheduleCmd.Flags().StringVar(&pipelineCron, "pipeline-cron", "0 30 16 * * MON-FRI", "cron schedule for the ranking pipeline (with seconds)")
}

func runSchedule(cmd *cobra.Command, args []string) error {
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

	// 4. Collection job
	httpClient := httputil.New(log).WithRateLimit(cfg.Naver.RatePerSec)
	client := naver.NewClient(httpClient, cfg.Naver, log)
	repo := indicators.NewRepository(db.Pool)
	col := collector.NewCollector(client, repo, log)

	collectJob := jobs.NewCollectJob(col, collector.Config{
		Market: "KOSPI",
		Pages:  cfg.Naver.ListingPages,
		Days:   30, // daily top-up, not a backfill
	}, collectCron)

	// 5. Pipeline job
	orchestrator, err := buildOrchestrator(cfg, db, log)
	if err != nil {
		return err
	}
	pipelineJob := jobs.NewPipelineJob(orchestrator, pipelineCron)

	// 6. Schedule and block
	sched := scheduler.New(log)
	if err := sched.AddJob(collectJob); err != nil {
		return err
	}
	if err := sched.AddJob(pipelineJob); err != nil {
		return err
	}

	sched.Start()
	fmt.Println("Scheduler running. Press Ctrl+C to stop.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}
