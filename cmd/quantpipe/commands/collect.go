package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minjae-dev/quantpipe/internal/collector"
	"github.com/minjae-dev/quantpipe/internal/external/naver"
	"github.com/minjae-dev/quantpipe/internal/indicators"
	"github.com/minjae-dev/quantpipe/pkg/config"
	"github.com/minjae-dev/quantpipe/pkg/database"
	"github.com/minjae-dev/quantpipe/pkg/httputil"
	"github.com/minjae-dev/quantpipe/pkg/logger"
)

// collectCmd fetches daily prices into the price store.
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect daily prices for the listed universe",
	Long: `Scrapes the market listing, fetches daily candles for each symbol
and upserts them into the price store.

Example:
  go run ./cmd/quantpipe collect
  go run ./cmd/quantpipe collect --market KOSDAQ --days 400`,
	RunE: runCollect,
}

var (
	collectMarket  string
	collectDays    int
	collectWorkers int
)

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVar(&collectMarket, "market", "KOSPI", "market to collect (KOSPI|KOSDAQ)")
	collectCmd.Flags().IntVar(&collectDays, "days", 400, "calendar days of history to fetch")
	collectCmd.Flags().IntVar(&collectWorkers, "workers", 4, "concurrent fetch workers")
}

func runCollect(cmd *cobra.Command, args []string) error {
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

	// 4. HTTP client with the scrape rate limit
	httpClient := httputil.New(log).WithRateLimit(cfg.Naver.RatePerSec)

	// 5. Wire collector
	client := naver.NewClient(httpClient, cfg.Naver, log)
	repo := indicators.NewRepository(db.Pool)
	col := collector.NewCollector(client, repo, log)

	// 6. Run
	results, err := col.Run(cmd.Context(), collector.Config{
		Market:  collectMarket,
		Pages:   cfg.Naver.ListingPages,
		Days:    collectDays,
		Workers: collectWorkers,
	})
	if err != nil {
		return fmt.Errorf("collection failed: %w", err)
	}

	failed := 0
	saved := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			continue
		}
		saved += r.PriceCount
	}

	fmt.Printf("Collected %d bars across %d symbols (%d failed)\n", saved, len(results), failed)
	return nil
}
