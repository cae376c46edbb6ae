package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minjae-dev/quantpipe/internal/external/naver"
	"github.com/minjae-dev/quantpipe/internal/indicators"
	"github.com/minjae-dev/quantpipe/pkg/logger"
)

// Collector pulls daily prices for the listed universe into the price store.
// The ranking pipeline only reads the store; collection is a separate step so
// a scrape hiccup never interferes with a ranking run.
type Collector struct {
	client *naver.Client
	repo   *indicators.Repository
	logger *logger.Logger
}

// Config holds collector run parameters.
type Config struct {
	Market  string
	Pages   int
	Days    int
	Workers int
}

// NewCollector creates a new Collector.
func NewCollector(client *naver.Client, repo *indicators.Repository, log *logger.Logger) *Collector {
	return &Collector{
		client: client,
		repo:   repo,
		logger: log.WithField("module", "collector"),
	}
}

// FetchResult is the per-symbol outcome of a collection run.
type FetchResult struct {
	Symbol     string
	PriceCount int
	Error      error
}

// Run collects the listing and then daily prices for each symbol through a
// worker pool. Per-symbol failures are recorded and do not stop the run.
func (c *Collector) Run(ctx context.Context, cfg Config) ([]FetchResult, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	symbols, err := c.client.FetchSymbols(ctx, cfg.Market, cfg.Pages)
	if err != nil {
		return nil, fmt.Errorf("fetch symbol listing: %w", err)
	}

	to := time.Now()
	from := to.AddDate(0, 0, -cfg.Days)

	c.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"from":    from.Format("2006-01-02"),
		"to":      to.Format("2006-01-02"),
		"workers": cfg.Workers,
	}).Info("Starting price collection")

	symbolCh := make(chan naver.Symbol, len(symbols))
	resultCh := make(chan FetchResult, len(symbols))

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.priceWorker(ctx, workerID, symbolCh, resultCh, from, to)
		}(i)
	}

	for _, s := range symbols {
		symbolCh <- s
	}
	close(symbolCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]FetchResult, 0, len(symbols))
	successCount := 0
	failCount := 0
	for result := range resultCh {
		results = append(results, result)
		if result.Error != nil {
			failCount++
		} else {
			successCount++
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"success": successCount,
		"failed":  failCount,
		"total":   len(results),
	}).Info("Price collection completed")

	return results, nil
}

func (c *Collector) priceWorker(ctx context.Context, workerID int, symbolCh <-chan naver.Symbol, resultCh chan<- FetchResult, from, to time.Time) {
	for symbol := range symbolCh {
		select {
		case <-ctx.Done():
			resultCh <- FetchResult{Symbol: symbol.Code, Error: ctx.Err()}
			return
		default:
		}

		prices, err := c.client.FetchDailyPrices(ctx, symbol.Code, from, to)
		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"symbol": symbol.Code,
			}).Error("Failed to fetch prices")
			resultCh <- FetchResult{Symbol: symbol.Code, Error: err}
			continue
		}

		if err := c.repo.SaveBatch(ctx, prices); err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"symbol": symbol.Code,
			}).Error("Failed to save prices")
			resultCh <- FetchResult{Symbol: symbol.Code, PriceCount: len(prices), Error: err}
			continue
		}

		resultCh <- FetchResult{Symbol: symbol.Code, PriceCount: len(prices)}
	}
}
