package indicators

import (
	"context"
	"fmt"
	"time"

	"github.com/minjae-dev/quantpipe/internal/contracts"
	"github.com/minjae-dev/quantpipe/pkg/logger"
)

// PriceProvider supplies daily price history. Implemented by Repository for
// Postgres and by in-memory fakes in tests.
type PriceProvider interface {
	Symbols(ctx context.Context) ([]string, error)
	History(ctx context.Context, symbol string, limit int) ([]Price, error)
}

// Source builds the indicator panel for a run from the daily price store.
type Source struct {
	prices      PriceProvider
	historyDays int
	logger      *logger.Logger
}

// NewSource creates a panel source. historyDays bounds the price history
// loaded per symbol.
func NewSource(prices PriceProvider, historyDays int, log *logger.Logger) *Source {
	return &Source{
		prices:      prices,
		historyDays: historyDays,
		logger:      log,
	}
}

// FetchPanel loads price history for every symbol, computes the indicator
// series, and assembles the panel. Symbols with too little history are
// skipped, not errors.
func (s *Source) FetchPanel(ctx context.Context) (*contracts.IndicatorPanel, error) {
	symbols, err := s.prices.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}

	panel := &contracts.IndicatorPanel{AsOf: time.Now()}
	skipped := 0

	for _, symbol := range symbols {
		history, err := s.prices.History(ctx, symbol, s.historyDays)
		if err != nil {
			return nil, fmt.Errorf("load history for %s: %w", symbol, err)
		}

		rows := BuildSeries(symbol, history)
		if len(rows) == 0 {
			skipped++
			continue
		}
		panel.Rows = append(panel.Rows, rows...)
	}

	s.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"skipped": skipped,
		"rows":    len(panel.Rows),
	}).Info("Indicator panel built")

	return panel, nil
}
