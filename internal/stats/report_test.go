package stats

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minjae-dev/quantpipe/internal/contracts"
	"github.com/minjae-dev/quantpipe/internal/indicators"
	"github.com/minjae-dev/quantpipe/pkg/logger"
)

type fakePrices struct {
	histories map[string][]indicators.Price
	err       error
}

func (f *fakePrices) Symbols(ctx context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	symbols := make([]string, 0, len(f.histories))
	for s := range f.histories {
		symbols = append(symbols, s)
	}
	return symbols, nil
}

func (f *fakePrices) History(ctx context.Context, symbol string, limit int) ([]indicators.Price, error) {
	return f.histories[symbol], nil
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, "error")
}

func risingHistory(symbol string, n int) []indicators.Price {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prices := make([]indicators.Price, n)
	price := 100.0
	for i := 0; i < n; i++ {
		prices[i] = indicators.Price{
			Symbol: symbol,
			Date:   start.AddDate(0, 0, i),
			Close:  price,
			Volume: 1000,
		}
		price *= 1.01
	}
	return prices
}

func TestEngine_GenerateReport(t *testing.T) {
	prices := &fakePrices{histories: map[string][]indicators.Price{
		"005930": risingHistory("005930", 90),
	}}
	engine := NewEngine(prices, 260, testLogger())

	report, err := engine.GenerateReport(context.Background(), contracts.StatsConfig{
		Horizons:         []int{3, 5},
		SuccessThreshold: 0.001,
	})
	require.NoError(t, err)
	require.False(t, report.Empty())

	for _, stat := range report.Stats {
		assert.Greater(t, stat.Matches, 0)
		// Every forward window of a steady 1% daily rise clears a 0.1%
		// threshold.
		assert.InDelta(t, 1.0, stat.SuccessRate, 1e-9, "signal %s horizon %d", stat.SignalType, stat.Horizon)
		assert.Greater(t, stat.AvgReturn, 0.0)
	}

	// Deterministic row order: signal type, then horizon.
	for i := 1; i < len(report.Stats); i++ {
		prev, cur := report.Stats[i-1], report.Stats[i]
		if prev.SignalType == cur.SignalType {
			assert.Less(t, prev.Horizon, cur.Horizon)
		} else {
			assert.Less(t, prev.SignalType, cur.SignalType)
		}
	}
}

func TestEngine_GenerateReport_HorizonNeedsForwardBars(t *testing.T) {
	prices := &fakePrices{histories: map[string][]indicators.Price{
		"005930": risingHistory("005930", 90),
	}}
	engine := NewEngine(prices, 260, testLogger())

	short, err := engine.GenerateReport(context.Background(), contracts.StatsConfig{
		Horizons:         []int{3},
		SuccessThreshold: 0.001,
	})
	require.NoError(t, err)
	long, err := engine.GenerateReport(context.Background(), contracts.StatsConfig{
		Horizons:         []int{30},
		SuccessThreshold: 0.001,
	})
	require.NoError(t, err)

	// Longer horizons have fewer measurable occurrences: the tail of the
	// series lacks forward bars.
	shortMatches, longMatches := 0, 0
	for _, s := range short.Stats {
		shortMatches += s.Matches
	}
	for _, s := range long.Stats {
		longMatches += s.Matches
	}
	assert.Greater(t, shortMatches, longMatches)
}

func TestEngine_GenerateReport_NoHorizons(t *testing.T) {
	engine := NewEngine(&fakePrices{}, 260, testLogger())
	_, err := engine.GenerateReport(context.Background(), contracts.StatsConfig{})
	assert.Error(t, err)
}

func TestEngine_GenerateReport_SymbolListError(t *testing.T) {
	engine := NewEngine(&fakePrices{err: errors.New("db down")}, 260, testLogger())
	_, err := engine.GenerateReport(context.Background(), contracts.StatsConfig{
		Horizons:         []int{5},
		SuccessThreshold: 0.04,
	})
	assert.Error(t, err)
}

func TestEngine_GenerateReport_ThinHistoryYieldsEmptyReport(t *testing.T) {
	prices := &fakePrices{histories: map[string][]indicators.Price{
		"005930": risingHistory("005930", 20), // inside the warmup window
	}}
	engine := NewEngine(prices, 260, testLogger())

	report, err := engine.GenerateReport(context.Background(), contracts.StatsConfig{
		Horizons:         []int{5},
		SuccessThreshold: 0.04,
	})
	require.NoError(t, err)
	assert.True(t, report.Empty())
}
