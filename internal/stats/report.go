package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/minjae-dev/quantpipe/internal/contracts"
	"github.com/minjae-dev/quantpipe/internal/indicators"
	"github.com/minjae-dev/quantpipe/pkg/logger"
)

// Engine measures historical signal outcomes: every past occurrence of a
// signal type is replayed and its forward return checked against the success
// threshold at each horizon. The engine reads the price store independently
// of the panel source; it is a separate collaborator, not a panel consumer.
type Engine struct {
	prices      indicators.PriceProvider
	historyDays int
	logger      *logger.Logger
}

// NewEngine creates an outcome-stats engine.
func NewEngine(prices indicators.PriceProvider, historyDays int, log *logger.Logger) *Engine {
	return &Engine{
		prices:      prices,
		historyDays: historyDays,
		logger:      log,
	}
}

type outcomeKey struct {
	signalType string
	horizon    int
}

type outcomeAgg struct {
	matches   int
	successes int
	sumReturn float64
}

// GenerateReport builds the outcome-stats table for the configured horizons
// and success threshold.
func (e *Engine) GenerateReport(ctx context.Context, cfg contracts.StatsConfig) (*contracts.OutcomeStatsReport, error) {
	if len(cfg.Horizons) == 0 {
		return nil, fmt.Errorf("no horizons configured")
	}

	symbols, err := e.prices.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}

	agg := make(map[outcomeKey]*outcomeAgg)

	for _, symbol := range symbols {
		history, err := e.prices.History(ctx, symbol, e.historyDays)
		if err != nil {
			return nil, fmt.Errorf("load history for %s: %w", symbol, err)
		}

		series := indicators.BuildSeries(symbol, history)
		e.accumulate(agg, series, cfg)
	}

	report := &contracts.OutcomeStatsReport{GeneratedAt: time.Now()}
	for key, a := range agg {
		report.Stats = append(report.Stats, contracts.OutcomeStat{
			SignalType:  key.signalType,
			Horizon:     key.horizon,
			Matches:     a.matches,
			SuccessRate: float64(a.successes) / float64(a.matches),
			AvgReturn:   a.sumReturn / float64(a.matches),
		})
	}

	// Deterministic row order
	sort.Slice(report.Stats, func(i, j int) bool {
		if report.Stats[i].SignalType != report.Stats[j].SignalType {
			return report.Stats[i].SignalType < report.Stats[j].SignalType
		}
		return report.Stats[i].Horizon < report.Stats[j].Horizon
	})

	e.logger.WithFields(map[string]interface{}{
		"symbols": len(symbols),
		"entries": len(report.Stats),
	}).Info("Outcome stats report generated")

	return report, nil
}

// accumulate replays one symbol's series. An occurrence at index i is
// measured for horizon h only when h forward bars exist; success means the
// best forward close return reaches the threshold within the horizon.
func (e *Engine) accumulate(agg map[outcomeKey]*outcomeAgg, series []contracts.IndicatorRow, cfg contracts.StatsConfig) {
	for i, row := range series {
		labels := []string{contracts.ClassifyMomentum(row)}
		if revType, ok := contracts.ClassifyReversal(row); ok {
			labels = append(labels, revType)
		}

		for _, h := range cfg.Horizons {
			if i+h >= len(series) {
				continue
			}

			best := 0.0
			for j := i + 1; j <= i+h; j++ {
				ret := series[j].Close/row.Close - 1
				if ret > best {
					best = ret
				}
			}
			endReturn := series[i+h].Close/row.Close - 1

			for _, label := range labels {
				key := outcomeKey{signalType: label, horizon: h}
				a, ok := agg[key]
				if !ok {
					a = &outcomeAgg{}
					agg[key] = a
				}
				a.matches++
				if best >= cfg.SuccessThreshold {
					a.successes++
				}
				a.sumReturn += endReturn
			}
		}
	}
}
