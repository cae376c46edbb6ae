package ranking

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/minjae-dev/quantpipe/internal/contracts"
	"github.com/minjae-dev/quantpipe/internal/strategyconfig"
	"github.com/minjae-dev/quantpipe/pkg/logger"
)

// ReversalRanker ranks mean-reversion setups: oversold bounces and bullish
// divergences. Only qualifying rows enter the ranking at all.
type ReversalRanker struct {
	strategy strategyconfig.FamilyConfig
	logger   *logger.Logger
}

// NewReversalRanker creates a reversal ranker from strategy config.
func NewReversalRanker(strategy strategyconfig.FamilyConfig, log *logger.Logger) *ReversalRanker {
	return &ReversalRanker{strategy: strategy, logger: log}
}

// Family returns the reversal family label.
func (r *ReversalRanker) Family() string {
	return contracts.FamilyReversal
}

// RankRaw scores every symbol's latest row that qualifies as a reversal setup
// and orders the result best-first.
func (r *ReversalRanker) RankRaw(panel *contracts.IndicatorPanel) (*contracts.RankedSignalSet, error) {
	if panel == nil {
		return nil, fmt.Errorf("nil panel")
	}

	set := &contracts.RankedSignalSet{Family: contracts.FamilyReversal}

	for _, symbol := range panel.Symbols() {
		row, ok := panel.Latest(symbol)
		if !ok {
			continue
		}

		signalType, qualifies := contracts.ClassifyReversal(row)
		if !qualifies {
			continue
		}

		score := r.score(row)
		set.Signals = append(set.Signals, contracts.RankedSignal{
			Symbol:     row.Symbol,
			Date:       row.Date,
			SignalType: signalType,
			Score:      decimal.NewFromFloat(score).Round(4),
			RSI:        row.RSI,
			MACDHist:   row.MACDHist,
			Return20D:  row.Return20D,
		})
	}

	sortBestFirst(set.Signals)

	r.logger.WithFields(map[string]interface{}{
		"family":  contracts.FamilyReversal,
		"signals": len(set.Signals),
	}).Debug("Raw ranking computed")

	return set, nil
}

// RankProcessed ranks, merges outcome stats at the preferred horizon, filters
// by the display thresholds, and truncates to topN.
func (r *ReversalRanker) RankProcessed(panel *contracts.IndicatorPanel, stats *contracts.OutcomeStatsReport, topN int) (*contracts.RankedSignalSet, error) {
	raw, err := r.RankRaw(panel)
	if err != nil {
		return nil, err
	}

	processed := processForDisplay(raw, stats, r.strategy.Filters, topN)

	r.logger.WithFields(map[string]interface{}{
		"family":   contracts.FamilyReversal,
		"raw":      raw.Len(),
		"filtered": processed.Len(),
	}).Info("Processed ranking computed")

	return processed, nil
}

// score is the weighted composite on a 0-10 scale. Depth of the selloff and
// oversold depth dominate; bullish divergence is the strongest single input.
func (r *ReversalRanker) score(row contracts.IndicatorRow) float64 {
	w := r.strategy.Weights

	osc := clamp01((50-row.RSI)/50) * 10
	trend := clamp01(-row.Return5D/0.10) * 10
	volume := clamp01(row.VolumeRatio/3) * 10

	div := 0.0
	if row.BullishDivergence {
		div = 10
	}

	return w.Trend*trend + w.Oscillator*osc + w.Volume*volume + w.Divergence*div
}
