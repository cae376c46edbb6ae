package ranking

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/minjae-dev/quantpipe/internal/contracts"
	"github.com/minjae-dev/quantpipe/internal/strategyconfig"
	"github.com/minjae-dev/quantpipe/pkg/logger"
)

// MomentumRanker ranks trend-continuation signals. RankRaw is a pure function
// of the panel: no stats, no filtering, no truncation, deterministic order.
type MomentumRanker struct {
	strategy strategyconfig.FamilyConfig
	logger   *logger.Logger
}

// NewMomentumRanker creates a momentum ranker from strategy config.
func NewMomentumRanker(strategy strategyconfig.FamilyConfig, log *logger.Logger) *MomentumRanker {
	return &MomentumRanker{strategy: strategy, logger: log}
}

// Family returns the momentum family label.
func (r *MomentumRanker) Family() string {
	return contracts.FamilyMomentum
}

// RankRaw scores every symbol's latest row and orders the result best-first.
func (r *MomentumRanker) RankRaw(panel *contracts.IndicatorPanel) (*contracts.RankedSignalSet, error) {
	if panel == nil {
		return nil, fmt.Errorf("nil panel")
	}

	set := &contracts.RankedSignalSet{Family: contracts.FamilyMomentum}

	for _, symbol := range panel.Symbols() {
		row, ok := panel.Latest(symbol)
		if !ok {
			continue
		}

		score := r.score(row)
		set.Signals = append(set.Signals, contracts.RankedSignal{
			Symbol:     row.Symbol,
			Date:       row.Date,
			SignalType: contracts.ClassifyMomentum(row),
			Score:      decimal.NewFromFloat(score).Round(4),
			RSI:        row.RSI,
			MACDHist:   row.MACDHist,
			Return20D:  row.Return20D,
		})
	}

	sortBestFirst(set.Signals)

	r.logger.WithFields(map[string]interface{}{
		"family":  contracts.FamilyMomentum,
		"signals": len(set.Signals),
	}).Debug("Raw ranking computed")

	return set, nil
}

// RankProcessed ranks, merges outcome stats at the preferred horizon, filters
// by the display thresholds, and truncates to topN.
func (r *MomentumRanker) RankProcessed(panel *contracts.IndicatorPanel, stats *contracts.OutcomeStatsReport, topN int) (*contracts.RankedSignalSet, error) {
	raw, err := r.RankRaw(panel)
	if err != nil {
		return nil, err
	}

	processed := processForDisplay(raw, stats, r.strategy.Filters, topN)

	r.logger.WithFields(map[string]interface{}{
		"family":   contracts.FamilyMomentum,
		"raw":      raw.Len(),
		"filtered": processed.Len(),
	}).Info("Processed ranking computed")

	return processed, nil
}

// score is the weighted composite on a 0-10 scale.
func (r *MomentumRanker) score(row contracts.IndicatorRow) float64 {
	w := r.strategy.Weights

	trend := clamp01(row.Return20D/0.20) * 10
	osc := clamp01(row.RSI/100) * 10
	volume := clamp01(row.VolumeRatio/3) * 10

	// Bearish divergence against the move voids the confirmation component.
	div := 10.0
	if row.BearishDivergence {
		div = 0
	}

	return w.Trend*trend + w.Oscillator*osc + w.Volume*volume + w.Divergence*div
}
