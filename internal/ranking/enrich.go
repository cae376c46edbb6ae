package ranking

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/minjae-dev/quantpipe/internal/contracts"
	"github.com/minjae-dev/quantpipe/internal/strategyconfig"
)

// sortBestFirst orders signals by score descending, symbol ascending on ties.
// The tie-break keeps ranking deterministic across runs.
func sortBestFirst(signals []contracts.RankedSignal) {
	sort.Slice(signals, func(i, j int) bool {
		if !signals[i].Score.Equal(signals[j].Score) {
			return signals[i].Score.GreaterThan(signals[j].Score)
		}
		return signals[i].Symbol < signals[j].Symbol
	})
}

// processForDisplay turns a raw ranking into the display result: merge
// outcome stats at the preferred horizon, drop rows under the score floor,
// drop rows whose stat has too few historical matches, truncate to topN.
// With an empty stats report the enrichment and match filter degrade away;
// the score floor still applies.
func processForDisplay(raw *contracts.RankedSignalSet, stats *contracts.OutcomeStatsReport, filters strategyconfig.Filters, topN int) *contracts.RankedSignalSet {
	out := &contracts.RankedSignalSet{Family: raw.Family}
	minScore := decimal.NewFromFloat(filters.MinScore)

	for _, sig := range raw.Signals {
		if sig.Score.LessThan(minScore) {
			continue
		}

		if stat, ok := stats.Lookup(sig.SignalType, filters.PreferredHorizon); ok {
			if stat.Matches < filters.MinMatches {
				continue
			}
			sig.Horizon = stat.Horizon
			sig.Matches = stat.Matches
			sig.SuccessRate = stat.SuccessRate
			sig.AvgReturn = stat.AvgReturn
		}

		out.Signals = append(out.Signals, sig)
		if len(out.Signals) == topN {
			break
		}
	}

	return out
}

// clamp01 clips to [0, 1]; negative inputs score zero rather than inverting.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
