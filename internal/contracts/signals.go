package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Signal families.
const (
	FamilyMomentum = "momentum"
	FamilyReversal = "reversal"
)

// Signal types within each family. Classification lives here so the rankers
// and the outcome-stats engine join on identical labels.
const (
	SignalMomentumBreakout = "momentum_breakout"
	SignalMomentumTrend    = "momentum_trend"
	SignalOversoldBounce   = "oversold_bounce"
	SignalBullishDiv       = "bullish_divergence"
)

// RankedSignal is one row of a ranking result. Enrichment fields are zero on
// the raw path and populated on the processed path when a matching outcome
// stat exists.
type RankedSignal struct {
	Symbol     string          `json:"symbol"`
	Date       time.Time       `json:"date"`
	SignalType string          `json:"signal_type"`
	Score      decimal.Decimal `json:"score"`

	RSI       float64 `json:"rsi"`
	MACDHist  float64 `json:"macd_hist"`
	Return20D float64 `json:"return_20d"`

	// Outcome-stats enrichment (processed path only)
	Horizon     int     `json:"horizon,omitempty"`
	Matches     int     `json:"matches,omitempty"`
	SuccessRate float64 `json:"success_rate,omitempty"`
	AvgReturn   float64 `json:"avg_return,omitempty"`
}

// RankedSignalSet is an ordered, best-first ranking result for one family.
type RankedSignalSet struct {
	Family  string         `json:"family"`
	Signals []RankedSignal `json:"signals"`
}

// Empty reports whether the set has no signals.
func (s *RankedSignalSet) Empty() bool {
	return s == nil || len(s.Signals) == 0
}

// Len returns the number of signals.
func (s *RankedSignalSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Signals)
}

// Head returns a copy of the set truncated to the first n signals. The
// existing order is assumed best-first; no re-sorting happens here.
func (s *RankedSignalSet) Head(n int) *RankedSignalSet {
	if s == nil {
		return nil
	}
	if n < 0 {
		n = 0
	}
	if n > len(s.Signals) {
		n = len(s.Signals)
	}
	out := &RankedSignalSet{Family: s.Family, Signals: make([]RankedSignal, n)}
	copy(out.Signals, s.Signals[:n])
	return out
}

// ClassifyMomentum labels a row for the momentum family.
func ClassifyMomentum(row IndicatorRow) string {
	if row.RSI >= 60 && row.MACDHist > 0 {
		return SignalMomentumBreakout
	}
	return SignalMomentumTrend
}

// ClassifyReversal labels a row for the reversal family. The second return is
// false when the row does not qualify as a reversal setup at all.
func ClassifyReversal(row IndicatorRow) (string, bool) {
	switch {
	case row.BullishDivergence:
		return SignalBullishDiv, true
	case row.RSI <= 35:
		return SignalOversoldBounce, true
	default:
		return "", false
	}
}
