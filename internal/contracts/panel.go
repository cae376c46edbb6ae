package contracts

import (
	"fmt"
	"time"
)

// IndicatorRow holds the computed indicator values for one (symbol, date) key.
type IndicatorRow struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`

	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`

	// Oscillators
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	MACDHist   float64 `json:"macd_hist"`

	// Momentum
	Return1D  float64 `json:"return_1d"`
	Return5D  float64 `json:"return_5d"`
	Return20D float64 `json:"return_20d"`

	// Context
	Volatility20D float64 `json:"volatility_20d"`
	VolumeRatio   float64 `json:"volume_ratio"`

	// Divergence flags from price/RSI swing comparison
	BullishDivergence bool `json:"bullish_divergence"`
	BearishDivergence bool `json:"bearish_divergence"`
}

// IndicatorPanel is the per-symbol, per-date indicator table produced once per
// run. Rows are grouped by symbol with dates ascending inside each group. The
// orchestrator treats the panel as read-only after construction.
type IndicatorPanel struct {
	AsOf time.Time      `json:"as_of"`
	Rows []IndicatorRow `json:"rows"`
}

// Empty reports whether the panel has no rows.
func (p *IndicatorPanel) Empty() bool {
	return p == nil || len(p.Rows) == 0
}

// Validate checks the panel's composite key: every row carries both key
// fields, (symbol, date) is unique, and dates are strictly ascending within
// each symbol group.
func (p *IndicatorPanel) Validate() error {
	if p.Empty() {
		return fmt.Errorf("panel has no rows")
	}

	seen := make(map[string]struct{}, len(p.Rows))
	lastDate := make(map[string]time.Time)

	for i, row := range p.Rows {
		if row.Symbol == "" {
			return fmt.Errorf("row %d: missing symbol", i)
		}
		if row.Date.IsZero() {
			return fmt.Errorf("row %d (%s): missing date", i, row.Symbol)
		}

		key := row.Symbol + "|" + row.Date.Format("2006-01-02")
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate key (%s, %s)", row.Symbol, row.Date.Format("2006-01-02"))
		}
		seen[key] = struct{}{}

		if prev, ok := lastDate[row.Symbol]; ok && !row.Date.After(prev) {
			return fmt.Errorf("dates not ascending for %s at %s", row.Symbol, row.Date.Format("2006-01-02"))
		}
		lastDate[row.Symbol] = row.Date
	}

	return nil
}

// Symbols returns the distinct symbols in first-appearance order.
func (p *IndicatorPanel) Symbols() []string {
	if p == nil {
		return nil
	}
	symbols := make([]string, 0)
	seen := make(map[string]struct{})
	for _, row := range p.Rows {
		if _, ok := seen[row.Symbol]; !ok {
			seen[row.Symbol] = struct{}{}
			symbols = append(symbols, row.Symbol)
		}
	}
	return symbols
}

// Series returns the chronological rows for one symbol.
func (p *IndicatorPanel) Series(symbol string) []IndicatorRow {
	if p == nil {
		return nil
	}
	var series []IndicatorRow
	for _, row := range p.Rows {
		if row.Symbol == symbol {
			series = append(series, row)
		}
	}
	return series
}

// Latest returns the most recent row for one symbol.
func (p *IndicatorPanel) Latest(symbol string) (IndicatorRow, bool) {
	series := p.Series(symbol)
	if len(series) == 0 {
		return IndicatorRow{}, false
	}
	return series[len(series)-1], true
}
