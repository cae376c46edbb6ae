package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePrices(symbol string, closes []float64) []Price {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prices := make([]Price, len(closes))
	for i, c := range closes {
		prices[i] = Price{
			Symbol: symbol,
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return prices
}

func risingCloses(n int) []float64 {
	closes := make([]float64, n)
	price := 100.0
	for i := range closes {
		closes[i] = price
		price *= 1.01
	}
	return closes
}

func TestRSI_AllGains(t *testing.T) {
	rsi := RSI(risingCloses(30), 14)

	// Seed window is undefined.
	for i := 0; i < 14; i++ {
		assert.True(t, math.IsNaN(rsi[i]), "index %d should be NaN", i)
	}
	// A series with no down days pegs RSI at 100.
	for i := 14; i < 30; i++ {
		assert.InDelta(t, 100.0, rsi[i], 1e-9, "index %d", i)
	}
}

func TestRSI_TooShort(t *testing.T) {
	rsi := RSI([]float64{100, 101, 102}, 14)
	for _, v := range rsi {
		assert.True(t, math.IsNaN(v))
	}
}

func TestEMA_SeedIsSMA(t *testing.T) {
	values := []float64{2, 4, 6, 8, 10}
	ema := EMA(values, 3)

	assert.True(t, math.IsNaN(ema[0]))
	assert.True(t, math.IsNaN(ema[1]))
	// Seed at index period-1 is the SMA of the first period values.
	assert.InDelta(t, 4.0, ema[2], 1e-9)
	// k = 2/(3+1) = 0.5
	assert.InDelta(t, 8*0.5+4*0.5, ema[3], 1e-9)
}

func TestMACD_DefinedAfterWarmup(t *testing.T) {
	closes := risingCloses(60)
	macd, signal, hist := MACD(closes, 12, 26, 9)

	// Signal needs slow EMA plus its own seed window.
	firstDefined := 26 + 9 - 2
	assert.True(t, math.IsNaN(hist[firstDefined-1]))
	for i := firstDefined; i < 60; i++ {
		require.False(t, math.IsNaN(macd[i]), "macd at %d", i)
		require.False(t, math.IsNaN(signal[i]), "signal at %d", i)
		require.False(t, math.IsNaN(hist[i]), "hist at %d", i)
	}

	// Steadily rising prices keep the fast EMA above the slow one.
	assert.Greater(t, macd[59], 0.0)
}

func TestBuildSeries_WarmupDropped(t *testing.T) {
	// Not enough history: nothing is produced.
	assert.Nil(t, BuildSeries("005930", makePrices("005930", risingCloses(35))))

	prices := makePrices("005930", risingCloses(60))
	rows := BuildSeries("005930", prices)
	require.NotEmpty(t, rows)
	assert.Len(t, rows, 60-35)

	for i, row := range rows {
		assert.Equal(t, "005930", row.Symbol)
		assert.False(t, math.IsNaN(row.RSI), "row %d", i)
		assert.False(t, math.IsNaN(row.MACDHist), "row %d", i)
		assert.False(t, math.IsNaN(row.Volatility20D), "row %d", i)
		assert.False(t, math.IsNaN(row.VolumeRatio), "row %d", i)
		if i > 0 {
			assert.True(t, row.Date.After(rows[i-1].Date))
		}
	}

	// 1% daily rise shows up in the return fields.
	last := rows[len(rows)-1]
	assert.InDelta(t, 0.01, last.Return1D, 1e-6)
	assert.InDelta(t, math.Pow(1.01, 5)-1, last.Return5D, 1e-6)
	assert.InDelta(t, math.Pow(1.01, 20)-1, last.Return20D, 1e-6)
}

func TestPctChange(t *testing.T) {
	closes := []float64{100, 110, 121}
	assert.Equal(t, 0.0, pctChange(closes, 0, 1))
	assert.InDelta(t, 0.10, pctChange(closes, 1, 1), 1e-9)
	assert.InDelta(t, 0.21, pctChange(closes, 2, 2), 1e-9)
}

func TestDivergenceAt(t *testing.T) {
	lookback := 4

	flat := func(v float64, n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = v
		}
		return out
	}

	t.Run("bullish: lower price low, higher rsi low", func(t *testing.T) {
		closes := []float64{100, 95, 97, 96, 94}
		rsi := []float64{40, 25, 35, 33, 32} // window low at index 1 with RSI 25

		bull, bear := divergenceAt(closes, rsi, 4, lookback)
		assert.True(t, bull)
		assert.False(t, bear)
	})

	t.Run("bearish: higher price high, lower rsi high", func(t *testing.T) {
		closes := []float64{100, 105, 103, 104, 106}
		rsi := []float64{60, 75, 68, 70, 65} // window high at index 1 with RSI 75

		bull, bear := divergenceAt(closes, rsi, 4, lookback)
		assert.False(t, bull)
		assert.True(t, bear)
	})

	t.Run("no divergence on flat series", func(t *testing.T) {
		bull, bear := divergenceAt(flat(100, 5), flat(50, 5), 4, lookback)
		assert.False(t, bull)
		assert.False(t, bear)
	})

	t.Run("insufficient history", func(t *testing.T) {
		bull, bear := divergenceAt(flat(100, 3), flat(50, 3), 2, lookback)
		assert.False(t, bull)
		assert.False(t, bear)
	})
}
