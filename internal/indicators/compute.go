package indicators

import (
	"math"
	"time"

	"github.com/minjae-dev/quantpipe/internal/contracts"
)

// Indicator parameters. Fixed per run; tuning happens in the strategy layer,
// not here.
const (
	rsiPeriod     = 14
	macdFast      = 12
	macdSlow      = 26
	macdSignalLen = 9
	volWindow     = 20
	volumeWindow  = 20
	divLookback   = 14

	// warmup is the first index at which every indicator is defined.
	warmup = macdSlow + macdSignalLen
)

// Price is one daily OHLCV bar.
type Price struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// BuildSeries computes the full indicator series for one symbol from its
// chronological price history. Rows inside the warmup window are dropped so
// every returned row has all indicators defined.
func BuildSeries(symbol string, prices []Price) []contracts.IndicatorRow {
	n := len(prices)
	if n <= warmup {
		return nil
	}

	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, p := range prices {
		closes[i] = p.Close
		volumes[i] = float64(p.Volume)
	}

	rsi := RSI(closes, rsiPeriod)
	macd, signal, hist := MACD(closes, macdFast, macdSlow, macdSignalLen)
	vol := rollingVolatility(closes, volWindow)
	volRatio := rollingRatio(volumes, volumeWindow)

	rows := make([]contracts.IndicatorRow, 0, n-warmup)
	for i := warmup; i < n; i++ {
		if math.IsNaN(rsi[i]) || math.IsNaN(hist[i]) {
			continue
		}

		bull, bear := divergenceAt(closes, rsi, i, divLookback)

		rows = append(rows, contracts.IndicatorRow{
			Symbol:            symbol,
			Date:              prices[i].Date,
			Close:             prices[i].Close,
			Volume:            prices[i].Volume,
			RSI:               rsi[i],
			MACD:              macd[i],
			MACDSignal:        signal[i],
			MACDHist:          hist[i],
			Return1D:          pctChange(closes, i, 1),
			Return5D:          pctChange(closes, i, 5),
			Return20D:         pctChange(closes, i, 20),
			Volatility20D:     vol[i],
			VolumeRatio:       volRatio[i],
			BullishDivergence: bull,
			BearishDivergence: bear,
		})
	}

	return rows
}

// RSI computes Wilder-smoothed RSI. Values before the seed window are NaN.
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if n <= period {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		diff := closes[i] - closes[i-1]
		if diff > 0 {
			avgGain += diff
		} else {
			avgLoss -= diff
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < n; i++ {
		diff := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if diff > 0 {
			gain = diff
		} else {
			loss = -diff
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}

	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD computes the MACD line, signal line, and histogram.
func MACD(closes []float64, fast, slow, signalLen int) (macd, signal, hist []float64) {
	n := len(closes)
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	macd = nanSlice(n)
	for i := 0; i < n; i++ {
		if !math.IsNaN(emaFast[i]) && !math.IsNaN(emaSlow[i]) {
			macd[i] = emaFast[i] - emaSlow[i]
		}
	}

	signal = emaOver(macd, signalLen)

	hist = nanSlice(n)
	for i := 0; i < n; i++ {
		if !math.IsNaN(macd[i]) && !math.IsNaN(signal[i]) {
			hist[i] = macd[i] - signal[i]
		}
	}

	return macd, signal, hist
}

// EMA computes an exponential moving average seeded with the SMA of the first
// period values.
func EMA(values []float64, period int) []float64 {
	return emaOver(values, period)
}

// emaOver handles series with a NaN prefix: the seed window starts at the
// first defined value.
func emaOver(values []float64, period int) []float64 {
	n := len(values)
	out := nanSlice(n)

	start := 0
	for start < n && math.IsNaN(values[start]) {
		start++
	}
	if n-start < period {
		return out
	}

	var sum float64
	for i := start; i < start+period; i++ {
		sum += values[i]
	}
	prev := sum / float64(period)
	out[start+period-1] = prev

	k := 2.0 / float64(period+1)
	for i := start + period; i < n; i++ {
		prev = values[i]*k + prev*(1-k)
		out[i] = prev
	}

	return out
}

// pctChange returns the fractional change over k bars, 0 when not enough
// history.
func pctChange(closes []float64, i, k int) float64 {
	if i < k || closes[i-k] == 0 {
		return 0
	}
	return closes[i]/closes[i-k] - 1
}

// rollingVolatility is the stddev of 1-day returns over the window.
func rollingVolatility(closes []float64, window int) []float64 {
	n := len(closes)
	out := nanSlice(n)

	rets := make([]float64, n)
	for i := 1; i < n; i++ {
		rets[i] = pctChange(closes, i, 1)
	}

	for i := window; i < n; i++ {
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			sum += rets[j]
		}
		mean := sum / float64(window)

		var sq float64
		for j := i - window + 1; j <= i; j++ {
			d := rets[j] - mean
			sq += d * d
		}
		out[i] = math.Sqrt(sq / float64(window))
	}

	return out
}

// rollingRatio divides each value by its trailing window mean.
func rollingRatio(values []float64, window int) []float64 {
	n := len(values)
	out := nanSlice(n)

	for i := window; i < n; i++ {
		var sum float64
		for j := i - window; j < i; j++ {
			sum += values[j]
		}
		mean := sum / float64(window)
		if mean > 0 {
			out[i] = values[i] / mean
		} else {
			out[i] = 1
		}
	}

	return out
}

// divergenceAt compares the current bar against the price extreme of the
// trailing lookback window: a lower price low with a higher RSI low is
// bullish, a higher price high with a lower RSI high is bearish.
func divergenceAt(closes, rsi []float64, i, lookback int) (bullish, bearish bool) {
	if i < lookback || math.IsNaN(rsi[i]) {
		return false, false
	}

	lowIdx, highIdx := i-lookback, i-lookback
	for j := i - lookback; j < i; j++ {
		if closes[j] < closes[lowIdx] {
			lowIdx = j
		}
		if closes[j] > closes[highIdx] {
			highIdx = j
		}
	}

	if !math.IsNaN(rsi[lowIdx]) && closes[i] < closes[lowIdx] && rsi[i] > rsi[lowIdx] && rsi[i] < 50 {
		bullish = true
	}
	if !math.IsNaN(rsi[highIdx]) && closes[i] > closes[highIdx] && rsi[i] < rsi[highIdx] && rsi[i] > 50 {
		bearish = true
	}

	return bullish, bearish
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
