package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/minjae-dev/quantpipe/internal/indicators"
)

// FetchDailyPrices fetches daily candles for one symbol from the chart API.
// The response is a quoted pseudo-JSON array of [date, open, high, low,
// close, volume, foreign_ratio] rows with a header row first.
func (c *Client) FetchDailyPrices(ctx context.Context, symbol string, from, to time.Time) ([]indicators.Price, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("requestType", "1")
	params.Set("startTime", from.Format("20060102"))
	params.Set("endTime", to.Format("20060102"))
	params.Set("timeframe", "day")

	body, err := c.fetchBody(ctx, c.chartURL, "/siseJson.naver", params)
	if err != nil {
		return nil, fmt.Errorf("fetch daily prices for %s: %w", symbol, err)
	}

	prices, err := parsePriceBody(symbol, body)
	if err != nil {
		return nil, fmt.Errorf("parse daily prices for %s: %w", symbol, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(prices),
	}).Debug("Fetched daily prices")
	return prices, nil
}

func parsePriceBody(symbol, body string) ([]indicators.Price, error) {
	// The endpoint uses single quotes, which encoding/json rejects.
	body = strings.ReplaceAll(strings.TrimSpace(body), "'", "\"")

	var rawRows [][]interface{}
	if err := json.Unmarshal([]byte(body), &rawRows); err != nil {
		return nil, fmt.Errorf("unexpected chart payload: %w", err)
	}

	var prices []indicators.Price
	for i, row := range rawRows {
		if i == 0 || len(row) < 6 {
			continue // header or truncated row
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		tradeDate, err := time.Parse("20060102", strings.Trim(dateStr, "\""))
		if err != nil {
			continue
		}

		prices = append(prices, indicators.Price{
			Symbol: symbol,
			Date:   tradeDate,
			Open:   toFloat(row[1]),
			High:   toFloat(row[2]),
			Low:    toFloat(row[3]),
			Close:  toFloat(row[4]),
			Volume: int64(toFloat(row[5])),
		})
	}
	return prices, nil
}

func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	default:
		return 0
	}
}
