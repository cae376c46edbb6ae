package naver

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Symbol is one listed stock from the market-cap listing pages.
type Symbol struct {
	Code string
	Name string
}

// FetchSymbols scrapes the market-cap listing for the top symbols of a
// market. Pages are 50 symbols each on Naver.
func (c *Client) FetchSymbols(ctx context.Context, market string, pages int) ([]Symbol, error) {
	sosok := "0" // KOSPI
	if strings.EqualFold(market, "KOSDAQ") {
		sosok = "1"
	}

	var symbols []Symbol
	for page := 1; page <= pages; page++ {
		params := url.Values{}
		params.Set("sosok", sosok)
		params.Set("page", strconv.Itoa(page))

		html, err := c.fetchBody(ctx, c.baseURL, "/sise/sise_market_sum.naver", params)
		if err != nil {
			return nil, fmt.Errorf("fetch listing page %d: %w", page, err)
		}

		pageSymbols, err := parseListing(html)
		if err != nil {
			return nil, fmt.Errorf("parse listing page %d: %w", page, err)
		}
		symbols = append(symbols, pageSymbols...)
	}

	c.logger.WithFields(map[string]interface{}{
		"market":  market,
		"pages":   pages,
		"symbols": len(symbols),
	}).Info("Fetched symbol listing")

	return symbols, nil
}

// parseListing extracts symbol codes and names from the listing table. Rows
// without an item link are spacers and skipped.
func parseListing(html string) ([]Symbol, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var symbols []Symbol
	doc.Find("table.type_2 tbody tr").Each(func(i int, row *goquery.Selection) {
		link := row.Find("a.tltle")
		if link.Length() == 0 {
			return
		}

		href, ok := link.Attr("href")
		if !ok {
			return
		}

		// href format: /item/main.naver?code=005930
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		code := u.Query().Get("code")
		if code == "" {
			return
		}

		symbols = append(symbols, Symbol{
			Code: code,
			Name: strings.TrimSpace(link.Text()),
		})
	})

	return symbols, nil
}
