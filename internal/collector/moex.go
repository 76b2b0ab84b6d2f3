package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// MOEXFetcher implements SpotFetcher using the Moscow Exchange ISS API.
type MOEXFetcher struct {
	BaseURL  string
	Client   *http.Client
	SecIDMap map[string]string // maps ISS security id to currency code
}

// NewMOEXFetcher creates a new MOEX fetcher.
func NewMOEXFetcher(baseURL, proxyURL string) *MOEXFetcher {
	return &MOEXFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  newHTTPClient(proxyURL),
		SecIDMap: map[string]string{
			"USD000UTSTOM": "USD",
			"EUR_RUB__TOM": "EUR",
			"CNYRUB_TOM":   "CNY",
			"AEDRUB_TOD":   "AED",
		},
	}
}

func (f *MOEXFetcher) Name() string { return "moex" }

// issTable is the column/row layout used by every ISS response block.
type issTable struct {
	Columns []string            `json:"columns"`
	Data    [][]json.RawMessage `json:"data"`
}

func (t issTable) column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// FetchSpot returns the previous-session price of every actively traded requested currency.
func (f *MOEXFetcher) FetchSpot(ctx context.Context, codes []string) (map[string]float64, error) {
	wanted := make(map[string]bool, len(codes))
	for _, c := range codes {
		wanted[strings.ToUpper(c)] = true
	}

	var result struct {
		Securities issTable `json:"securities"`
	}
	endpoint := f.BaseURL + "/iss/engines/currency/markets/selt/securities.json"
	if err := getJSON(ctx, f.Client, endpoint, &result); err != nil {
		return nil, fmt.Errorf("moex securities: %w", err)
	}

	table := result.Securities
	secIdx, priceIdx, statusIdx := table.column("SECID"), table.column("PREVPRICE"), table.column("STATUS")
	if secIdx < 0 || priceIdx < 0 || statusIdx < 0 {
		return nil, fmt.Errorf("moex securities: missing columns in %v", table.Columns)
	}

	prices := make(map[string]float64)
	for _, row := range table.Data {
		if len(row) <= max(secIdx, priceIdx, statusIdx) {
			continue
		}
		var secID, status string
		if json.Unmarshal(row[secIdx], &secID) != nil || json.Unmarshal(row[statusIdx], &status) != nil {
			continue
		}
		code, ok := f.SecIDMap[secID]
		if !ok || !wanted[code] || status != "A" {
			continue
		}
		var price *float64
		if err := json.Unmarshal(row[priceIdx], &price); err != nil || price == nil {
			continue
		}
		prices[code] = *price
	}
	return prices, nil
}
