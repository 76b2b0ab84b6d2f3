package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"RateBoard/internal/model"
	"RateBoard/internal/repository"
)

// RatesAPIFetcher implements HistoryFetcher against a rates REST endpoint that
// returns a JSON array of {timestamp, cost} or {date, price} entries.
type RatesAPIFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRatesAPIFetcher creates a fetcher for the /api/v1/rates/ endpoint.
func NewRatesAPIFetcher(baseURL, apiKey, proxyURL string) *RatesAPIFetcher {
	return &RatesAPIFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *RatesAPIFetcher) Name() string { return "rates-api" }

func (f *RatesAPIFetcher) Supports(string) bool { return true }

func (f *RatesAPIFetcher) FetchHistory(ctx context.Context, code string) (*model.CurrencyRecord, error) {
	endpoint := fmt.Sprintf("%s/api/v1/rates/?short_name=%s", f.BaseURL, url.QueryEscape(strings.ToUpper(code)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rates: %w", err)
	}
	return repository.Normalize(code, body)
}
