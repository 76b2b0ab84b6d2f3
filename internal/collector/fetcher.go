package collector

import (
	"context"

	"RateBoard/internal/model"
)

// HistoryFetcher loads the RUB rate history of a currency and normalizes it
// into a CurrencyRecord.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, code string) (*model.CurrencyRecord, error)
	Supports(code string) bool
	Name() string
}

// SpotFetcher loads current RUB prices. Codes it does not know are skipped.
type SpotFetcher interface {
	FetchSpot(ctx context.Context, codes []string) (map[string]float64, error)
	Name() string
}
