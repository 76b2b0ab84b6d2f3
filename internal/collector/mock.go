package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"RateBoard/internal/model"
	"RateBoard/internal/repository"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Records map[string]*model.CurrencyRecord
	Prices  map[string]float64
	Err     error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Supports(code string) bool {
	_, ok := m.Records[strings.ToUpper(code)]
	return ok
}

func (m *MockFetcher) FetchHistory(_ context.Context, code string) (*model.CurrencyRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	rec, ok := m.Records[strings.ToUpper(code)]
	if !ok {
		return nil, fmt.Errorf("mock: no history for %s", code)
	}
	return rec, nil
}

func (m *MockFetcher) FetchSpot(_ context.Context, codes []string) (map[string]float64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make(map[string]float64)
	for _, c := range codes {
		if p, ok := m.Prices[strings.ToUpper(c)]; ok {
			out[strings.ToUpper(c)] = p
		}
	}
	return out, nil
}

// SyntheticRecord generates a deterministic placeholder history of the given
// number of days ending at now. The record is flagged Synthetic.
func SyntheticRecord(code string, kind model.Kind, basePrice float64, now time.Time, days int) *model.CurrencyRecord {
	rec := repository.FromObservations(code, generateObservations(basePrice, now, days))
	rec.Kind = kind
	rec.Synthetic = true
	return rec
}

func generateObservations(basePrice float64, now time.Time, count int) []model.Observation {
	obs := make([]model.Observation, count)
	for i := 0; i < count; i++ {
		obs[i] = model.Observation{
			Date:  now.AddDate(0, 0, -(count - 1 - i)),
			Price: basePrice * (1 + float64(i-count/2)*0.0005),
		}
	}
	return obs
}
