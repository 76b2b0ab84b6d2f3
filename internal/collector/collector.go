package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"RateBoard/internal/model"
)

// errEmptyHistory marks a fetch that succeeded but returned no usable months.
var errEmptyHistory = errors.New("empty history")

// defaultSyntheticBase seeds placeholder histories when no price is known.
const defaultSyntheticBase = 100.0

// Collector orchestrates history and spot fetching and publishes the results to a Store.
type Collector struct {
	Currencies    []model.Currency
	History       []HistoryFetcher
	Spot          []SpotFetcher
	Snapshot      *SnapshotFetcher
	Store         *Store
	Synthesize    bool
	SyntheticDays int
	Now           func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(currencies []model.Currency, history []HistoryFetcher, spot []SpotFetcher, snapshot *SnapshotFetcher, store *Store) *Collector {
	return &Collector{
		Currencies:    currencies,
		History:       history,
		Spot:          spot,
		Snapshot:      snapshot,
		Store:         store,
		SyntheticDays: 3 * 365,
		Now:           time.Now,
	}
}

// Codes lists the tracked currency codes in configuration order.
func (c *Collector) Codes() []string {
	codes := make([]string, len(c.Currencies))
	for i, cur := range c.Currencies {
		codes[i] = cur.Code
	}
	return codes
}

// withKind returns a copy of rec tagged with kind. Fetched records may be
// shared with readers of the previous cycle and are never written.
func withKind(rec *model.CurrencyRecord, kind model.Kind) *model.CurrencyRecord {
	out := *rec
	out.Kind = kind
	return &out
}

// RefreshHistory rebuilds every currency record. A currency whose live fetch
// fails falls back to the snapshot, then to a flagged synthetic record.
func (c *Collector) RefreshHistory(ctx context.Context) error {
	var snapshot map[string]*model.CurrencyRecord
	if c.Snapshot != nil {
		recs, err := c.Snapshot.Load()
		if err != nil {
			log.Printf("[WARN] snapshot unavailable: %v", err)
		} else {
			snapshot = recs
		}
	}

	records := make(map[string]*model.CurrencyRecord, len(c.Currencies))
	for _, cur := range c.Currencies {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := c.fetchHistory(ctx, cur.Code)
		if err == nil {
			records[cur.Code] = withKind(rec, cur.Kind)
			continue
		}
		log.Printf("[WARN] history %s: %v", cur.Code, err)

		if snap, ok := snapshot[cur.Code]; ok {
			log.Printf("[INFO] history %s: using snapshot", cur.Code)
			records[cur.Code] = withKind(snap, cur.Kind)
			continue
		}
		if c.Synthesize {
			log.Printf("[WARN] history %s: no data, using synthetic placeholder", cur.Code)
			records[cur.Code] = SyntheticRecord(cur.Code, cur.Kind, c.syntheticBase(cur.Code), c.Now(), c.SyntheticDays)
		}
	}

	if len(records) == 0 {
		return fmt.Errorf("no currency history available")
	}
	c.Store.SetRecords(records)
	log.Printf("[INFO] history refreshed for %d/%d currencies", len(records), len(c.Currencies))
	return nil
}

func (c *Collector) fetchHistory(ctx context.Context, code string) (*model.CurrencyRecord, error) {
	var errs []error
	for _, f := range c.History {
		if !f.Supports(code) {
			continue
		}
		rec, err := f.FetchHistory(ctx, code)
		if err == nil && len(rec.PopulatedYears()) == 0 {
			err = errEmptyHistory
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Name(), err))
			continue
		}
		return rec, nil
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("no history source for %s", code)
	}
	return nil, errors.Join(errs...)
}

// syntheticBase picks the last known price so placeholders sit near reality.
func (c *Collector) syntheticBase(code string) float64 {
	if p, ok := c.Store.Spot(code); ok && p.RUB > 0 {
		return p.RUB
	}
	if rec, ok := c.Store.Record(code); ok {
		if v, ok := rec.LatestValue(); ok {
			return v
		}
	}
	return defaultSyntheticBase
}

// RefreshSpot queries every spot source concurrently and replaces the stored
// prices. Earlier sources win when several report the same code.
func (c *Collector) RefreshSpot(ctx context.Context) error {
	codes := c.Codes()
	results := make([]map[string]float64, len(c.Spot))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range c.Spot {
		g.Go(func() error {
			prices, err := f.FetchSpot(gctx, codes)
			if err != nil {
				log.Printf("[WARN] spot %s: %v", f.Name(), err)
				return nil
			}
			results[i] = prices
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	now := c.Now()
	points := make(map[string]model.PricePoint)
	failed := 0
	for i := len(c.Spot) - 1; i >= 0; i-- {
		if results[i] == nil {
			failed++
			continue
		}
		for code, rub := range results[i] {
			points[code] = model.PricePoint{Code: code, RUB: rub, Source: c.Spot[i].Name(), FetchedAt: now}
		}
	}
	if len(c.Spot) > 0 && failed == len(c.Spot) {
		return fmt.Errorf("all %d spot sources failed", failed)
	}
	c.Store.SetSpot(points)
	return nil
}
