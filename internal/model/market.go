package model

import (
	"sort"
	"time"
)

// Kind distinguishes crypto assets from fiat currencies.
type Kind string

const (
	KindCrypto Kind = "crypto"
	KindFiat   Kind = "fiat"
)

// Currency is a tracked currency code and its kind.
type Currency struct {
	Code string
	Kind Kind
}

// Rate is a single RUB rate observation. Valid is false for an absent month or day.
type Rate struct {
	Value float64
	Valid bool
}

// Present returns a valid Rate holding v.
func Present(v float64) Rate { return Rate{Value: v, Valid: true} }

// Absent is the explicit missing-value sentinel.
var Absent = Rate{}

// DailySeries holds the day-by-day rates of a single calendar month.
type DailySeries struct {
	Year  int
	Month time.Month
	Days  []Rate // index 0 = day 1
}

// CurrencyRecord is the canonical rate history of one currency.
// It is built once per fetch cycle and never modified afterwards.
type CurrencyRecord struct {
	Code      string
	Kind      Kind
	Years     map[int][]Rate // index 0 = January
	Daily     *DailySeries
	Synthetic bool
}

// SortedYears returns every year key in ascending order.
func (r *CurrencyRecord) SortedYears() []int {
	if r == nil {
		return nil
	}
	years := make([]int, 0, len(r.Years))
	for y := range r.Years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// PopulatedYears returns, ascending, the years holding at least one valid monthly rate.
func (r *CurrencyRecord) PopulatedYears() []int {
	var out []int
	for _, y := range r.SortedYears() {
		for _, v := range r.Years[y] {
			if v.Valid {
				out = append(out, y)
				break
			}
		}
	}
	return out
}

// LatestValue returns the most recent valid monthly rate, if any.
func (r *CurrencyRecord) LatestValue() (float64, bool) {
	years := r.PopulatedYears()
	if len(years) == 0 {
		return 0, false
	}
	months := r.Years[years[len(years)-1]]
	for i := len(months) - 1; i >= 0; i-- {
		if months[i].Valid {
			return months[i].Value, true
		}
	}
	return 0, false
}

// Observation is one dated price as delivered by a history source.
type Observation struct {
	Date  time.Time
	Price float64
}

// PricePoint is a live spot price, replaced on every refresh and never persisted.
type PricePoint struct {
	Code      string
	RUB       float64
	Source    string
	FetchedAt time.Time
}
