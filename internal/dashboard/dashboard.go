package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"RateBoard/internal/calculator"
	"RateBoard/internal/collector"
	"RateBoard/internal/model"
	"RateBoard/internal/series"
	"RateBoard/internal/settings"
)

// ErrUnknownCurrency is returned when no record exists for the requested code.
var ErrUnknownCurrency = errors.New("unknown currency")

// RecordSource supplies the current records and spot prices.
type RecordSource interface {
	Record(code string) (*model.CurrencyRecord, bool)
	Spot(code string) (model.PricePoint, bool)
}

// State is the user's current selection. It lives outside the core and is
// passed into view building.
type State struct {
	Currency string
	Interval model.Interval
	Color    string
}

// StateFromSettings takes the selection part of the persisted settings.
func StateFromSettings(s settings.Settings) State {
	s = s.Normalize()
	return State{Currency: s.Currency, Interval: s.Interval, Color: s.ChartColor}
}

// ChartView is everything a presenter needs to draw one currency chart.
type ChartView struct {
	Code        string
	Kind        model.Kind
	Title       string
	Color       string
	Interval    model.Interval
	Series      model.SeriesResult
	Stats       model.StatsSummary
	Spot        *model.PricePoint
	Description string
}

// ChartPresenter renders a view. Implementations must not modify the view.
type ChartPresenter interface {
	Present(ctx context.Context, view *ChartView) error
}

// Builder turns records into chart views.
type Builder struct {
	Source     RecordSource
	Synthesize bool
	Now        func() time.Time
}

// NewBuilder creates a view builder over src.
func NewBuilder(src RecordSource, synthesize bool) *Builder {
	return &Builder{Source: src, Synthesize: synthesize, Now: time.Now}
}

// Build computes the labeled series and stats for the selected currency and interval.
func (b *Builder) Build(st State) (*ChartView, error) {
	code := strings.ToUpper(strings.TrimSpace(st.Currency))
	rec, ok := b.Source.Record(code)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, code)
	}

	iv := st.Interval
	if _, err := model.ParseInterval(string(iv)); err != nil {
		iv = model.All
	}

	result := series.Compute(rec, iv)
	var spot *model.PricePoint
	if p, ok := b.Source.Spot(code); ok {
		spot = &p
	}
	if iv == model.OneMonth && result.InsufficientData && b.Synthesize {
		if synth, ok := b.synthesizeMonth(rec, spot); ok {
			result = synth
		}
	}

	return &ChartView{
		Code:        code,
		Kind:        rec.Kind,
		Title:       fmt.Sprintf("%s/RUB · %s", code, IntervalTitle(iv)),
		Color:       st.Color,
		Interval:    iv,
		Series:      result,
		Stats:       calculator.ComputeStats(result.Values),
		Spot:        spot,
		Description: Description(code),
	}, nil
}

// synthesizeMonth builds a flagged placeholder daily series for the current
// month around the last known price.
func (b *Builder) synthesizeMonth(rec *model.CurrencyRecord, spot *model.PricePoint) (model.SeriesResult, bool) {
	base, ok := rec.LatestValue()
	if spot != nil && spot.RUB > 0 {
		base, ok = spot.RUB, true
	}
	if !ok {
		return model.SeriesResult{}, false
	}
	now := b.Now()
	log.Printf("[WARN] %s: no daily data for one month, synthesizing around %.4f", rec.Code, base)
	synth := collector.SyntheticRecord(rec.Code, rec.Kind, base, now, now.Day())
	result := series.Compute(synth, model.OneMonth)
	return result, !result.InsufficientData
}

// Show builds the view for st and hands it to p.
func (b *Builder) Show(ctx context.Context, p ChartPresenter, st State) error {
	view, err := b.Build(st)
	if err != nil {
		return err
	}
	return p.Present(ctx, view)
}

var intervalTitles = map[model.Interval]string{
	model.OneMonth:   "1 месяц",
	model.SixMonths:  "6 месяцев",
	model.OneYear:    "1 год",
	model.ThreeYears: "3 года",
	model.All:        "всё время",
}

// IntervalTitle is the human-readable interval name.
func IntervalTitle(iv model.Interval) string {
	if t, ok := intervalTitles[iv]; ok {
		return t
	}
	return string(iv)
}
