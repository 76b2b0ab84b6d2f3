// Package series windows a currency's rate history for a chart interval.
// Every function here is pure: records are read, never modified.
package series

import (
	"fmt"
	"log"
	"sort"
	"time"

	"RateBoard/internal/model"
)

// slot is one dated point of a selection. Day is zero for monthly points.
type slot struct {
	year  int
	month time.Month
	day   int
	value float64
}

func (s slot) label() string {
	if s.day > 0 {
		return fmt.Sprintf("%04d-%02d-%02d", s.year, int(s.month), s.day)
	}
	return fmt.Sprintf("%04d-%02d", s.year, int(s.month))
}

type selection struct {
	slots    []slot
	degraded bool
}

func (s selection) labels() []string {
	out := make([]string, len(s.slots))
	for i, sl := range s.slots {
		out[i] = sl.label()
	}
	return out
}

func (s selection) values() []float64 {
	out := make([]float64, len(s.slots))
	for i, sl := range s.slots {
		out[i] = sl.value
	}
	return out
}

// Compute returns the labeled series of rec for the interval.
// Labels and values come from a single selection pass.
func Compute(rec *model.CurrencyRecord, iv model.Interval) model.SeriesResult {
	sel := selectWindow(rec, iv)
	res := assemble(codeOf(rec), iv, uniqueSorted(sel.labels()), sel.values())
	res.Degraded = sel.degraded
	if rec != nil {
		res.Synthetic = rec.Synthetic
	}
	return res
}

// assemble pairs labels with values, truncating both to the shorter length
// when they disagree.
func assemble(code string, iv model.Interval, labels []string, values []float64) model.SeriesResult {
	res := model.SeriesResult{Labels: labels, Values: values}
	if len(labels) != len(values) {
		n := min(len(labels), len(values))
		log.Printf("[ERROR] %s/%s: %d labels for %d values, truncating to %d",
			code, iv, len(labels), len(values), n)
		res.Labels = labels[:n]
		res.Values = values[:n]
		res.LengthMismatch = true
	}
	if len(res.Values) == 0 {
		res.InsufficientData = true
	}
	return res
}

// Labels returns the period labels of rec for the interval: YYYY-MM-DD for a
// daily month, YYYY-MM otherwise. The result is unique and strictly increasing.
func Labels(rec *model.CurrencyRecord, iv model.Interval) []string {
	return uniqueSorted(selectWindow(rec, iv).labels())
}

func codeOf(rec *model.CurrencyRecord) string {
	if rec == nil {
		return "-"
	}
	return rec.Code
}

func uniqueSorted(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func selectWindow(rec *model.CurrencyRecord, iv model.Interval) selection {
	if rec == nil {
		return selection{}
	}
	years := rec.PopulatedYears()

	switch iv {
	case model.OneMonth:
		if rec.Daily != nil && len(rec.Daily.Days) > 0 {
			return selection{slots: dailySlots(rec.Daily)}
		}
		return selection{slots: monthSlots(rec, lastN(years, 1))}
	case model.SixMonths:
		return padLeft(tail(monthSlots(rec, lastN(years, 1)), iv.Months()), iv.Months())
	case model.OneYear:
		return selection{slots: monthSlots(rec, lastN(years, 1))}
	case model.ThreeYears:
		// Year keys, not populated years: an empty recent year still counts.
		return selection{slots: monthSlots(rec, lastN(rec.SortedYears(), 3))}
	default:
		return selection{slots: monthSlots(rec, years)}
	}
}

func lastN(years []int, n int) []int {
	if len(years) > n {
		return years[len(years)-n:]
	}
	return years
}

func tail(slots []slot, n int) []slot {
	if len(slots) > n {
		return slots[len(slots)-n:]
	}
	return slots
}

// monthSlots lists the present months of the given years, in calendar order.
func monthSlots(rec *model.CurrencyRecord, years []int) []slot {
	var out []slot
	for _, y := range years {
		for i, r := range rec.Years[y] {
			if !r.Valid {
				continue
			}
			out = append(out, slot{year: y, month: time.Month(i + 1), value: r.Value})
		}
	}
	return out
}

// dailySlots gap-fills the daily series. Nil means every day was absent.
func dailySlots(d *model.DailySeries) []slot {
	filled, ok := GapFill(d.Days)
	if !ok {
		return nil
	}
	out := make([]slot, len(filled))
	for i, v := range filled {
		out[i] = slot{year: d.Year, month: d.Month, day: i + 1, value: v}
	}
	return out
}

// GapFill replaces absent rates with the nearest preceding valid value, and
// leading absent rates with the first valid value. It reports false when no
// rate is valid.
func GapFill(rates []model.Rate) ([]float64, bool) {
	out := make([]float64, len(rates))
	first := -1
	var last float64
	for i, r := range rates {
		if r.Valid {
			last = r.Value
			if first < 0 {
				first = i
			}
		}
		if first >= 0 {
			out[i] = last
		}
	}
	if first < 0 {
		return nil, false
	}
	for i := 0; i < first; i++ {
		out[i] = rates[first].Value
	}
	return out, true
}

// padLeft repeats the first value over the calendar months preceding it until
// the selection holds n points.
func padLeft(slots []slot, n int) selection {
	if len(slots) == 0 || len(slots) >= n {
		return selection{slots: slots}
	}
	first := slots[0]
	missing := n - len(slots)
	out := make([]slot, 0, n)
	for k := missing; k > 0; k-- {
		t := time.Date(first.year, first.month-time.Month(k), 1, 0, 0, 0, 0, time.UTC)
		out = append(out, slot{year: t.Year(), month: t.Month(), value: first.value})
	}
	out = append(out, slots...)
	return selection{slots: out, degraded: true}
}
