package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"RateBoard/internal/model"
)

var (
	yearKey  = regexp.MustCompile(`^\d{4}$`)
	dailyKey = regexp.MustCompile(`^daily_(\d{4})_(\d{2})$`)
)

// rawEntry is one element of a dated price array. Both the public export
// shape {date, price} and the rates API shape {timestamp, cost} are accepted.
type rawEntry struct {
	Date      string          `json:"date"`
	Timestamp string          `json:"timestamp"`
	Price     json.RawMessage `json:"price"`
	Cost      json.RawMessage `json:"cost"`
}

// Normalize turns a raw rate payload into a CurrencyRecord.
// Bad individual entries are skipped and logged; only an unrecognized
// top-level shape is reported as a DataFormatError.
func Normalize(code string, raw []byte) (*model.CurrencyRecord, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return newRecord(code), nil
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, formatError(code, "decode array payload", err)
		}
		return FromObservations(code, parseEntries(code, items)), nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, formatError(code, "decode object payload", err)
		}
		return fromYearly(code, obj)
	default:
		return nil, formatError(code, "payload is neither an array nor an object", nil)
	}
}

func newRecord(code string) *model.CurrencyRecord {
	return &model.CurrencyRecord{
		Code:  strings.ToUpper(code),
		Years: make(map[int][]model.Rate),
	}
}

func parseEntries(code string, items []json.RawMessage) []model.Observation {
	obs := make([]model.Observation, 0, len(items))
	for i, item := range items {
		var e rawEntry
		if err := json.Unmarshal(item, &e); err != nil {
			log.Printf("[WARN] %s: skip entry %d: %v", code, i, err)
			continue
		}
		dateStr := e.Date
		if dateStr == "" {
			dateStr = e.Timestamp
		}
		date, err := parseDate(dateStr)
		if err != nil {
			log.Printf("[WARN] %s: skip entry %d: %v", code, i, err)
			continue
		}
		priceRaw := e.Price
		if len(priceRaw) == 0 {
			priceRaw = e.Cost
		}
		price, err := parsePrice(priceRaw)
		if err != nil {
			log.Printf("[WARN] %s: skip entry %d (%s): %v", code, i, dateStr, err)
			continue
		}
		obs = append(obs, model.Observation{Date: date, Price: price})
	}
	return obs
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < 10 {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	t, err := time.Parse("2006-01-02", s[:10])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

var errMissingPrice = errors.New("missing price")

// parsePrice accepts a JSON number or a numeric string, with either a dot or a comma as decimal separator.
func parsePrice(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errMissingPrice
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, fmt.Errorf("invalid price %s", raw)
		}
		text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", text)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite price %q", text)
	}
	return v, nil
}

type monthKey struct {
	year  int
	month time.Month
}

func (k monthKey) after(o monthKey) bool {
	return k.year > o.year || (k.year == o.year && k.month > o.month)
}

// FromObservations groups dated prices into a CurrencyRecord. Each month holds
// the mean of its observations; the most recent month also fills the daily series.
func FromObservations(code string, obs []model.Observation) *model.CurrencyRecord {
	rec := newRecord(code)

	var latest monthKey
	valid := make([]model.Observation, 0, len(obs))
	for _, o := range obs {
		if math.IsNaN(o.Price) || math.IsInf(o.Price, 0) {
			log.Printf("[WARN] %s: skip non-finite price on %s", rec.Code, o.Date.Format("2006-01-02"))
			continue
		}
		valid = append(valid, o)
		k := monthKey{o.Date.Year(), o.Date.Month()}
		if k.after(latest) {
			latest = k
		}
	}
	if len(valid) == 0 {
		return rec
	}

	type acc struct {
		sum float64
		n   int
	}
	months := make(map[monthKey]*acc)
	days := make(map[int]model.Observation)
	for _, o := range valid {
		k := monthKey{o.Date.Year(), o.Date.Month()}
		a := months[k]
		if a == nil {
			a = &acc{}
			months[k] = a
		}
		a.sum += o.Price
		a.n++
		if k == latest {
			d := o.Date.Day()
			if prev, ok := days[d]; !ok || !o.Date.Before(prev.Date) {
				days[d] = o
			}
		}
	}

	for k, a := range months {
		seq := rec.Years[k.year]
		if need := int(k.month); len(seq) < need {
			seq = append(seq, make([]model.Rate, need-len(seq))...)
		}
		seq[k.month-1] = model.Present(a.sum / float64(a.n))
		rec.Years[k.year] = seq
	}

	lastDay := 0
	for d := range days {
		if d > lastDay {
			lastDay = d
		}
	}
	daily := &model.DailySeries{Year: latest.year, Month: latest.month, Days: make([]model.Rate, lastDay)}
	for d, o := range days {
		daily.Days[d-1] = model.Present(o.Price)
	}
	rec.Daily = daily
	return rec
}

func fromYearly(code string, obj map[string]json.RawMessage) (*model.CurrencyRecord, error) {
	rec := newRecord(code)
	recognized := 0
	var dailyKeys []string

	for key, val := range obj {
		switch {
		case yearKey.MatchString(key):
			recognized++
			year, _ := strconv.Atoi(key)
			seq, err := parseSlots(rec.Code, key, val, 12)
			if err != nil {
				log.Printf("[WARN] %s: skip year %s: %v", rec.Code, key, err)
				continue
			}
			rec.Years[year] = seq
		case dailyKey.MatchString(key):
			recognized++
			dailyKeys = append(dailyKeys, key)
		default:
			log.Printf("[WARN] %s: ignore unknown key %q", rec.Code, key)
		}
	}
	if len(obj) > 0 && recognized == 0 {
		return nil, formatError(code, "object has no year or daily keys", nil)
	}

	if len(dailyKeys) > 0 {
		sort.Strings(dailyKeys)
		key := dailyKeys[len(dailyKeys)-1]
		daily, err := parseDaily(rec, key, obj[key])
		if err != nil {
			log.Printf("[WARN] %s: drop daily series %s: %v", rec.Code, key, err)
		} else {
			rec.Daily = daily
		}
	}
	return rec, nil
}

func parseDaily(rec *model.CurrencyRecord, key string, raw json.RawMessage) (*model.DailySeries, error) {
	m := dailyKey.FindStringSubmatch(key)
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %02d", month)
	}
	if years := rec.SortedYears(); len(years) > 0 {
		last := years[len(years)-1]
		if year != last && year != last+1 {
			return nil, fmt.Errorf("month %d-%02d does not follow the latest year %d", year, month, last)
		}
	}
	days, err := parseSlots(rec.Code, key, raw, DaysIn(year, time.Month(month)))
	if err != nil {
		return nil, err
	}
	return &model.DailySeries{Year: year, Month: time.Month(month), Days: days}, nil
}

// parseSlots decodes an array of numbers or nulls into at most limit rates.
func parseSlots(code, key string, raw json.RawMessage, limit int) ([]model.Rate, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("expected an array: %w", err)
	}
	if len(items) > limit {
		log.Printf("[WARN] %s: %s has %d values, keeping %d", code, key, len(items), limit)
		items = items[:limit]
	}
	out := make([]model.Rate, len(items))
	for i, item := range items {
		v, err := parsePrice(item)
		if err != nil {
			if !errors.Is(err, errMissingPrice) {
				log.Printf("[WARN] %s: %s[%d] treated as absent: %v", code, key, i, err)
			}
			continue
		}
		out[i] = model.Present(v)
	}
	return out, nil
}

// DaysIn returns the number of days of the given calendar month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
