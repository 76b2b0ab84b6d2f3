package series

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateBoard/internal/model"
)

func months(values ...float64) []model.Rate {
	out := make([]model.Rate, len(values))
	for i, v := range values {
		if v < 0 {
			continue // negative marks an absent month in fixtures
		}
		out[i] = model.Present(v)
	}
	return out
}

func fullYear(base float64) []model.Rate {
	out := make([]model.Rate, 12)
	for i := range out {
		out[i] = model.Present(base + float64(i))
	}
	return out
}

func fixtures() map[string]*model.CurrencyRecord {
	return map[string]*model.CurrencyRecord{
		"empty": {Code: "EMPTY", Years: map[int][]model.Rate{}},
		"two-years": {Code: "USD", Years: map[int][]model.Rate{
			2023: fullYear(70),
			2024: fullYear(90),
		}},
		"sparse": {Code: "EUR", Years: map[int][]model.Rate{
			2020: months(1, -1, 3),
			2021: months(-1, -1, -1),
			2022: fullYear(10),
			2023: months(5, -1, 7),
			2025: {},
		}},
		"daily": {Code: "BTC", Years: map[int][]model.Rate{
			2024: fullYear(5_000_000),
			2025: months(6_000_000),
		}, Daily: &model.DailySeries{Year: 2025, Month: time.January, Days: months(-1, -1, 5, -1, 7, -1)}},
		"daily-absent": {Code: "TON", Years: map[int][]model.Rate{
			2025: months(300, 310),
		}, Daily: &model.DailySeries{Year: 2025, Month: time.February, Days: months(-1, -1)}},
		"synthetic": {Code: "AED", Synthetic: true, Years: map[int][]model.Rate{2025: months(25, 26, 27)}},
	}
}

func TestCompute_Invariants(t *testing.T) {
	for name, rec := range fixtures() {
		for _, iv := range model.Intervals {
			res := Compute(rec, iv)
			assert.Len(t, res.Values, len(res.Labels), "%s/%s", name, iv)
			assert.False(t, res.LengthMismatch, "%s/%s", name, iv)
			for i := 1; i < len(res.Labels); i++ {
				assert.Less(t, res.Labels[i-1], res.Labels[i], "%s/%s labels must increase", name, iv)
			}
			assert.Equal(t, res, Compute(rec, iv), "%s/%s must be idempotent", name, iv)
			assert.Equal(t, res.Labels, Labels(rec, iv), "%s/%s", name, iv)
			assert.Equal(t, len(res.Values) == 0, res.InsufficientData, "%s/%s", name, iv)
		}
	}
}

func TestCompute_EmptyRecord(t *testing.T) {
	for _, rec := range []*model.CurrencyRecord{nil, fixtures()["empty"]} {
		for _, iv := range model.Intervals {
			res := Compute(rec, iv)
			assert.True(t, res.InsufficientData, "interval %s", iv)
			assert.Empty(t, res.Values)
			assert.Empty(t, res.Labels)
		}
	}
}

func TestCompute_OneYearUsesMostRecentPopulatedYear(t *testing.T) {
	rec := fixtures()["two-years"]
	res := Compute(rec, model.OneYear)
	require.Len(t, res.Values, 12)
	assert.Equal(t, 90.0, res.Values[0])
	assert.Equal(t, 101.0, res.Values[11])
	assert.Equal(t, "2024-01", res.Labels[0])
	assert.Equal(t, "2024-12", res.Labels[11])

	// An empty 2025 key does not count as the latest year.
	res = Compute(fixtures()["sparse"], model.OneYear)
	assert.Equal(t, []string{"2023-01", "2023-03"}, res.Labels)
	assert.Equal(t, []float64{5, 7}, res.Values)
}

func TestCompute_OneMonthGapFill(t *testing.T) {
	res := Compute(fixtures()["daily"], model.OneMonth)
	assert.Equal(t, []float64{5, 5, 5, 5, 7, 7}, res.Values)
	assert.Equal(t, []string{
		"2025-01-01", "2025-01-02", "2025-01-03", "2025-01-04", "2025-01-05", "2025-01-06",
	}, res.Labels)
	assert.False(t, res.InsufficientData)
}

func TestCompute_OneMonthAllAbsentIsInsufficient(t *testing.T) {
	res := Compute(fixtures()["daily-absent"], model.OneMonth)
	assert.True(t, res.InsufficientData)
	assert.Empty(t, res.Values)
}

func TestCompute_OneMonthFallsBackToLatestYear(t *testing.T) {
	res := Compute(fixtures()["two-years"], model.OneMonth)
	assert.Len(t, res.Values, 12)
	assert.Equal(t, "2024-01", res.Labels[0])

	rec := &model.CurrencyRecord{Code: "CNY", Years: map[int][]model.Rate{2024: months(12.5)},
		Daily: &model.DailySeries{Year: 2024, Month: time.February}}
	res = Compute(rec, model.OneMonth)
	assert.Equal(t, []string{"2024-01"}, res.Labels, "an empty daily series counts as missing")
}

func TestCompute_SixMonths(t *testing.T) {
	res := Compute(fixtures()["two-years"], model.SixMonths)
	assert.Equal(t, []float64{96, 97, 98, 99, 100, 101}, res.Values)
	assert.Equal(t, "2024-07", res.Labels[0])
	assert.False(t, res.Degraded)

	res = Compute(fixtures()["synthetic"], model.SixMonths)
	assert.Equal(t, []float64{25, 25, 25, 25, 26, 27}, res.Values)
	assert.Equal(t, []string{"2024-10", "2024-11", "2024-12", "2025-01", "2025-02", "2025-03"}, res.Labels)
	assert.True(t, res.Degraded)
	assert.True(t, res.Synthetic)
}

func TestCompute_ThreeYearsAndAll(t *testing.T) {
	rec := fixtures()["sparse"]

	// The last three year keys are 2022, 2023 and 2025; 2025 holds no months.
	res := Compute(rec, model.ThreeYears)
	require.Len(t, res.Values, 12+2)
	assert.Equal(t, "2022-01", res.Labels[0])
	assert.Equal(t, "2023-03", res.Labels[len(res.Labels)-1])

	res = Compute(rec, model.All)
	assert.Len(t, res.Values, 16)

	two := fixtures()["two-years"]
	assert.Len(t, Compute(two, model.ThreeYears).Values, 24)
	assert.Len(t, Compute(two, model.All).Values, 24)
}

func TestCompute_ThreeYearsIgnoresOlderDataBehindEmptyYear(t *testing.T) {
	rec := &model.CurrencyRecord{Code: "USD", Years: map[int][]model.Rate{
		2019: months(1, 2),
		2022: months(-1, -1),
		2023: months(5),
		2024: months(6),
	}}
	res := Compute(rec, model.ThreeYears)
	assert.Equal(t, []string{"2023-01", "2024-01"}, res.Labels)
	assert.Equal(t, []float64{5, 6}, res.Values)
}

func TestAssemble_TruncatesMismatchedLengths(t *testing.T) {
	res := assemble("USD", model.OneYear, []string{"2024-01", "2024-02", "2024-03"}, []float64{1, 2})
	assert.True(t, res.LengthMismatch)
	assert.Equal(t, []string{"2024-01", "2024-02"}, res.Labels)
	assert.Equal(t, []float64{1, 2}, res.Values)
	assert.False(t, res.InsufficientData)

	res = assemble("USD", model.OneYear, nil, []float64{1})
	assert.True(t, res.LengthMismatch)
	assert.Empty(t, res.Values)
	assert.True(t, res.InsufficientData)

	res = assemble("USD", model.OneYear, []string{"2024-01"}, []float64{1})
	assert.False(t, res.LengthMismatch)
}

func TestCompute_DoesNotMutateRecord(t *testing.T) {
	rec := fixtures()["daily"]
	before := append([]model.Rate(nil), rec.Daily.Days...)
	Compute(rec, model.OneMonth)
	assert.Equal(t, before, rec.Daily.Days)
}

func TestGapFill(t *testing.T) {
	got, ok := GapFill(months(-1, 2, -1, -1, 4))
	require.True(t, ok)
	assert.Equal(t, []float64{2, 2, 2, 2, 4}, got)

	_, ok = GapFill(months(-1, -1))
	assert.False(t, ok)

	_, ok = GapFill(nil)
	assert.False(t, ok)
}
