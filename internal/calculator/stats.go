package calculator

import (
	"errors"
	"math"
	"sort"

	"RateBoard/internal/model"
)

// ErrNoData is returned when a series has no finite values.
var ErrNoData = errors.New("no numeric data")

// outlierFactor scales the IQR to obtain the Tukey fences.
const outlierFactor = 1.5

// Finite returns the finite values of the series, in their original order.
func Finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func sortedFinite(values []float64) ([]float64, error) {
	s := Finite(values)
	if len(s) == 0 {
		return nil, ErrNoData
	}
	sort.Float64s(s)
	return s, nil
}

// Mean returns the arithmetic mean.
func Mean(values []float64) (float64, error) {
	s := Finite(values)
	if len(s) == 0 {
		return 0, ErrNoData
	}
	// Running mean keeps large finite inputs from overflowing a plain sum.
	m := 0.0
	for i, v := range s {
		m += (v - m) / float64(i+1)
	}
	return m, nil
}

// Median returns the middle value, or the average of the two middle values for an even count.
func Median(values []float64) (float64, error) {
	s, err := sortedFinite(values)
	if err != nil {
		return 0, err
	}
	return median(s), nil
}

func median(sorted []float64) float64 {
	n := len(sorted)
	mid := n / 2
	if n%2 != 0 {
		return sorted[mid]
	}
	return midpoint(sorted[mid-1], sorted[mid])
}

func midpoint(a, b float64) float64 {
	return a + (b-a)/2
}

// Quartiles returns Q1 and Q3 using sorted-index positions n/4 and 3n/4.
// When n is divisible by 4 each quartile is the average of the element at the
// position and the one before it.
func Quartiles(values []float64) (q1, q3 float64, err error) {
	s, err := sortedFinite(values)
	if err != nil {
		return 0, 0, err
	}
	q1, q3 = quartiles(s)
	return q1, q3, nil
}

func quartiles(sorted []float64) (q1, q3 float64) {
	n := len(sorted)
	q1i, q3i := n/4, 3*n/4
	if n%4 == 0 {
		return midpoint(sorted[q1i-1], sorted[q1i]), midpoint(sorted[q3i-1], sorted[q3i])
	}
	return sorted[q1i], sorted[q3i]
}

// CountOutliers counts values strictly outside [Q1-1.5*IQR, Q3+1.5*IQR].
func CountOutliers(values []float64) (int, error) {
	s, err := sortedFinite(values)
	if err != nil {
		return 0, err
	}
	return countOutliers(s), nil
}

func countOutliers(sorted []float64) int {
	q1, q3 := quartiles(sorted)
	iqr := q3 - q1
	lower := q1 - outlierFactor*iqr
	upper := q3 + outlierFactor*iqr
	count := 0
	for _, v := range sorted {
		if v < lower || v > upper {
			count++
		}
	}
	return count
}

// ComputeStats summarizes a series. Non-finite entries are ignored; a series
// with nothing left yields the Insufficient variant.
func ComputeStats(values []float64) model.StatsSummary {
	s, err := sortedFinite(values)
	if err != nil {
		return model.StatsSummary{Insufficient: true}
	}
	mean, _ := Mean(s)
	return model.StatsSummary{
		Mean:     mean,
		Median:   median(s),
		Outliers: countOutliers(s),
	}
}
