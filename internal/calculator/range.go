package calculator

import "math"

// Range returns the lowest and highest finite values of the series.
func Range(values []float64) (low, high float64, err error) {
	s := Finite(values)
	if len(s) == 0 {
		return 0, 0, ErrNoData
	}
	low = math.Inf(1)
	high = math.Inf(-1)
	for _, v := range s {
		if v > high {
			high = v
		}
		if v < low {
			low = v
		}
	}
	return low, high, nil
}

// Position returns where current sits within [low, high], clamped to 0.0~1.0.
// A flat range reports the midpoint.
func Position(current, low, high float64) float64 {
	if high <= low {
		return 0.5
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos
}

// ChangePercent returns the relative change from first to last, in percent.
func ChangePercent(first, last float64) (float64, error) {
	if first == 0 {
		return 0, ErrNoData
	}
	return (last - first) / first * 100, nil
}
