package model

import (
	"fmt"
	"strings"
)

// Interval selects the time window of a chart.
type Interval string

const (
	OneMonth   Interval = "1m"
	SixMonths  Interval = "6m"
	OneYear    Interval = "1y"
	ThreeYears Interval = "3y"
	All        Interval = "all"
)

// Intervals lists every supported interval, shortest first.
var Intervals = []Interval{OneMonth, SixMonths, OneYear, ThreeYears, All}

// Months returns the window length in months; 0 means unbounded.
func (i Interval) Months() int {
	switch i {
	case OneMonth:
		return 1
	case SixMonths:
		return 6
	case OneYear:
		return 12
	case ThreeYears:
		return 36
	default:
		return 0
	}
}

// ParseInterval converts a token such as "6m" or "ALL" into an Interval.
func ParseInterval(s string) (Interval, error) {
	iv := Interval(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Intervals {
		if iv == known {
			return iv, nil
		}
	}
	return "", fmt.Errorf("unknown interval %q", s)
}
