package model

// SeriesResult is a labeled, windowed rate series ready for charting.
// Labels and Values always have the same length.
type SeriesResult struct {
	Labels []string
	Values []float64

	InsufficientData bool // no usable values for the window
	Degraded         bool // padded to reach the window length
	Synthetic        bool // built from placeholder data, not fetched rates
	LengthMismatch   bool // labels and values disagreed and were truncated
}

// Len returns the number of points in the series.
func (s SeriesResult) Len() int { return len(s.Values) }

// StatsSummary holds descriptive statistics of a series.
// Insufficient is set instead of NaN values when there was nothing to measure.
type StatsSummary struct {
	Mean         float64
	Median       float64
	Outliers     int
	Insufficient bool
}
