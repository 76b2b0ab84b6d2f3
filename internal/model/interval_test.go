package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in   string
		want Interval
	}{
		{"1m", OneMonth},
		{" 6M ", SixMonths},
		{"1y", OneYear},
		{"3Y", ThreeYears},
		{"ALL", All},
	}
	for _, tt := range tests {
		got, err := ParseInterval(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range []string{"", "2w", "5y"} {
		_, err := ParseInterval(bad)
		assert.Error(t, err, bad)
	}
}

func TestIntervalMonths(t *testing.T) {
	assert.Equal(t, []int{1, 6, 12, 36, 0}, []int{
		OneMonth.Months(), SixMonths.Months(), OneYear.Months(), ThreeYears.Months(), All.Months(),
	})
}

func TestCurrencyRecord_PopulatedYearsAndLatest(t *testing.T) {
	rec := &CurrencyRecord{Years: map[int][]Rate{
		2025: {Absent, Absent},
		2023: {Present(1), Present(2)},
		2024: {Present(3), Absent, Present(4), Absent},
	}}
	assert.Equal(t, []int{2023, 2024, 2025}, rec.SortedYears())
	assert.Equal(t, []int{2023, 2024}, rec.PopulatedYears())

	v, ok := rec.LatestValue()
	require.True(t, ok)
	assert.Equal(t, 4.0, v)

	var empty *CurrencyRecord
	assert.Empty(t, empty.PopulatedYears())
	_, ok = empty.LatestValue()
	assert.False(t, ok)
}
