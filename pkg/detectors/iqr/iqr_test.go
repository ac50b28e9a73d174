package iqr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpiguard/kpiguard/pkg/detectors"
	"github.com/kpiguard/kpiguard/pkg/detectors/zscore"
)

func makeSeries(values []float64) detectors.Series {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	timestamps := make([]time.Time, len(values))
	for i := range values {
		timestamps[i] = base.AddDate(0, 0, i)
	}
	return detectors.Series{Timestamps: timestamps, Values: values}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name           string
		opts           []Option
		wantMultiplier float64
	}{
		{
			name:           "default configuration",
			opts:           nil,
			wantMultiplier: 1.5,
		},
		{
			name:           "custom multiplier",
			opts:           []Option{WithMultiplier(3.0)},
			wantMultiplier: 3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(tt.opts...)
			assert.Equal(t, tt.wantMultiplier, d.Multiplier())
			assert.Equal(t, detectors.MethodIQR, d.Method())
		})
	}
}

func TestDetectFailsClosed(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{
			name:   "empty series",
			values: nil,
		},
		{
			name:   "below min samples",
			values: []float64{1, 2, 100},
		},
		{
			name:   "constant series has zero IQR",
			values: []float64{7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anomalies, err := New().Detect(makeSeries(tt.values))
			require.NoError(t, err)
			assert.Empty(t, anomalies)
		})
	}
}

func TestDetectSpike(t *testing.T) {
	values := []float64{50, 52, 48, 51, 49, 53, 47, 50, 100, 48, 51, 49}

	anomalies, err := New().Detect(makeSeries(values))
	require.NoError(t, err)
	require.Len(t, anomalies, 1)

	a := anomalies[0]
	assert.Equal(t, 8, a.Index)
	assert.Equal(t, detectors.Spike, a.Type)
	assert.Equal(t, 100.0, a.Actual)
	assert.Greater(t, a.Deviation, 0.0)
}

func TestDetectDrop(t *testing.T) {
	values := []float64{50, 52, 48, 51, 49, 53, 47, 5, 52, 48, 51, 49}

	anomalies, err := New().Detect(makeSeries(values))
	require.NoError(t, err)
	require.Len(t, anomalies, 1)

	a := anomalies[0]
	assert.Equal(t, 7, a.Index)
	assert.Equal(t, detectors.Drop, a.Type)
	assert.Equal(t, 5.0, a.Actual)
}

func TestDetectRejectsMalformedInput(t *testing.T) {
	s := makeSeries([]float64{1, 2, 3})
	s.Timestamps = s.Timestamps[:1]
	_, err := New().Detect(s)
	assert.ErrorIs(t, err, detectors.ErrLengthMismatch)
}

func TestMultiplierMonotonicity(t *testing.T) {
	// A narrower fence detects a superset of what a wider one does.
	values := []float64{50, 52, 48, 51, 49, 53, 47, 50, 100, 48, 51, 60, 44, 49}
	s := makeSeries(values)

	strict, err := New(WithMultiplier(1.0)).Detect(s)
	require.NoError(t, err)
	lenient, err := New(WithMultiplier(3.0)).Detect(s)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(strict), len(lenient))

	strictIdx := make(map[int]bool, len(strict))
	for _, a := range strict {
		strictIdx[a.Index] = true
	}
	for _, a := range lenient {
		assert.True(t, strictIdx[a.Index], "index %d found at k=3.0 but not at k=1.0", a.Index)
	}
}

func TestSeverityBands(t *testing.T) {
	d := New()
	tests := []struct {
		deviation float64
		want      detectors.Severity
	}{
		{0.2, detectors.SeverityInfo},
		{0.5, detectors.SeverityLow},
		{0.9, detectors.SeverityLow},
		{1.0, detectors.SeverityMedium},
		{2.0, detectors.SeverityHigh},
		{3.0, detectors.SeverityCritical},
		{14.0, detectors.SeverityCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.severity(tt.deviation), "deviation=%v", tt.deviation)
	}
}

func TestExpectedRangeContainsNonAnomalies(t *testing.T) {
	values := []float64{50, 52, 48, 51, 49, 53, 47, 50, 100, 48, 51, 49}
	d := New()

	anomalies, err := d.Detect(makeSeries(values))
	require.NoError(t, err)

	flagged := make(map[int]bool)
	for _, a := range anomalies {
		flagged[a.Index] = true
	}

	lower, upper := d.ExpectedRange(values)
	for i, v := range values {
		if flagged[i] {
			continue
		}
		assert.GreaterOrEqual(t, v, lower, "index %d", i)
		assert.LessOrEqual(t, v, upper, "index %d", i)
	}
}

func TestIsOutlier(t *testing.T) {
	values := []float64{50, 52, 48, 51, 49, 53, 47, 50, 50, 48, 51, 49}
	d := New()

	// The candidate need not be part of the series.
	assert.True(t, d.IsOutlier(100, values))
	assert.True(t, d.IsOutlier(5, values))
	assert.False(t, d.IsOutlier(50, values))

	// Fails closed on short or constant baselines.
	assert.False(t, d.IsOutlier(100, []float64{50, 50, 50}))
	assert.False(t, d.IsOutlier(100, []float64{7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7}))
}

func TestConfidenceContract(t *testing.T) {
	d := New()
	values := []float64{50, 52, 48, 51, 49, 53, 47, 50, 100, 48, 51, 49}

	for _, dev := range []float64{0.1, 0.5, 2, 20} {
		c := d.Confidence(values, dev)
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0)
	}

	assert.GreaterOrEqual(t, d.Confidence(values, 3.0), d.Confidence(values, 1.0))
}

func TestStatistics(t *testing.T) {
	values := []float64{50, 52, 48, 51, 49, 53, 47, 50, 100, 48, 51, 49}
	stats := New().Statistics(values)

	assert.Equal(t, 12, stats.Count)
	assert.Equal(t, 47.0, stats.Min)
	assert.Equal(t, 100.0, stats.Max)
	assert.InDelta(t, stats.Q3-stats.Q1, stats.IQR, 1e-9)
	assert.InDelta(t, stats.Q1-1.5*stats.IQR, stats.LowerBound, 1e-9)
	assert.InDelta(t, stats.Q3+1.5*stats.IQR, stats.UpperBound, 1e-9)
}

func TestStatisticsConsistencyAcrossDetectors(t *testing.T) {
	// Both detectors must agree on count, min, and max for the same series.
	values := []float64{50, 52, 48, 51, 49, 53, 47, 50, 100, 48, 51, 49}

	iqrStats := New().Statistics(values)
	zStats := zscore.New().Statistics(values)

	assert.Equal(t, zStats.Count, iqrStats.Count)
	assert.Equal(t, zStats.Min, iqrStats.Min)
	assert.Equal(t, zStats.Max, iqrStats.Max)
	assert.InDelta(t, zStats.Median, iqrStats.Median, 1e-9)
}
