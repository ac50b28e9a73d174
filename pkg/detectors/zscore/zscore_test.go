package zscore

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpiguard/kpiguard/pkg/detectors"
)

func makeSeries(values []float64) detectors.Series {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	timestamps := make([]time.Time, len(values))
	for i := range values {
		timestamps[i] = base.AddDate(0, 0, i)
	}
	return detectors.Series{Timestamps: timestamps, Values: values}
}

// spikedSeries builds a length-50 series around mean 100 with one value
// forced to 200 at index 25.
func spikedSeries() detectors.Series {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 100 + 10*math.Sin(float64(i))
	}
	values[25] = 200
	return makeSeries(values)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		opts          []Option
		wantThreshold float64
	}{
		{
			name:          "default configuration",
			opts:          nil,
			wantThreshold: 3.0,
		},
		{
			name:          "custom threshold",
			opts:          []Option{WithThreshold(2.5)},
			wantThreshold: 2.5,
		},
		{
			name:          "multiple options",
			opts:          []Option{WithThreshold(4.0), WithMinSamples(20)},
			wantThreshold: 4.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(tt.opts...)
			assert.Equal(t, tt.wantThreshold, d.Threshold())
			assert.Equal(t, detectors.MethodZScore, d.Method())
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
			values: []float64{1, 2, 3, 100},
		},
		{
			name:   "constant series",
			values: []float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5},
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
	anomalies, err := New(WithThreshold(3.0)).Detect(spikedSeries())
	require.NoError(t, err)
	require.Len(t, anomalies, 1)

	a := anomalies[0]
	assert.Equal(t, 25, a.Index)
	assert.Equal(t, detectors.Spike, a.Type)
	assert.Equal(t, detectors.MethodZScore, a.Method)
	assert.Greater(t, a.Deviation, 3.0)
	assert.Equal(t, 200.0, a.Actual)
	assert.Greater(t, a.Actual, a.Expected)
}

func TestDetectDrop(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 50 + 2*math.Sin(float64(i))
	}
	values[10] = -40

	anomalies, err := New().Detect(makeSeries(values))
	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, 10, anomalies[0].Index)
	assert.Equal(t, detectors.Drop, anomalies[0].Type)
	assert.Less(t, anomalies[0].Deviation, 0.0)
}

func TestDetectRejectsMalformedInput(t *testing.T) {
	s := makeSeries([]float64{1, 2, 3})
	s.Timestamps = s.Timestamps[:2]
	_, err := New().Detect(s)
	assert.ErrorIs(t, err, detectors.ErrLengthMismatch)
}

func TestThresholdMonotonicity(t *testing.T) {
	// A stricter threshold detects a subset of what a lenient one does.
	s := spikedSeries()

	strict, err := New(WithThreshold(2.5)).Detect(s)
	require.NoError(t, err)
	lenient, err := New(WithThreshold(4.0)).Detect(s)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(strict), len(lenient))

	strictIdx := make(map[int]bool, len(strict))
	for _, a := range strict {
		strictIdx[a.Index] = true
	}
	for _, a := range lenient {
		assert.True(t, strictIdx[a.Index], "index %d found at 4.0 but not at 2.5", a.Index)
	}
}

func TestSeverityBands(t *testing.T) {
	d := New()
	tests := []struct {
		absZ float64
		want detectors.Severity
	}{
		{2.5, detectors.SeverityInfo},
		{3.0, detectors.SeverityLow},
		{3.4, detectors.SeverityLow},
		{3.5, detectors.SeverityMedium},
		{4.0, detectors.SeverityHigh},
		{4.9, detectors.SeverityHigh},
		{5.0, detectors.SeverityCritical},
		{12.0, detectors.SeverityCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.severity(tt.absZ), "absZ=%v", tt.absZ)
	}
}

func TestConfidenceContract(t *testing.T) {
	d := New()
	values := spikedSeries().Values

	// Bounded.
	for _, z := range []float64{3.0, 3.5, 5, 50} {
		c := d.Confidence(values, z)
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0)
	}

	// Higher z never lowers confidence.
	assert.GreaterOrEqual(t, d.Confidence(values, 5.0), d.Confidence(values, 3.5))

	// More samples never lower confidence at equal z.
	assert.GreaterOrEqual(t, d.Confidence(values, 3.5), d.Confidence(values[:15], 3.5))
}

func TestStatistics(t *testing.T) {
	stats := New().Statistics([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 8, stats.Count)
	assert.Equal(t, 2.0, stats.Min)
	assert.Equal(t, 9.0, stats.Max)
	assert.InDelta(t, 5.0, stats.Mean, 1e-9)
	assert.InDelta(t, 4.5, stats.Median, 1e-9)
	assert.InDelta(t, 2.0, stats.Std, 1e-9)
	assert.InDelta(t, 4.0, stats.Variance, 1e-9)
}

func TestExpectedValueIsInclusiveMean(t *testing.T) {
	values := []float64{10, 10, 10, 70}
	assert.InDelta(t, 25.0, New().ExpectedValue(values), 1e-9)
}

func TestDetectDoesNotMutateInput(t *testing.T) {
	s := spikedSeries()
	before := make([]float64, len(s.Values))
	copy(before, s.Values)

	_, err := New().Detect(s)
	require.NoError(t, err)
	assert.Equal(t, before, s.Values)
}
