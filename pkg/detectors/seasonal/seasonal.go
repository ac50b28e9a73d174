// Package seasonal decomposes a series into trend, seasonal, and residual
// components and flags residual outliers, catching anomalies that a plain
// z-score misses when the metric has a repeating cycle.
package seasonal

import (
	"math"

	"github.com/kpiguard/kpiguard/pkg/detectors"
	"github.com/kpiguard/kpiguard/pkg/stats"
)

// Decomposition holds the additive components of a series:
// value = trend + seasonal + residual. Trend is NaN at the edges where the
// centered moving average is undefined; seasonal and residual are NaN at
// the same positions.
type Decomposition struct {
	Trend    []float64
	Seasonal []float64
	Residual []float64
	Period   int
}

// Decomposer flags residual outliers after classical additive
// decomposition over a fixed period length.
type Decomposer struct {
	period    int
	threshold float64
	bands     severityBands
}

type severityBands struct {
	low, medium, high, critical float64
}

// Option configures a Decomposer.
type Option func(*Decomposer)

// WithPeriod sets the cycle length in samples.
func WithPeriod(n int) Option {
	return func(d *Decomposer) {
		d.period = n
	}
}

// WithThreshold sets the residual cutoff, in standard deviations of the
// residuals, above which a point is flagged.
func WithThreshold(t float64) Option {
	return func(d *Decomposer) {
		d.threshold = t
	}
}

// New creates a seasonal decomposer with the given options. The default
// period of 7 models a weekly cycle in daily samples.
func New(opts ...Option) *Decomposer {
	d := &Decomposer{
		period:    7,
		threshold: 3.0,
		bands:     severityBands{low: 3.0, medium: 3.5, high: 4.0, critical: 5.0},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Method identifies this detector's algorithm.
func (d *Decomposer) Method() detectors.Method {
	return detectors.MethodSeasonal
}

// Period returns the configured cycle length.
func (d *Decomposer) Period() int {
	return d.period
}

// Decompose splits the series into trend + seasonal + residual. The trend
// is a centered moving average over one period; the seasonal component is
// the average detrended value at each position modulo the period,
// normalized to sum to zero over a full cycle. A series shorter than two
// periods cannot produce a stable trend estimate and returns nil.
func (d *Decomposer) Decompose(values []float64) *Decomposition {
	n := len(values)
	if n < 2*d.period {
		return nil
	}

	trend := centeredMovingAverage(values, d.period)

	// Average detrended values by position in the cycle.
	pattern := make([]float64, d.period)
	counts := make([]int, d.period)
	for i := 0; i < n; i++ {
		if math.IsNaN(trend[i]) {
			continue
		}
		pos := i % d.period
		pattern[pos] += values[i] - trend[i]
		counts[pos]++
	}
	for i := range pattern {
		if counts[i] > 0 {
			pattern[i] /= float64(counts[i])
		}
	}

	// Normalize so seasonal effects cancel over one cycle.
	patternMean := stats.Mean(pattern)
	for i := range pattern {
		pattern[i] -= patternMean
	}

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(trend[i]) {
			seasonal[i] = math.NaN()
			residual[i] = math.NaN()
			continue
		}
		seasonal[i] = pattern[i%d.period]
		residual[i] = values[i] - trend[i] - seasonal[i]
	}

	return &Decomposition{
		Trend:    trend,
		Seasonal: seasonal,
		Residual: residual,
		Period:   d.period,
	}
}

// Detect decomposes the series and flags points whose residual magnitude
// exceeds the threshold times the residual standard deviation. Fails
// closed: fewer than two full periods yields an empty result.
func (d *Decomposer) Detect(s detectors.Series) ([]detectors.Anomaly, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	dec := d.Decompose(s.Values)
	if dec == nil {
		return nil, nil
	}

	valid := make([]float64, 0, len(dec.Residual))
	for _, r := range dec.Residual {
		if !math.IsNaN(r) {
			valid = append(valid, r)
		}
	}
	residStd := stats.Std(valid)
	if residStd <= residualFloor(s.Values) {
		// A perfectly repeating series decomposes to residuals that are
		// pure floating-point noise; nothing can be abnormal in it.
		return nil, nil
	}

	var anomalies []detectors.Anomaly
	for i, r := range dec.Residual {
		if math.IsNaN(r) {
			continue
		}
		score := math.Abs(r) / residStd
		if score <= d.threshold {
			continue
		}

		typ := detectors.Spike
		if r < 0 {
			typ = detectors.Drop
		}

		anomalies = append(anomalies, detectors.Anomaly{
			Index:      i,
			Method:     detectors.MethodSeasonal,
			Type:       typ,
			Severity:   d.severity(score),
			Expected:   s.Values[i] - r,
			Actual:     s.Values[i],
			Deviation:  math.Abs(r),
			Confidence: detectors.Confidence(score-d.threshold, len(valid)),
		})
	}
	return anomalies, nil
}

// severity classifies the residual score, which is sigma-like, on the same
// bands as the z-score detector.
func (d *Decomposer) severity(score float64) detectors.Severity {
	switch {
	case score >= d.bands.critical:
		return detectors.SeverityCritical
	case score >= d.bands.high:
		return detectors.SeverityHigh
	case score >= d.bands.medium:
		return detectors.SeverityMedium
	case score >= d.bands.low:
		return detectors.SeverityLow
	default:
		return detectors.SeverityInfo
	}
}

// residualFloor returns the residual spread below which the distribution is
// treated as degenerate: rounding noise scales with the magnitude of the
// input values, so the floor does too.
func residualFloor(values []float64) float64 {
	scale := 1.0
	for _, v := range values {
		if a := math.Abs(v); a > scale {
			scale = a
		}
	}
	return 1e-9 * scale
}

// centeredMovingAverage computes the trend component. Even window lengths
// use the standard 2xMA with half weights on the endpoints so the average
// stays centered; positions within half a window of either edge are NaN.
func centeredMovingAverage(values []float64, window int) []float64 {
	n := len(values)
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}

	half := window / 2
	if window%2 == 0 {
		for i := half; i < n-half; i++ {
			sum := values[i-half]*0.5 + values[i+half]*0.5
			for j := i - half + 1; j < i+half; j++ {
				sum += values[j]
			}
			trend[i] = sum / float64(window)
		}
	} else {
		for i := half; i < n-half; i++ {
			sum := 0.0
			for j := i - half; j <= i+half; j++ {
				sum += values[j]
			}
			trend[i] = sum / float64(window)
		}
	}
	return trend
}
