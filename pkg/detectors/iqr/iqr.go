// Package iqr flags points outside the fence [Q1 - k*IQR, Q3 + k*IQR],
// a robust alternative to z-score detection for skewed series.
package iqr

import (
	"github.com/kpiguard/kpiguard/pkg/detectors"
	"github.com/kpiguard/kpiguard/pkg/stats"
)

// SeverityBands holds the cut-points, in IQR units beyond the nearest
// bound, for severity classification. Business-tunable configuration.
type SeverityBands struct {
	Low      float64
	Medium   float64
	High     float64
	Critical float64
}

// DefaultSeverityBands returns the standard IQR severity cut-points.
func DefaultSeverityBands() SeverityBands {
	return SeverityBands{Low: 0.5, Medium: 1.0, High: 2.0, Critical: 3.0}
}

// Detector flags anomalies by distance outside the interquartile fence.
type Detector struct {
	multiplier float64
	minSamples int
	bands      SeverityBands
}

// Statistics is a descriptive snapshot of a series as seen by the IQR
// detector. Recomputed on every call, never cached.
type Statistics struct {
	Count      int     `json:"count"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Q1         float64 `json:"q1"`
	Median     float64 `json:"median"`
	Q3         float64 `json:"q3"`
	IQR        float64 `json:"iqr"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// Option configures a Detector.
type Option func(*Detector)

// WithMultiplier sets the fence width multiplier k.
func WithMultiplier(k float64) Option {
	return func(d *Detector) {
		d.multiplier = k
	}
}

// WithMinSamples sets the minimum series length before detection runs.
func WithMinSamples(n int) Option {
	return func(d *Detector) {
		d.minSamples = n
	}
}

// WithSeverityBands overrides the severity cut-points.
func WithSeverityBands(b SeverityBands) Option {
	return func(d *Detector) {
		d.bands = b
	}
}

// New creates an IQR detector with the given options.
func New(opts ...Option) *Detector {
	d := &Detector{
		multiplier: 1.5,
		minSamples: 10,
		bands:      DefaultSeverityBands(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Method identifies this detector's algorithm.
func (d *Detector) Method() detectors.Method {
	return detectors.MethodIQR
}

// Multiplier returns the configured fence width multiplier.
func (d *Detector) Multiplier() float64 {
	return d.multiplier
}

// Detect scans the series and returns every point outside the fence.
// It fails closed: fewer than the minimum samples, or zero IQR (a constant
// or near-constant series), yields an empty result. A smaller multiplier
// detects a superset of the anomalies a larger one does, since shrinking
// the fence can only admit more points.
func (d *Detector) Detect(s detectors.Series) ([]detectors.Anomaly, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Len() < d.minSamples {
		return nil, nil
	}

	q1, q3 := stats.Quartiles(s.Values)
	iqr := q3 - q1
	if iqr == 0 {
		return nil, nil
	}
	lower := q1 - d.multiplier*iqr
	upper := q3 + d.multiplier*iqr
	median := stats.Median(s.Values)

	var anomalies []detectors.Anomaly
	for i, v := range s.Values {
		if v >= lower && v <= upper {
			continue
		}

		typ := detectors.Spike
		deviation := (v - upper) / iqr
		if v < lower {
			typ = detectors.Drop
			deviation = (lower - v) / iqr
		}

		anomalies = append(anomalies, detectors.Anomaly{
			Index:      i,
			Method:     detectors.MethodIQR,
			Type:       typ,
			Severity:   d.severity(deviation),
			Expected:   median,
			Actual:     v,
			Deviation:  deviation,
			Confidence: d.Confidence(s.Values, deviation),
		})
	}
	return anomalies, nil
}

// severity classifies the distance beyond the fence, in IQR units.
func (d *Detector) severity(deviation float64) detectors.Severity {
	switch {
	case deviation >= d.bands.Critical:
		return detectors.SeverityCritical
	case deviation >= d.bands.High:
		return detectors.SeverityHigh
	case deviation >= d.bands.Medium:
		return detectors.SeverityMedium
	case deviation >= d.bands.Low:
		return detectors.SeverityLow
	default:
		return detectors.SeverityInfo
	}
}

// ExpectedRange returns the fence (lower, upper) for the series. Every
// value the detector would not flag lies inside it.
func (d *Detector) ExpectedRange(values []float64) (lower, upper float64) {
	q1, q3 := stats.Quartiles(values)
	iqr := q3 - q1
	return q1 - d.multiplier*iqr, q3 + d.multiplier*iqr
}

// IsOutlier reports whether a single value falls outside the fence computed
// from the given series. The value need not be part of the series.
func (d *Detector) IsOutlier(value float64, values []float64) bool {
	if len(values) < d.minSamples {
		return false
	}
	lower, upper := d.ExpectedRange(values)
	if upper == lower {
		return false
	}
	return value < lower || value > upper
}

// Confidence scores how certain the detector is that a point the given
// distance beyond the fence is a genuine anomaly. Higher deviation and more
// samples both raise it; bounded to [0, 1].
func (d *Detector) Confidence(values []float64, deviation float64) float64 {
	return detectors.Confidence(deviation, len(values))
}

// Statistics returns the descriptive snapshot for the series.
func (d *Detector) Statistics(values []float64) Statistics {
	q1, q3 := stats.Quartiles(values)
	iqr := q3 - q1
	min, max := stats.MinMax(values)
	return Statistics{
		Count:      len(values),
		Min:        min,
		Max:        max,
		Q1:         q1,
		Median:     stats.Median(values),
		Q3:         q3,
		IQR:        iqr,
		LowerBound: q1 - d.multiplier*iqr,
		UpperBound: q3 + d.multiplier*iqr,
	}
}
