// Package zscore flags points whose deviation from the series mean, in
// standard-deviation units, exceeds a configurable threshold.
package zscore

import (
	"math"

	"github.com/kpiguard/kpiguard/pkg/detectors"
	"github.com/kpiguard/kpiguard/pkg/stats"
)

// SeverityBands holds the |z| cut-points for severity classification.
// These are business-tunable thresholds, not statistical constants, so they
// are exposed as configuration.
type SeverityBands struct {
	Low      float64
	Medium   float64
	High     float64
	Critical float64
}

// DefaultSeverityBands returns the standard z-score severity cut-points.
func DefaultSeverityBands() SeverityBands {
	return SeverityBands{Low: 3.0, Medium: 3.5, High: 4.0, Critical: 5.0}
}

// Detector flags anomalies by z-score against the full-series mean.
// All configuration is fixed at construction; every method is a pure
// function of its arguments.
type Detector struct {
	threshold  float64
	minSamples int
	bands      SeverityBands
}

// Statistics is a descriptive snapshot of a series as seen by the z-score
// detector. It is recomputed on every call, never cached.
type Statistics struct {
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Std      float64 `json:"std"`
	Variance float64 `json:"variance"`
}

// Option configures a Detector.
type Option func(*Detector)

// WithThreshold sets the sigma multiplier above which a point is flagged.
func WithThreshold(t float64) Option {
	return func(d *Detector) {
		d.threshold = t
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

// New creates a z-score detector with the given options.
func New(opts ...Option) *Detector {
	d := &Detector{
		threshold:  3.0,
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
	return detectors.MethodZScore
}

// Threshold returns the configured sigma multiplier.
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// Detect scans the series and returns every point whose |z| clears the
// threshold. It fails closed: fewer than the minimum samples, or a constant
// series (zero standard deviation), yields an empty result.
func (d *Detector) Detect(s detectors.Series) ([]detectors.Anomaly, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Len() < d.minSamples {
		return nil, nil
	}

	mean := stats.Mean(s.Values)
	std := stats.Std(s.Values)
	if std == 0 {
		// No variance means nothing can be abnormal.
		return nil, nil
	}

	var anomalies []detectors.Anomaly
	for i, v := range s.Values {
		z := (v - mean) / std
		if math.Abs(z) < d.threshold {
			continue
		}

		typ := detectors.Spike
		if v < mean {
			typ = detectors.Drop
		}

		anomalies = append(anomalies, detectors.Anomaly{
			Index:      i,
			Method:     detectors.MethodZScore,
			Type:       typ,
			Severity:   d.severity(math.Abs(z)),
			Expected:   mean,
			Actual:     v,
			Deviation:  z,
			Confidence: d.Confidence(s.Values, math.Abs(z)),
		})
	}
	return anomalies, nil
}

// severity classifies |z| into a band. Values below the Low cut-point are
// only reachable when the threshold is configured under it; they report as
// info rather than going unclassified.
func (d *Detector) severity(absZ float64) detectors.Severity {
	switch {
	case absZ >= d.bands.Critical:
		return detectors.SeverityCritical
	case absZ >= d.bands.High:
		return detectors.SeverityHigh
	case absZ >= d.bands.Medium:
		return detectors.SeverityMedium
	case absZ >= d.bands.Low:
		return detectors.SeverityLow
	default:
		return detectors.SeverityInfo
	}
}

// ExpectedValue returns the baseline the detector reports for a candidate
// point: the inclusive series mean. The candidate is not excluded; for the
// series lengths detection runs on, leave-one-out shifts the mean by less
// than the reporting precision warrants.
func (d *Detector) ExpectedValue(values []float64) float64 {
	return stats.Mean(values)
}

// Confidence scores how certain the detector is that a point with the given
// |z| is a genuine anomaly. Higher z and more samples both raise it; the
// result is bounded to [0, 1].
func (d *Detector) Confidence(values []float64, absZ float64) float64 {
	return detectors.Confidence(absZ-d.threshold, len(values))
}

// Statistics returns the descriptive snapshot for the series.
func (d *Detector) Statistics(values []float64) Statistics {
	min, max := stats.MinMax(values)
	return Statistics{
		Count:    len(values),
		Min:      min,
		Max:      max,
		Mean:     stats.Mean(values),
		Median:   stats.Median(values),
		Std:      stats.Std(values),
		Variance: stats.Variance(values),
	}
}
