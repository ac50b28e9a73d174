// Package trend compares the most recent value of a series against the
// value one lookback period earlier (week-over-week, month-over-month, and
// so on) and reports direction, magnitude, and significance.
package trend

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kpiguard/kpiguard/pkg/detectors"
)

// Analyzer performs period-over-period trend analysis. It holds only
// immutable configuration; Analyze is a pure function of its arguments.
type Analyzer struct {
	significance float64
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithSignificance sets the minimum fractional change for a trend to be
// reported as significant. The default 0.10 means a 10% change.
func WithSignificance(t float64) Option {
	return func(a *Analyzer) {
		a.significance = t
	}
}

// New creates a trend analyzer with the given options.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{significance: 0.10}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Significance returns the configured significance threshold.
func (a *Analyzer) Significance() float64 {
	return a.significance
}

// Analyze locates the first point at or after (last timestamp - lookback)
// and compares its value to the most recent one. A series with fewer than
// two points, or one whose lookback boundary cannot be located, yields a
// stable, not-significant trend with zero changes rather than an error.
func (a *Analyzer) Analyze(s detectors.Series, period detectors.Period) (detectors.Trend, error) {
	if err := s.Validate(); err != nil {
		return detectors.Trend{}, err
	}

	t := detectors.Trend{Period: period, Direction: detectors.Stable}
	if s.Len() < 2 {
		return t, nil
	}

	last := s.Timestamps[s.Len()-1]
	boundary := last.Add(-time.Duration(period.Days()) * 24 * time.Hour)

	startIdx := -1
	for i, ts := range s.Timestamps {
		if !ts.Before(boundary) {
			startIdx = i
			break
		}
	}
	if startIdx < 0 || startIdx == s.Len()-1 {
		// No point old enough to anchor the comparison, or the window
		// contains only the final point.
		return t, nil
	}

	start := s.Values[startIdx]
	end := s.Values[s.Len()-1]

	t.StartValue = start
	t.EndValue = end
	t.AbsoluteChange = end - start
	if start != 0 {
		t.PercentChange = t.AbsoluteChange / math.Abs(start) * 100
	}

	switch {
	case t.AbsoluteChange > 0:
		t.Direction = detectors.Up
	case t.AbsoluteChange < 0:
		t.Direction = detectors.Down
	}

	t.Significant = math.Abs(t.PercentChange)/100 >= a.significance
	t.Confidence = a.confidence(t.PercentChange, s.Len()-startIdx)
	return t, nil
}

// confidence grows with the magnitude of the change and with the number of
// samples spanning the window, bounded to [0, 1]. Sample support is
// weighted by the two-sided normal probability mass within sqrt(n) sigma,
// which approaches 1 as the window fills out.
func (a *Analyzer) confidence(pctChange float64, samples int) float64 {
	if samples < 2 {
		return 0
	}
	changeWeight := math.Min(1.0, 0.5+math.Abs(pctChange)/100)
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	sampleWeight := 2*norm.CDF(math.Sqrt(float64(samples))) - 1
	return detectors.Clamp01(changeWeight * sampleWeight)
}
