// Package detectors provides statistical anomaly and trend detection for
// KPI time series, along with the value types shared by all detectors.
package detectors

import (
	"errors"
	"math"
	"strconv"
	"time"
)

// ErrLengthMismatch is returned when the values and timestamps of a series
// have different lengths. Silently truncating could misattribute an anomaly
// to the wrong data point, so malformed input fails loudly.
var ErrLengthMismatch = errors.New("values and timestamps length mismatch")

// ErrNaNInput is returned when a series contains NaN or infinite values.
var ErrNaNInput = errors.New("series contains NaN or Inf values")

// Series is a chronologically ordered sequence of (timestamp, value) pairs
// for a single metric. Detectors never mutate a series, so the same series
// may be handed to several detectors concurrently.
type Series struct {
	Timestamps []time.Time
	Values     []float64
}

// NewSeries creates a series from parallel timestamp and value slices.
func NewSeries(timestamps []time.Time, values []float64) (Series, error) {
	s := Series{Timestamps: timestamps, Values: values}
	if err := s.Validate(); err != nil {
		return Series{}, err
	}
	return s, nil
}

// Len returns the number of points in the series.
func (s Series) Len() int {
	return len(s.Values)
}

// Validate checks the series for malformed input: mismatched slice lengths
// or non-finite values. Insufficient data is not an error; detectors handle
// short series by returning no results.
func (s Series) Validate() error {
	if len(s.Values) != len(s.Timestamps) {
		return ErrLengthMismatch
	}
	for _, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNaNInput
		}
	}
	return nil
}

// Method identifies the detection algorithm that produced an anomaly.
type Method int

const (
	MethodZScore Method = iota
	MethodIQR
	MethodSeasonal
)

func (m Method) String() string {
	switch m {
	case MethodZScore:
		return "zscore"
	case MethodIQR:
		return "iqr"
	case MethodSeasonal:
		return "seasonal"
	default:
		return "unknown"
	}
}

// AnomalyType indicates the direction of an anomaly relative to its
// expected baseline.
type AnomalyType int

const (
	// Spike indicates the flagged value is above its expected baseline.
	Spike AnomalyType = iota
	// Drop indicates the flagged value is below its expected baseline.
	Drop
)

func (t AnomalyType) String() string {
	switch t {
	case Spike:
		return "spike"
	case Drop:
		return "drop"
	default:
		return "unknown"
	}
}

// Severity is an ordinal classification of how extreme an anomaly is.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Anomaly is a single data point flagged as statistically unusual.
// Index is the position in the input series; the caller maps it back to
// whatever identifier it stores for that point. Deviation is expressed in
// the detector's native unit: sigma for z-score, IQR multiples for IQR,
// residual magnitude for the seasonal decomposer.
type Anomaly struct {
	Index      int         `json:"index"`
	Method     Method      `json:"method"`
	Type       AnomalyType `json:"type"`
	Severity   Severity    `json:"severity"`
	Expected   float64     `json:"expected_value"`
	Actual     float64     `json:"actual_value"`
	Deviation  float64     `json:"deviation"`
	Confidence float64     `json:"confidence"`
}

// Period is a fixed lookback window for period-over-period trend analysis.
type Period int

const (
	// WeekOverWeek compares against a 7-day lookback.
	WeekOverWeek Period = iota
	// MonthOverMonth compares against a 30-day lookback.
	MonthOverMonth
	// QuarterOverQuarter compares against a 90-day lookback.
	QuarterOverQuarter
	// YearOverYear compares against a 365-day lookback.
	YearOverYear
)

func (p Period) String() string {
	switch p {
	case WeekOverWeek:
		return "wow"
	case MonthOverMonth:
		return "mom"
	case QuarterOverQuarter:
		return "qoq"
	case YearOverYear:
		return "yoy"
	default:
		return "unknown"
	}
}

// Days returns the lookback window length in days.
func (p Period) Days() int {
	switch p {
	case WeekOverWeek:
		return 7
	case MonthOverMonth:
		return 30
	case QuarterOverQuarter:
		return 90
	case YearOverYear:
		return 365
	default:
		return 0
	}
}

// Direction indicates which way a trend is moving.
type Direction int

const (
	Stable Direction = iota
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Stable:
		return "stable"
	default:
		return "unknown"
	}
}

// Trend describes the change between a recent value and the value one
// lookback period earlier.
type Trend struct {
	Period         Period    `json:"period"`
	Direction      Direction `json:"direction"`
	StartValue     float64   `json:"start_value"`
	EndValue       float64   `json:"end_value"`
	AbsoluteChange float64   `json:"absolute_change"`
	PercentChange  float64   `json:"percentage_change"`
	Confidence     float64   `json:"confidence"`
	Significant    bool      `json:"is_significant"`
}

// Detector is the common interface for point-anomaly detection algorithms.
// Implementations are pure functions of their arguments: they hold only
// immutable configuration and never mutate the input series.
type Detector interface {
	// Detect scans the series and returns flagged points. A series that is
	// too short or has a degenerate distribution yields an empty result,
	// not an error; errors are reserved for malformed input.
	Detect(s Series) ([]Anomaly, error)

	// Method identifies the algorithm for result attribution.
	Method() Method
}

// Confidence computes the shared confidence curve used by the point
// detectors: monotonically increasing in the amount by which the deviation
// clears the configured threshold (excess) and in the sample count, clamped
// to [0, 1].
func Confidence(excess float64, count int) float64 {
	deviationWeight := math.Min(1.0, 0.5+0.1*excess)
	sampleWeight := math.Min(1.0, 0.5+0.01*float64(count))
	return Clamp01(deviationWeight * sampleWeight)
}

// MarshalJSON encodes the method as its string name.
func (m Method) MarshalJSON() ([]byte, error) { return strconv.AppendQuote(nil, m.String()), nil }

// MarshalJSON encodes the anomaly type as its string name.
func (t AnomalyType) MarshalJSON() ([]byte, error) { return strconv.AppendQuote(nil, t.String()), nil }

// MarshalJSON encodes the severity as its string name.
func (s Severity) MarshalJSON() ([]byte, error) { return strconv.AppendQuote(nil, s.String()), nil }

// MarshalJSON encodes the period as its string name.
func (p Period) MarshalJSON() ([]byte, error) { return strconv.AppendQuote(nil, p.String()), nil }

// MarshalJSON encodes the direction as its string name.
func (d Direction) MarshalJSON() ([]byte, error) { return strconv.AppendQuote(nil, d.String()), nil }

// Clamp01 bounds v to the interval [0, 1], mapping NaN to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
