// Package stats provides the descriptive statistics primitives shared by
// all detectors, backed by github.com/montanaflynn/stats.
package stats

import (
	"math"

	mstats "github.com/montanaflynn/stats"
)

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	m, err := mstats.Mean(mstats.Float64Data(values))
	if err != nil {
		return 0
	}
	return m
}

// Median returns the median, or 0 for an empty slice.
func Median(values []float64) float64 {
	m, err := mstats.Median(mstats.Float64Data(values))
	if err != nil {
		return 0
	}
	return m
}

// Variance returns the population variance, or 0 for an empty slice.
func Variance(values []float64) float64 {
	v, err := mstats.PopulationVariance(mstats.Float64Data(values))
	if err != nil {
		return 0
	}
	return v
}

// Std returns the population standard deviation, or 0 for an empty slice.
func Std(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// Quartiles returns the first and third quartiles. The halves-of-the-sorted
// -data method from montanaflynn/stats is used consistently everywhere the
// engine needs quartiles.
func Quartiles(values []float64) (q1, q3 float64) {
	q, err := mstats.Quartile(mstats.Float64Data(values))
	if err != nil {
		return 0, 0
	}
	return q.Q1, q.Q3
}

// MinMax returns the smallest and largest values, or (0, 0) for an empty
// slice.
func MinMax(values []float64) (min, max float64) {
	if len(values) == 0 {
		return 0, 0
	}
	min, max = values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
