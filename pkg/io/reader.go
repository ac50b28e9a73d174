// Package io provides input/output utilities for loading metric series and
// writing detection results.
package io

import (
	"encoding/json"
	stdio "io"

	"github.com/kpiguard/kpiguard/pkg/detectors"
)

// Reader is the interface for loading a metric series from a data source.
type Reader interface {
	// ReadSeries returns the complete series, chronologically ordered.
	ReadSeries() (detectors.Series, error)

	// Close releases resources.
	Close() error
}

// Writer is the interface for writing detection results.
type Writer interface {
	// WriteAnomalies outputs a list of flagged points.
	WriteAnomalies(anomalies []detectors.Anomaly) error

	// WriteTrend outputs a trend analysis result.
	WriteTrend(t detectors.Trend) error
}

// JSONWriter writes results as indented JSON.
type JSONWriter struct {
	enc *json.Encoder
}

// NewJSONWriter creates a writer that encodes results to w.
func NewJSONWriter(w stdio.Writer) *JSONWriter {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &JSONWriter{enc: enc}
}

// WriteAnomalies encodes the anomaly list. A nil list encodes as an empty
// array so consumers always see valid JSON.
func (w *JSONWriter) WriteAnomalies(anomalies []detectors.Anomaly) error {
	if anomalies == nil {
		anomalies = []detectors.Anomaly{}
	}
	return w.enc.Encode(anomalies)
}

// WriteTrend encodes a trend result.
func (w *JSONWriter) WriteTrend(t detectors.Trend) error {
	return w.enc.Encode(t)
}
