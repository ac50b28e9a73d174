// Package scan runs a set of detectors across many metrics in parallel.
// Detectors are pure functions over read-only input, so per-metric work
// needs no coordination beyond bounding the worker count.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kpiguard/kpiguard/pkg/detectors"
)

// Metric is one named series to scan.
type Metric struct {
	Name   string
	Series detectors.Series
}

// Result holds the merged anomalies for a single metric.
type Result struct {
	Metric    string              `json:"metric"`
	Anomalies []detectors.Anomaly `json:"anomalies"`
	// Err records a per-metric failure. A failed metric reports zero
	// anomalies and never aborts the rest of the batch.
	Err error `json:"-"`
}

// Report is the outcome of one batch scan.
type Report struct {
	RunID   string   `json:"run_id"`
	Results []Result `json:"results"`
}

// Scanner fans metrics out to workers, runs every configured detector on
// each, and merges the per-method outputs.
type Scanner struct {
	detectors []detectors.Detector
	workers   int
	logger    *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithDetectors sets the detector set run against every metric.
func WithDetectors(ds ...detectors.Detector) Option {
	return func(s *Scanner) {
		s.detectors = ds
	}
}

// WithWorkers bounds the number of metrics scanned concurrently.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		s.workers = n
	}
}

// WithLogger sets the logger used to report per-metric failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = l
	}
}

// New creates a scanner with the given options.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		workers: runtime.NumCPU(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers < 1 {
		s.workers = 1
	}
	return s
}

// Scan runs the detector set over every metric. Each metric gets its own
// worker; a detector error or panic on one metric is logged and recorded on
// that metric's result without stopping the batch. Results come back in the
// input order under a fresh run ID. Cancelling the context stops the batch,
// but Scan still waits for in-flight workers before returning so the report
// is never read while a worker is writing to it.
func (s *Scanner) Scan(ctx context.Context, metrics []Metric) (Report, error) {
	report := Report{
		RunID:   uuid.NewString(),
		Results: make([]Result, len(metrics)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, m := range metrics {
		i, m := i, m
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				report.Results[i] = Result{Metric: m.Name, Err: err}
				return err
			}
			anomalies, err := s.scanMetric(m)
			if err != nil {
				s.logger.Error("metric scan failed",
					"run_id", report.RunID,
					"metric", m.Name,
					"err", err)
			}
			report.Results[i] = Result{Metric: m.Name, Anomalies: anomalies, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

// scanMetric runs every detector on one metric and merges the outputs.
// A panicking detector is converted to an error so one bad metric cannot
// take down a batch.
func (s *Scanner) scanMetric(m Metric) (anomalies []detectors.Anomaly, err error) {
	defer func() {
		if r := recover(); r != nil {
			anomalies = nil
			err = fmt.Errorf("detector panic on metric %q: %v", m.Name, r)
		}
	}()

	var all []detectors.Anomaly
	for _, d := range s.detectors {
		found, derr := d.Detect(m.Series)
		if derr != nil {
			return nil, fmt.Errorf("%s detect: %w", d.Method(), derr)
		}
		all = append(all, found...)
	}
	return Merge(all), nil
}

// Merge deduplicates anomalies found at the same index by multiple methods,
// keeping the most severe finding (ties broken by confidence). The result
// is sorted by index.
func Merge(anomalies []detectors.Anomaly) []detectors.Anomaly {
	if len(anomalies) == 0 {
		return nil
	}

	byIndex := make(map[int]detectors.Anomaly, len(anomalies))
	for _, a := range anomalies {
		best, ok := byIndex[a.Index]
		if !ok || a.Severity > best.Severity ||
			(a.Severity == best.Severity && a.Confidence > best.Confidence) {
			byIndex[a.Index] = a
		}
	}

	merged := make([]detectors.Anomaly, 0, len(byIndex))
	for _, a := range byIndex {
		merged = append(merged, a)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Index < merged[j].Index
	})
	return merged
}
