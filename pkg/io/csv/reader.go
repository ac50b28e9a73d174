// Package csv loads (timestamp, value) metric series from CSV files.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/kpiguard/kpiguard/pkg/detectors"
)

// Reader reads a two-column CSV of timestamps and values. Timestamps parse
// either as the configured layout or as unix seconds.
type Reader struct {
	file       *os.File
	reader     *csv.Reader
	hasHeader  bool
	timeLayout string
	headers    []string
}

// Option configures a CSV reader.
type Option func(*Reader)

// WithHeader indicates the CSV has a header row.
func WithHeader(has bool) Option {
	return func(r *Reader) {
		r.hasHeader = has
	}
}

// WithTimeLayout sets the timestamp parse layout. Defaults to RFC 3339.
func WithTimeLayout(layout string) Option {
	return func(r *Reader) {
		r.timeLayout = layout
	}
}

// NewReader opens filename for reading.
func NewReader(filename string, opts ...Option) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		file:       file,
		reader:     csv.NewReader(file),
		hasHeader:  true,
		timeLayout: time.RFC3339,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.hasHeader {
		headers, err := r.reader.Read()
		if err != nil {
			file.Close()
			return nil, err
		}
		r.headers = headers
	}

	return r, nil
}

// Headers returns the column headers, if the file has them.
func (r *Reader) Headers() []string {
	return r.headers
}

// ReadSeries reads the remaining rows into a series. Rows must already be
// in chronological order; the reader does not sort.
func (r *Reader) ReadSeries() (detectors.Series, error) {
	var (
		timestamps []time.Time
		values     []float64
	)

	line := 0
	for {
		record, err := r.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return detectors.Series{}, err
		}
		line++

		ts, v, err := r.parseRow(record)
		if err != nil {
			return detectors.Series{}, fmt.Errorf("row %d: %w", line, err)
		}
		timestamps = append(timestamps, ts)
		values = append(values, v)
	}

	return detectors.NewSeries(timestamps, values)
}

// Close releases resources.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// parseRow converts a CSV record to a (timestamp, value) pair.
func (r *Reader) parseRow(record []string) (time.Time, float64, error) {
	if len(record) < 2 {
		return time.Time{}, 0, errors.New("need timestamp and value columns")
	}

	ts, err := time.Parse(r.timeLayout, record[0])
	if err != nil {
		// Fall back to unix seconds.
		unix, uerr := strconv.ParseInt(record[0], 10, 64)
		if uerr != nil {
			return time.Time{}, 0, fmt.Errorf("parse timestamp %q: %w", record[0], err)
		}
		ts = time.Unix(unix, 0).UTC()
	}

	v, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("parse value %q: %w", record[1], err)
	}

	return ts, v, nil
}
