package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kpiguard/kpiguard/pkg/detectors"
	"github.com/kpiguard/kpiguard/pkg/detectors/iqr"
	"github.com/kpiguard/kpiguard/pkg/detectors/seasonal"
	"github.com/kpiguard/kpiguard/pkg/detectors/zscore"
	kio "github.com/kpiguard/kpiguard/pkg/io"
	"github.com/kpiguard/kpiguard/pkg/io/csv"
	"github.com/kpiguard/kpiguard/pkg/scan"
)

func newDetectCmd() *cobra.Command {
	var (
		file       string
		method     string
		threshold  float64
		multiplier float64
		minSamples int
		period     int
		noHeader   bool
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Flag anomalous points in a series",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader, err := csv.NewReader(file, csv.WithHeader(!noHeader))
			if err != nil {
				return err
			}
			defer reader.Close()

			series, err := reader.ReadSeries()
			if err != nil {
				return err
			}

			ds, err := buildDetectors(method, threshold, multiplier, minSamples, period)
			if err != nil {
				return err
			}

			var all []detectors.Anomaly
			for _, d := range ds {
				found, err := d.Detect(series)
				if err != nil {
					return fmt.Errorf("%s: %w", d.Method(), err)
				}
				all = append(all, found...)
			}

			return kio.NewJSONWriter(os.Stdout).WriteAnomalies(scan.Merge(all))
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file of timestamp,value rows")
	cmd.Flags().StringVarP(&method, "method", "m", "all", "detection method: zscore, iqr, seasonal, or all")
	cmd.Flags().Float64Var(&threshold, "threshold", 3.0, "sigma cutoff for z-score and seasonal residuals")
	cmd.Flags().Float64Var(&multiplier, "multiplier", 1.5, "IQR fence width multiplier")
	cmd.Flags().IntVar(&minSamples, "min-samples", 10, "minimum series length before detection runs")
	cmd.Flags().IntVar(&period, "period", 7, "seasonal cycle length in samples")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "CSV file has no header row")
	_ = cmd.MarkFlagRequired("file") // flag is registered above; cannot fail

	return cmd
}

func buildDetectors(method string, threshold, multiplier float64, minSamples, period int) ([]detectors.Detector, error) {
	z := zscore.New(zscore.WithThreshold(threshold), zscore.WithMinSamples(minSamples))
	q := iqr.New(iqr.WithMultiplier(multiplier), iqr.WithMinSamples(minSamples))
	s := seasonal.New(seasonal.WithPeriod(period), seasonal.WithThreshold(threshold))

	switch method {
	case "zscore":
		return []detectors.Detector{z}, nil
	case "iqr":
		return []detectors.Detector{q}, nil
	case "seasonal":
		return []detectors.Detector{s}, nil
	case "all":
		return []detectors.Detector{z, q, s}, nil
	default:
		return nil, fmt.Errorf("unknown method %q", method)
	}
}
