package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kpiguard/kpiguard/pkg/detectors"
	"github.com/kpiguard/kpiguard/pkg/detectors/trend"
	kio "github.com/kpiguard/kpiguard/pkg/io"
	"github.com/kpiguard/kpiguard/pkg/io/csv"
)

func newTrendCmd() *cobra.Command {
	var (
		file         string
		periodName   string
		significance float64
		noHeader     bool
	)

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Compare the latest value against one lookback period earlier",
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := parsePeriod(periodName)
			if err != nil {
				return err
			}

			reader, err := csv.NewReader(file, csv.WithHeader(!noHeader))
			if err != nil {
				return err
			}
			defer reader.Close()

			series, err := reader.ReadSeries()
			if err != nil {
				return err
			}

			result, err := trend.New(trend.WithSignificance(significance)).Analyze(series, period)
			if err != nil {
				return err
			}

			return kio.NewJSONWriter(os.Stdout).WriteTrend(result)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file of timestamp,value rows")
	cmd.Flags().StringVarP(&periodName, "period", "p", "wow", "lookback period: wow, mom, qoq, or yoy")
	cmd.Flags().Float64Var(&significance, "significance", 0.10, "minimum fractional change to call a trend significant")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "CSV file has no header row")
	_ = cmd.MarkFlagRequired("file") // flag is registered above; cannot fail

	return cmd
}

func parsePeriod(name string) (detectors.Period, error) {
	switch name {
	case "wow":
		return detectors.WeekOverWeek, nil
	case "mom":
		return detectors.MonthOverMonth, nil
	case "qoq":
		return detectors.QuarterOverQuarter, nil
	case "yoy":
		return detectors.YearOverYear, nil
	default:
		return 0, fmt.Errorf("unknown period %q", name)
	}
}
