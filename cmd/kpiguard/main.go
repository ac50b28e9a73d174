// Command kpiguard runs the KPI detection engine against CSV series files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "kpiguard",
		Short: "Statistical anomaly and trend detection for KPI series",
		Long: `kpiguard scans time-ordered metric series for statistically unusual
points (z-score, IQR, seasonal-residual) and directional shifts
(period-over-period trends). Input is a CSV of timestamp,value rows in
chronological order.`,
		SilenceUsage: true,
	}

	root.AddCommand(newDetectCmd())
	root.AddCommand(newTrendCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
