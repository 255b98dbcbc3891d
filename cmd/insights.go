package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Jrdheeraj/tirupati-geoai/internal/core"
	"github.com/Jrdheeraj/tirupati-geoai/internal/domain/model"
	"github.com/Jrdheeraj/tirupati-geoai/internal/export"
)

func newInsightsCmd() *cobra.Command {
	var (
		start, end int
		format     string
		out        string
	)

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Compute insights for one period and print or export them",
		Example: `  geoai insights --start 2018 --end 2025
  geoai insights --start 2019 --end 2024 --format csv --out insights.csv`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			var ef export.Format
			if format != "text" {
				if ef, err = export.ParseFormat(format); err != nil {
					return err
				}
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			period := model.Period{Start: start, End: end}
			run, change, err := a.service.Analyze(cmd.Context(), period)
			if err != nil {
				return err
			}
			narrative := core.Render(&run.Result, a.cfg.PlaceName)

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, createErr := os.Create(out)
				if createErr != nil {
					return fmt.Errorf("failed to create %s: %w", out, createErr)
				}
				defer func() {
					if cerr := f.Close(); cerr != nil && err == nil {
						err = fmt.Errorf("failed to close %s: %w", out, cerr)
					}
				}()
				w = f
			}

			return writeInsights(w, ef, period, &export.Analysis{
				Period:    period,
				Labels:    a.cfg.Labels(),
				Change:    change,
				Insights:  run.Result,
				Narrative: narrative,
			})
		},
	}

	cmd.Flags().IntVar(&start, "start", 2018, "start year")
	cmd.Flags().IntVar(&end, "end", 2025, "end year")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, yaml or csv")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to file instead of stdout")
	return cmd
}

// writeInsights prints the narrative when f is empty, otherwise the export encoding.
func writeInsights(w io.Writer, f export.Format, period model.Period, a *export.Analysis) error {
	if f == "" {
		return writeText(w, period, a.Narrative)
	}
	return export.Write(w, f, a)
}

func writeText(w io.Writer, period model.Period, n core.Narrative) error {
	_, err := fmt.Fprintf(w, "Key Insights (%d → %d)\n\n- %s\n- %s\n- %s\n\n%s\n",
		period.Start, period.End, n.Stability, n.Expansion, n.Transition, n.Footprint)
	return err
}
