package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dubaieta/app"
	"github.com/kilianp07/dubaieta/core/model"
	"github.com/kilianp07/dubaieta/core/regression"
	"github.com/kilianp07/dubaieta/pkg/export"
)

func newTrainCmd(opts *options) *cobra.Command {
	var (
		trips      int
		dataDir    string
		reportPath string
		chartPath  string
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Generate data, train both models and save the artifacts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if trips > 0 {
				cfg.Data.Trips = trips
			}
			res, err := app.Train(contextOf(cmd), cfg)
			if err != nil {
				return err
			}
			if dataDir != "" {
				if err := writeSplits(dataDir, res); err != nil {
					return err
				}
			}
			if reportPath != "" {
				if err := writeFile(reportPath, func(w io.Writer) error { return export.WriteJSON(w, res.Report) }); err != nil {
					return err
				}
			}
			if chartPath != "" {
				imps := res.Report.FeatureImportance
				if err := writeFile(chartPath, func(w io.Writer) error { return export.WriteImportanceChart(w, imps, cfg.Server.TopFeatures) }); err != nil {
					return err
				}
			}
			printSummary(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().IntVarP(&trips, "trips", "n", 0, "number of trips (overrides data.n_trips)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "write train/val/test splits as CSV into this directory")
	cmd.Flags().StringVar(&reportPath, "report", "", "write the metrics report as JSON to this file")
	cmd.Flags().StringVar(&chartPath, "chart", "", "write a feature importance chart as HTML to this file")
	return cmd
}

func writeSplits(dir string, res *app.TrainResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, trips := range map[string][]model.Trip{"train": res.Train, "val": res.Val, "test": res.Test} {
		path := filepath.Join(dir, name+".csv")
		if err := writeFile(path, func(w io.Writer) error { return export.WriteTripsCSV(w, trips) }); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printSummary(w io.Writer, res *app.TrainResult) {
	r := res.Report
	fmt.Fprintf(w, "trained on %d trips (val %d, test %d) in %s\n",
		r.ModelInfo.TrainSize, r.ModelInfo.ValSize, r.TestSize, res.Duration.Round(time.Millisecond))
	if r.TestSize > 0 {
		fmt.Fprintf(w, "  baseline  %s\n", formatMetrics(r.Evaluation.Baseline))
		fmt.Fprintf(w, "  advanced  %s\n", formatMetrics(r.Evaluation.Advanced))
		fmt.Fprintf(w, "  MAE improvement: %.1f%%\n", r.Improvement())
	}
	top := r.FeatureImportance
	if len(top) > 5 {
		top = top[:5]
	}
	fmt.Fprintln(w, "top features:")
	for _, imp := range top {
		fmt.Fprintf(w, "  %-28s %.4f\n", imp.Feature, imp.Importance)
	}
}

func formatMetrics(m regression.Metrics) string {
	return fmt.Sprintf("MAE %.2f min  RMSE %.2f min  R2 %.3f  MAPE %.1f%%", m.MAE, m.RMSE, m.R2, m.MAPE)
}
