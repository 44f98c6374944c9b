package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dubaieta/app"
	"github.com/kilianp07/dubaieta/pkg/export"
)

func newGenerateCmd(opts *options) *cobra.Command {
	var (
		out    string
		format string
		trips  int
		seed   int64
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic trip dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if trips > 0 {
				cfg.Data.Trips = trips
			}
			if cmd.Flags().Changed("seed") {
				cfg.Data.Seed = seed
			}
			data, _, err := app.Generate(cfg)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				file, err := os.Create(out)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}
			if err := export.WriteTrips(w, f, data); err != nil {
				return fmt.Errorf("write trips: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format: csv or json")
	cmd.Flags().IntVarP(&trips, "trips", "n", 0, "number of trips (overrides data.n_trips)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (overrides data.seed)")
	return cmd
}
