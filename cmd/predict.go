package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dubaieta/app"
	"github.com/kilianp07/dubaieta/core/regression"
	"github.com/kilianp07/dubaieta/pkg/export"
)

func newPredictCmd(opts *options) *cobra.Command {
	var (
		pickup, dropoff int
		at              string
		kind            string
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict one trip duration from saved models",
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := regression.ParseKind(strings.ToLower(kind))
			if err != nil {
				return err
			}
			when := time.Now().UTC()
			if at != "" {
				if when, err = time.Parse(time.RFC3339, at); err != nil {
					if when, err = time.Parse("2006-01-02T15:04:05", at); err != nil {
						return fmt.Errorf("--at: %w", err)
					}
				}
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			pred, err := app.LoadPredictor(contextOf(cmd), cfg)
			if err != nil {
				return fmt.Errorf("load models: %w", err)
			}
			res, err := pred.Predict(pickup, dropoff, when, k)
			if err != nil {
				return err
			}
			return export.WriteJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVar(&pickup, "pickup", 0, "pickup zone id")
	cmd.Flags().IntVar(&dropoff, "dropoff", 0, "dropoff zone id")
	cmd.Flags().StringVar(&at, "at", "", "request time (RFC3339), defaults to now")
	cmd.Flags().StringVar(&kind, "model", "advanced", "model type: baseline or advanced")
	_ = cmd.MarkFlagRequired("pickup")
	_ = cmd.MarkFlagRequired("dropoff")
	return cmd
}
