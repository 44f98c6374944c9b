package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/dubaieta/core/zone"
	"github.com/kilianp07/dubaieta/pkg/export"
)

func newZonesCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "zones",
		Short: "Print the zone grid",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			grid, err := zone.NewGrid(cfg.Zones)
			if err != nil {
				return err
			}
			if asJSON {
				return export.WriteJSON(cmd.OutOrStdout(), map[string]any{"zones": grid.Zones()})
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tROW\tCOL\tTYPE")
			for _, z := range grid.Zones() {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", z.ID, z.Row, z.Col, z.Type)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
