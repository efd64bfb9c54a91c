package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewPresetsCommand creates the presets command
func NewPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the competition level presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			presets, err := loadPresets()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "LEVEL\tNAME\tBUDGET\tTRIPS\tSTRATEGY")
			for _, p := range presets {
				fmt.Fprintf(tw, "%d\t%s\t%g\t%d\t%s\n", p.Level, p.Name, p.RangeBudget, p.MaxTrips, p.Strategy)
			}
			return tw.Flush()
		},
	}
}
