package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"dronefeed/internal/scenario"
)

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a scenario file without planning",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadScenario(input)
			if err != nil {
				return err
			}
			if err := scenario.Validate(&sc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid\n", input)
			fmt.Fprintf(cmd.OutOrStdout(), "  Storages:   %d\n", len(sc.Sources))
			fmt.Fprintf(cmd.OutOrStdout(), "  Enclosures: %d\n", len(sc.Targets))
			fmt.Fprintf(cmd.OutOrStdout(), "  Deadzones:  %d\n", len(sc.Zones))
			fmt.Fprintf(cmd.OutOrStdout(), "  Budget:     %g x %d trips\n", sc.RangeBudget, sc.MaxTrips)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Scenario file (required)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
