package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"dronefeed/internal/buildinfo"
)

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		// Skip config loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildinfo.Info()
			fmt.Fprintf(cmd.OutOrStdout(), "dronefeed %s", info["version"])
			if info["commit"] != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " (%s)", info["commit"])
			}
			if info["builtAt"] != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " built %s", info["builtAt"])
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}
