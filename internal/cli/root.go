// Package cli implements the dronefeed command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"dronefeed/internal/config"
	"dronefeed/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg *config.Config
	log *slog.Logger
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dronefeed",
		Short: "Plan feeding trips for a range-limited drone",
		Long: `dronefeed plans depot-to-depot trips that carry food from storages to
enclosures, within a battery range budget and around exclusion zones.

Examples:
  dronefeed solve --input level1.txt
  dronefeed solve --input level3.yaml --strategy avoid --json
  dronefeed validate --input level4.txt
  dronefeed presets
  dronefeed serve`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd.ErrOrStderr())
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: ./config.yaml, ./configs, /etc/dronefeed)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	rootCmd.AddCommand(NewSolveCommand())
	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewPresetsCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

func setup(stderr io.Writer) error {
	c, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if verbose {
		c.Logging.Level = "debug"
	}
	l, err := logging.New(c.Logging, stderr)
	if err != nil {
		return err
	}
	cfg, log = c, l
	slog.SetDefault(l)
	return nil
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
