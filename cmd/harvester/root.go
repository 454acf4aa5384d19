package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for harvester.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvester",
		Short: "Collect strings matching your patterns from the pages you visit",
		Long: `harvester scans web pages for strings matching user-defined regular
expressions (email addresses, phone numbers, anything you can describe) and
keeps a deduplicated collection of everything it finds.

Pages are scanned when the browser extension reports a navigation to
"harvester serve", or on demand with "harvester scan".

Settings are read from .harvester (see "harvester init"), a .env file and
HARVESTER_* environment variables, in that order; flags win over all of them.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Configuration file (default: ./.harvester or ~/.harvester)")
	cmd.PersistentFlags().String("env-file", ".env", "Environment file to load before reading HARVESTER_* variables")
	cmd.PersistentFlags().String("db-dir", "", "Directory holding the harvester database (default: XDG data dir)")
	cmd.PersistentFlags().String("log-file", "", "Write logs to this file, rotating it as it grows")
	cmd.PersistentFlags().Bool("json-log", false, "Write logs as JSON")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
