package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nao1215/harvester/internal/config"
	"github.com/nao1215/harvester/internal/rules"
	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new harvester configuration file",
		Long: `Initialize creates a new .harvester configuration file in the current directory.

The generated file includes:
- Every setting with its default value
- The built-in email and phone rules, used by "harvester scan" until
  rules are saved from the extension popup

Examples:
  # Create .harvester in current directory
  harvester init

  # Create config file at a specific path
  harvester init -o myconfig.yaml

  # Force overwrite existing file
  harvester init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if force {
		if err := os.Remove(outputPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove existing configuration file: %w", err)
		}
	}

	f := config.NewFile(config.NewConfig(), rules.Defaults())
	if err := config.WriteConfigFile(outputPath, f); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure:")
	fmt.Fprintln(out, "  - Timeouts, body size and fetch concurrency")
	fmt.Fprintln(out, "  - A SOCKS5 proxy and extra request headers")
	fmt.Fprintln(out, "  - The rules used by harvester scan")

	return nil
}
