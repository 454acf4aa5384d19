package main

import (
	"github.com/nao1215/harvester/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of scans history lists by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent scans",
		Long: `History lists the most recent scans, newest first: when each ran, how it
ended, how many items it found and which text sources it read.

Examples:
  # Last 20 scans
  harvester history

  # Every scan, as JSON
  harvester history --limit 0 --json`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of scans to list (0 = all)")
	addOutputFlags(cmd)
	return cmd
}

// runHistory executes the history command.
func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	db, _, err := openExisting(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // read-only

	records, err := db.ListScanRecords(cmd.Context(), limit)
	if err != nil {
		return err
	}

	return withWriter(cmd, func(w report.Writer) error {
		_, err := w.WriteHistory(records)
		return err
	})
}
