package main

import (
	"fmt"
	"io"
	"os"

	"github.com/nao1215/harvester/internal/model"
	"github.com/nao1215/harvester/internal/report"
	"github.com/spf13/cobra"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the collected items",
		Long: `Export writes the collected items, sorted. The default format is one item
per line. JSON and Markdown exports also include the rules, the run state
and how many items each rule accounts for.

Examples:
  # Print the items
  harvester export

  # Save them as JSON
  harvester export --json -o items.json

  # Markdown summary with a per-rule chart
  harvester export --markdown -o items.md`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	addOutputFlags(cmd)
	return cmd
}

// addOutputFlags adds the format and destination flags shared by export
// and history.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Output in Markdown format")
	cmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
}

// runExport executes the export command.
func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, ctrl, err := openExisting(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // read-only

	status := model.StatusStopped
	if ctrl.Running() {
		status = model.StatusRunning
	}
	collection := report.NewCollection(ctrl.Items(), ctrl.Rules(), status)

	return withWriter(cmd, func(w report.Writer) error {
		_, err := w.WriteCollection(collection)
		return err
	})
}

// withWriter creates the report writer selected by the output flags and
// passes it to write.
func withWriter(cmd *cobra.Command, write func(report.Writer) error) error {
	flags := cmd.Flags()
	jsonOut, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOut, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}
	outputPath, err := flags.GetString("output")
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath) //nolint:gosec // User-provided output path is intentional
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close() //nolint:errcheck // close error after successful write is not actionable
		out = f
	}

	var w report.Writer
	switch {
	case jsonOut:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case markdownOut:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewTextWriter(out)
	}

	if err := write(w); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if outputPath != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Written to %s\n", outputPath)
	}
	return nil
}

