package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/harvester/internal/config"
	"github.com/nao1215/harvester/internal/metrics"
	"github.com/nao1215/harvester/internal/model"
	"github.com/nao1215/harvester/internal/pipeline"
	"github.com/nao1215/harvester/internal/rules"
	"github.com/nao1215/harvester/internal/scanner"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <url>...",
		Short: "Scan pages now and add what they contain to the collection",
		Long: `Scan loads each page, gathers its visible text, inline scripts and
same-origin external scripts, and applies the rules to all of it.

Found items are merged into the stored collection, exactly as if the
extension had reported a navigation, and the items that were not collected
before are printed. Scans run whether auto-scan is started or not.

Rules are taken from the store (the last rules saved from the popup), then
from the config file, then the built-in email and phone rules.

Examples:
  # Scan one page
  harvester scan https://example.com/contact

  # Scan several pages, four at a time
  harvester scan --batch 4 https://example.com/a https://example.com/b

  # Scan through Tor
  harvester scan --tor http://example.onion/`,
		Args: cobra.MinimumNArgs(1),
		RunE: runScan,
	}

	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of pages to scan concurrently (1 = sequential)")
	cmd.Flags().Bool("tor", false,
		"Fetch through the Tor SOCKS5 proxy at "+config.DefaultTorProxyAddress)

	return cmd
}

// runScan executes the scan command.
func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("batch") {
		if cfg.BatchSize, err = cmd.Flags().GetInt("batch"); err != nil {
			return err
		}
	}
	if err := applyTorFlag(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closer := setupLogger(cmd, cfg, slog.LevelWarn)
	defer closer.Close() //nolint:errcheck // best effort flush

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, metrics.New())
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // read-mostly path

	rs := scanRules(a.controller.Rules(), cfg.Rules)
	if err := rules.ValidateStart(rs); err != nil {
		return err
	}

	before := model.NewItemSet(a.controller.Items()...)
	out := cmd.OutOrStdout()
	startTime := time.Now()

	if cfg.BatchSize <= 1 || len(args) == 1 {
		err = runSequentialScan(ctx, out, a, args, rs)
	} else {
		err = runBatchScan(ctx, out, a, args, rs, cfg.BatchSize)
	}

	var added []string
	for _, item := range a.controller.Items() {
		if !before.Has(item) {
			added = append(added, item)
		}
	}
	printNewItems(out, added, time.Since(startTime))

	return err
}

// scanRules picks the rules a CLI scan uses: the stored rules when any is
// usable, then the config file rules, then the defaults.
func scanRules(stored, configured []model.Rule) []model.Rule {
	for _, candidate := range [][]model.Rule{stored, configured} {
		if rules.ValidateStart(candidate) == nil {
			return rules.NonEmpty(candidate)
		}
	}
	return rules.Defaults()
}

// runSequentialScan scans targets one at a time through the controller.
func runSequentialScan(ctx context.Context, out io.Writer, a *app, targets []string, rs []model.Rule) error {
	for i, target := range targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result := a.controller.ScanNow(ctx, target, rs)
		printResult(out, i, len(targets), target, result.Outcome, len(result.Items), result.Elapsed)
	}
	return nil
}

// runBatchScan scans targets concurrently using BatchProcessor.
func runBatchScan(ctx context.Context, out io.Writer, a *app, targets []string, rs []model.Rule, concurrency int) error {
	fmt.Fprintf(out, "Starting batch scan of %d pages (concurrency: %d)...\n", len(targets), concurrency)

	bp := pipeline.NewBatchProcessor(
		a.scanner.Pipeline,
		pipeline.WithConcurrency(concurrency),
		pipeline.WithBatchLogger(a.logger),
	)

	// Process with callback for streaming output
	var mu sync.Mutex
	return bp.ProcessBatchWithCallback(ctx, targets, rs, func(scan *model.Scan, index int) {
		a.record(ctx, scan)

		mu.Lock()
		defer mu.Unlock()
		printResult(out, index, len(targets), scan.URL, scanner.OutcomeOf(scan), scan.Found.Len(), time.Since(scan.StartedAt))
	})
}

func printResult(out io.Writer, index, total int, target string, outcome scanner.Outcome, found int, elapsed time.Duration) {
	fmt.Fprintf(out, "[%d/%d] %s: %s (%d found, %s)\n",
		index+1, total, target, outcome, found, elapsed.Round(time.Millisecond))
}

func printNewItems(out io.Writer, added []string, elapsed time.Duration) {
	slices.Sort(added)
	fmt.Fprintf(out, "\n%d new item(s) in %s\n", len(added), elapsed.Round(time.Millisecond))
	for _, item := range added {
		fmt.Fprintf(out, "  %s\n", item)
	}
}
