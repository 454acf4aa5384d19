package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nao1215/harvester/internal/config"
	"github.com/nao1215/harvester/internal/controller"
	"github.com/nao1215/harvester/internal/crawler"
	"github.com/nao1215/harvester/internal/database"
	hlog "github.com/nao1215/harvester/internal/log"
	"github.com/nao1215/harvester/internal/metrics"
	"github.com/nao1215/harvester/internal/model"
	"github.com/nao1215/harvester/internal/rules"
	"github.com/nao1215/harvester/internal/scanner"
	"github.com/nao1215/harvester/internal/transport"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// loadConfig builds the configuration for cmd: defaults, config file, .env
// file and environment, then the global flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	envFile, err := flags.GetString("env-file")
	if err != nil {
		return nil, err
	}
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("log-file") {
		if cfg.LogFile, err = flags.GetString("log-file"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("json-log") {
		if cfg.JSONLog, err = flags.GetBool("json-log"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("verbose") {
		if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// nopCloser is returned when the logger writes to a stream we do not own.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// setupLogger creates the command logger. Logs go to the log file when one
// is configured and to stderr otherwise. The returned closer flushes the
// log file.
func setupLogger(cmd *cobra.Command, cfg *config.Config, level slog.Level) (*slog.Logger, io.Closer) {
	var (
		w      io.Writer = cmd.ErrOrStderr()
		closer io.Closer = nopCloser{}
	)
	if path := cfg.LogFilePath(); path != "" {
		fw := hlog.NewFileWriter(path)
		w, closer = fw, fw
	}

	opts := []hlog.Option{hlog.WithLevel(level)}
	if cfg.JSONLog {
		opts = append(opts, hlog.WithJSON())
	}
	return hlog.NewLogger(w, cfg.Verbose, opts...), closer
}

// app is the wired scanning stack shared by serve and scan.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	db         *database.DB
	metrics    *metrics.Metrics
	scanner    *scanner.Scanner
	controller *controller.Controller
}

// newApp opens the store and wires transport, fetchers, scanner and
// controller. The controller is loaded from the store before returning.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, opts ...controller.Option) (*app, error) {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		metrics: m,
	}
	if err := a.wire(ctx, opts...); err != nil {
		_ = db.Close() //nolint:errcheck // already failing
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, opts ...controller.Option) error {
	cfg := a.cfg

	topts := []transport.Option{transport.WithUserAgent(cfg.UserAgent)}
	if cfg.ProxyAddress != "" {
		topts = append(topts, transport.WithProxy(cfg.ProxyAddress))
	}
	if len(cfg.Headers) > 0 {
		topts = append(topts, transport.WithHeaders(cfg.Headers))
	}
	client, err := transport.New(max(cfg.PageTimeout, cfg.FetchTimeout), topts...)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	// Page loads and script fetches share one limiter so the rate holds
	// across both.
	var limiter *rate.Limiter
	if cfg.FetchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.FetchRate), 1)
	}
	newFetcher := func(timeout time.Duration) *crawler.Fetcher {
		fopts := []crawler.FetcherOption{
			crawler.WithMaxBodySize(cfg.MaxBodySize),
			crawler.WithRequestTimeout(timeout),
		}
		if limiter != nil {
			fopts = append(fopts, crawler.WithRateLimiter(limiter))
		}
		return crawler.NewFetcher(client.HTTPClient(), fopts...)
	}

	aggregator := crawler.NewAggregator(newFetcher(cfg.FetchTimeout),
		crawler.WithMaxConcurrentFetches(cfg.MaxConcurrentFetches),
		crawler.WithLogger(a.logger),
		crawler.WithFetchRecorder(a.metrics),
	)

	cache, err := rules.NewCache(cfg.PatternCacheSize)
	if err != nil {
		return err
	}

	a.scanner = scanner.New(newFetcher(cfg.PageTimeout), aggregator,
		scanner.WithReporter(scanner.ReporterFunc(a.report)),
		scanner.WithPatternCache(cache),
		scanner.WithRecorder(a.metrics),
		scanner.WithLogger(a.logger),
	)

	copts := []controller.Option{
		controller.WithRunner(a.scanner),
		controller.WithRecorder(a.metrics),
		controller.WithLogger(a.logger),
	}
	a.controller = controller.New(a.db, append(copts, opts...)...)
	if err := a.controller.Load(ctx); err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	return nil
}

// report forwards scanner findings to the controller.
func (a *app) report(ctx context.Context, pageURL string, items []string) error {
	return a.controller.Report(ctx, pageURL, items)
}

// record stores a pipeline scan in the history.
func (a *app) record(ctx context.Context, scan *model.Scan) {
	sources := make([]string, 0, len(scan.Blocks))
	for _, b := range scan.Blocks {
		sources = append(sources, string(b.Source))
	}
	found := 0
	if scan.Found != nil {
		found = scan.Found.Len()
	}

	_, err := a.db.InsertScanRecord(ctx, &database.ScanRecord{
		URL:       scan.URL,
		Timestamp: time.Now(),
		Outcome:   string(scanner.OutcomeOf(scan)),
		Found:     found,
		Sources:   sources,
		Elapsed:   time.Since(scan.StartedAt),
	})
	if err != nil {
		a.logger.Warn("failed to record scan", "url", scan.URL, "error", err)
	}
}

// Close waits for in-flight scans and closes the store.
func (a *app) Close() error {
	a.controller.Wait()
	return a.db.Close()
}

// openExisting opens the store for commands that only read it. A missing
// database is an error.
func openExisting(ctx context.Context, cfg *config.Config) (*database.DB, *controller.Controller, error) {
	db, err := database.Open(cfg.DBDir, database.Options{EnableWAL: true})
	if err != nil {
		return nil, nil, err
	}
	ctrl := controller.New(db)
	if err := ctrl.Load(ctx); err != nil {
		_ = db.Close() //nolint:errcheck // already failing
		return nil, nil, fmt.Errorf("failed to load state: %w", err)
	}
	return db, ctrl, nil
}
