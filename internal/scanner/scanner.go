package scanner

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/harvester/internal/crawler"
	"github.com/nao1215/harvester/internal/model"
	"github.com/nao1215/harvester/internal/pipeline"
	"github.com/nao1215/harvester/internal/rules"
)

// Reporter receives the items found by a scan. It is called at most once
// per scan, and only with a non-empty list.
type Reporter interface {
	Report(ctx context.Context, pageURL string, items []string) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, pageURL string, items []string) error

// Report implements Reporter.
func (f ReporterFunc) Report(ctx context.Context, pageURL string, items []string) error {
	return f(ctx, pageURL, items)
}

// Recorder observes finished scans.
type Recorder interface {
	ObserveScan(outcome string, items int, elapsed time.Duration)
}

// Scanner runs scans. A Scanner holds no per-scan state and may run any
// number of scans concurrently.
type Scanner struct {
	fetcher    *crawler.Fetcher
	aggregator *crawler.Aggregator
	reporter   Reporter
	cache      *rules.Cache
	recorder   Recorder
	logger     *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithReporter sets where found items are sent.
func WithReporter(r Reporter) Option {
	return func(s *Scanner) {
		s.reporter = r
	}
}

// WithPatternCache shares compiled patterns across scans.
func WithPatternCache(c *rules.Cache) Option {
	return func(s *Scanner) {
		s.cache = c
	}
}

// WithRecorder sets an observer for finished scans.
func WithRecorder(r Recorder) Option {
	return func(s *Scanner) {
		s.recorder = r
	}
}

// WithLogger sets the scanner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// New creates a Scanner that loads pages with fetcher and gathers text
// with aggregator.
func New(fetcher *crawler.Fetcher, aggregator *crawler.Aggregator, opts ...Option) *Scanner {
	s := &Scanner{
		fetcher:    fetcher,
		aggregator: aggregator,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Result summarizes a finished scan.
type Result struct {
	// URL is the scanned page.
	URL string

	// Phase is always model.ScanDone.
	Phase model.ScanPhase

	// Outcome tells how the scan ended.
	Outcome Outcome

	// Items are the distinct items found, in discovery order.
	Items []string

	// Blocks are the text blocks that were scanned.
	Blocks []model.TextBlock

	// Abandoned is set when the page could not be loaded.
	Abandoned bool

	// Reported is set when the reporter accepted the items.
	Reported bool

	// Elapsed is the scan duration.
	Elapsed time.Duration
}

// Run scans the page at pageURL with rs.
func (s *Scanner) Run(ctx context.Context, pageURL string, rs []model.Rule) Result {
	return s.run(ctx, model.NewScan(pageURL, rs), &runState{})
}

// RunPage scans an already loaded page.
func (s *Scanner) RunPage(ctx context.Context, page *crawler.Page, rs []model.Rule) Result {
	return s.run(ctx, model.NewScan(page.URL.String(), rs), &runState{page: page})
}

// Pipeline returns a fresh scan pipeline. Each call has its own run state,
// so the result suits pipeline.NewBatchProcessor.
func (s *Scanner) Pipeline() *pipeline.Pipeline {
	return s.newPipeline(&runState{})
}

func (s *Scanner) newPipeline(state *runState) *pipeline.Pipeline {
	p := pipeline.New(pipeline.WithLogger(s.logger))
	p.AddSteps(
		&compileStep{s: s, state: state},
		&aggregateStep{s: s, state: state},
		&extractStep{state: state},
		&reportStep{s: s, state: state},
	)
	return p
}

func (s *Scanner) run(ctx context.Context, scan *model.Scan, state *runState) Result {
	// Steps only fail through ErrHalt, which Execute swallows; a context
	// error can only stop the scan between steps.
	if err := s.newPipeline(state).Execute(ctx, scan); err != nil {
		s.logger.Debug("scan interrupted",
			"url", scan.URL,
			"error", err,
		)
	}
	scan.Advance(model.ScanDone)

	elapsed := time.Since(scan.StartedAt)
	if state.outcome == "" {
		state.outcome = OutcomeAbandoned
		scan.Abandoned = true
	}
	if s.recorder != nil {
		s.recorder.ObserveScan(string(state.outcome), len(state.items), elapsed)
	}

	s.logger.Debug("scan finished",
		"url", scan.URL,
		"outcome", state.outcome,
		"found", len(state.items),
		"elapsed", elapsed,
	)

	return Result{
		URL:       scan.URL,
		Phase:     scan.Phase,
		Outcome:   state.outcome,
		Items:     state.items,
		Blocks:    scan.Blocks,
		Abandoned: scan.Abandoned,
		Reported:  state.reported,
		Elapsed:   elapsed,
	}
}
