package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/harvester/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of pages scanned at once by a BatchProcessor.
const DefaultConcurrency = 4

// BatchProcessor scans many pages concurrently, one fresh pipeline per page.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each scan.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent scans.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent scans.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
// pipelineFactory is called once per page so no state leaks between scans.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch scans every URL with rules and returns one scan per URL in
// input order. A failing scan does not stop the others; its error is in
// the scan. The returned error is only set when ctx is cancelled, in which
// case scans that never started are nil.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string, rules []model.Rule) ([]*model.Scan, error) {
	bp.logger.Info("starting batch",
		"total", len(urls),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	// Each slot is written by exactly one goroutine.
	results := make([]*model.Scan, len(urls))

	err := bp.run(ctx, urls, rules, func(scan *model.Scan, i int) {
		results[i] = scan
	})

	bp.logger.Info("batch complete",
		"total", len(urls),
		"elapsed", time.Since(startTime),
	)

	return results, err
}

// ProcessBatchWithCallback scans every URL and calls callback as each scan
// completes. The callback runs on the scanning goroutine and must be safe
// for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	urls []string,
	rules []model.Rule,
	callback func(scan *model.Scan, index int),
) error {
	return bp.run(ctx, urls, rules, callback)
}

func (bp *BatchProcessor) run(
	ctx context.Context,
	urls []string,
	rules []model.Rule,
	done func(scan *model.Scan, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range urls {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			scan := model.NewScan(target, rules)
			if err := bp.pipelineFactory().Execute(ctx, scan); err != nil {
				bp.logger.Warn("scan failed",
					"url", target,
					"error", err,
				)
			}
			done(scan, i)

			// Failures stay in the scan; only cancellation stops the batch.
			return nil
		})
	}

	return g.Wait()
}
