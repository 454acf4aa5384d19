package crawler

import (
	"context"
	"log/slog"

	"github.com/nao1215/harvester/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxConcurrentFetches bounds in-flight script fetches per page.
const DefaultMaxConcurrentFetches = 16

// FetchRecorder observes the outcome of each external script fetch.
type FetchRecorder interface {
	ObserveScriptFetch(ok bool)
}

// Aggregator gathers the text blocks of a page.
type Aggregator struct {
	fetcher       *Fetcher
	maxConcurrent int
	logger        *slog.Logger
	recorder      FetchRecorder
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithMaxConcurrentFetches bounds concurrent script fetches. Zero or a
// negative value removes the bound.
func WithMaxConcurrentFetches(n int) AggregatorOption {
	return func(a *Aggregator) {
		a.maxConcurrent = n
	}
}

// WithLogger sets the aggregator logger.
func WithLogger(logger *slog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// WithFetchRecorder sets an observer for script fetch outcomes.
func WithFetchRecorder(r FetchRecorder) AggregatorOption {
	return func(a *Aggregator) {
		a.recorder = r
	}
}

// NewAggregator creates an Aggregator fetching scripts through fetcher.
// Script fetches never follow a redirect to another origin.
func NewAggregator(fetcher *Fetcher, opts ...AggregatorOption) *Aggregator {
	if fetcher == nil {
		fetcher = NewFetcher(nil)
	}
	a := &Aggregator{
		fetcher:       fetcher.SameOriginOnly(),
		maxConcurrent: DefaultMaxConcurrentFetches,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Aggregate returns the page's text blocks: visible text, inline scripts,
// then same-origin external scripts in document order. It waits for every
// script fetch to settle. Failed fetches are dropped.
func (a *Aggregator) Aggregate(ctx context.Context, page *Page) []model.TextBlock {
	blocks := make([]model.TextBlock, 0, 2)

	if text := page.VisibleText(); text != "" {
		blocks = append(blocks, model.TextBlock{Source: model.SourceVisible, Text: text})
	}
	if code := page.InlineScripts(); code != "" {
		blocks = append(blocks, model.TextBlock{Source: model.SourceInlineScript, Text: code})
	}

	urls := page.ScriptURLs()
	if len(urls) == 0 {
		return blocks
	}

	// Each slot is written by exactly one goroutine.
	bodies := make([]string, len(urls))

	// A plain Group: goroutines never return an error, so one failed
	// fetch cannot cancel its siblings.
	var g errgroup.Group
	if a.maxConcurrent > 0 {
		g.SetLimit(a.maxConcurrent)
	}
	for i, scriptURL := range urls {
		g.Go(func() error {
			text, err := a.fetcher.FetchText(ctx, scriptURL)
			if err != nil {
				a.logger.Debug("dropping external script",
					"url", scriptURL,
					"error", err,
				)
				a.observe(false)
				return nil
			}
			a.observe(true)
			bodies[i] = text
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // goroutines always return nil

	for i, scriptURL := range urls {
		if bodies[i] == "" {
			continue
		}
		blocks = append(blocks, model.TextBlock{
			Source: model.ExternalSource(scriptURL),
			Text:   bodies[i],
		})
	}

	return blocks
}

func (a *Aggregator) observe(ok bool) {
	if a.recorder != nil {
		a.recorder.ObserveScriptFetch(ok)
	}
}
