package scanner

import (
	"context"
	"fmt"

	"github.com/nao1215/harvester/internal/crawler"
	"github.com/nao1215/harvester/internal/extract"
	"github.com/nao1215/harvester/internal/model"
	"github.com/nao1215/harvester/internal/pipeline"
	"github.com/nao1215/harvester/internal/rules"
)

// runState is shared by the steps of one pipeline run.
type runState struct {
	compiled []rules.CompiledRule
	page     *crawler.Page
	items    []string
	outcome  Outcome
	reported bool
}

// compileStep compiles the scan's rule snapshot.
type compileStep struct {
	s     *Scanner
	state *runState
}

func (st *compileStep) Name() string { return "compile" }

func (st *compileStep) Do(_ context.Context, scan *model.Scan) error {
	opts := []rules.Option{rules.WithLogger(st.s.logger)}
	if st.s.cache != nil {
		opts = append(opts, rules.WithCache(st.s.cache))
	}
	st.state.compiled = rules.Compile(scan.Rules, opts...)

	if len(st.state.compiled) == 0 {
		st.state.outcome = OutcomeNoRules
		return fmt.Errorf("no usable rules: %w", pipeline.ErrHalt)
	}
	return nil
}

// aggregateStep loads the page, unless one was supplied, and collects its blocks.
type aggregateStep struct {
	s     *Scanner
	state *runState
}

func (st *aggregateStep) Name() string { return "aggregate" }

func (st *aggregateStep) Do(ctx context.Context, scan *model.Scan) error {
	scan.Advance(model.ScanAggregating)

	if st.state.page == nil {
		page, err := st.s.fetcher.Load(ctx, scan.URL)
		if err != nil {
			st.s.logger.Debug("abandoning scan",
				"url", scan.URL,
				"error", err,
			)
			scan.Abandoned = true
			st.state.outcome = OutcomeAbandoned
			return fmt.Errorf("page unavailable: %w", pipeline.ErrHalt)
		}
		st.s.logger.Debug("page loaded",
			"url", scan.URL,
			"title", page.Title(),
		)
		st.state.page = page
	}

	scan.Blocks = st.s.aggregator.Aggregate(ctx, st.state.page)
	return nil
}

// extractStep applies the compiled rules to every block.
type extractStep struct {
	state *runState
}

func (st *extractStep) Name() string { return "extract" }

func (st *extractStep) Do(_ context.Context, scan *model.Scan) error {
	scan.Advance(model.ScanExtracting)

	e := extract.New()
	for _, block := range scan.Blocks {
		st.state.items = append(st.state.items, e.Extract(block, st.state.compiled)...)
	}
	scan.Found = e.Seen()

	if len(st.state.items) == 0 {
		st.state.outcome = OutcomeNoItems
		return fmt.Errorf("no items: %w", pipeline.ErrHalt)
	}
	return nil
}

// reportStep hands the found items to the reporter.
type reportStep struct {
	s     *Scanner
	state *runState
}

func (st *reportStep) Name() string { return "report" }

func (st *reportStep) Do(ctx context.Context, scan *model.Scan) error {
	scan.Advance(model.ScanReporting)
	st.state.outcome = OutcomeReported

	if st.s.reporter == nil {
		return nil
	}
	if err := st.s.reporter.Report(ctx, scan.URL, st.state.items); err != nil {
		// Delivery is best effort.
		st.s.logger.Debug("report not delivered",
			"url", scan.URL,
			"error", err,
		)
		return nil
	}
	st.state.reported = true
	return nil
}
