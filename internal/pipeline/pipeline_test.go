package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/nao1215/harvester/internal/model"
)

// funcStep adapts a function to Step.
type funcStep struct {
	name string
	do   func(ctx context.Context, scan *model.Scan) error
}

func (s funcStep) Name() string { return s.name }

func (s funcStep) Do(ctx context.Context, scan *model.Scan) error {
	if s.do == nil {
		return nil
	}
	return s.do(ctx, scan)
}

// advance returns a step that moves the scan to phase.
func advance(name string, phase model.ScanPhase) funcStep {
	return funcStep{name: name, do: func(_ context.Context, scan *model.Scan) error {
		scan.Advance(phase)
		return nil
	}}
}

func newTestScan() *model.Scan {
	return model.NewScan("https://example.com/contact", []model.Rule{
		{Name: "email", Pattern: `\S+@\S+`, Enabled: true},
	})
}

// TestPipelineNew tests the Pipeline constructor and step registration.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("starts empty", func(t *testing.T) {
		t.Parallel()

		p := New()
		if p.StepCount() != 0 {
			t.Errorf("expected 0 steps, got %d", p.StepCount())
		}
		if names := p.StepNames(); len(names) != 0 {
			t.Errorf("expected no names, got %v", names)
		}
		if p.continueOnError {
			t.Error("expected continueOnError to default to false")
		}
	})

	t.Run("applies WithContinueOnError", func(t *testing.T) {
		t.Parallel()

		if !New(WithContinueOnError(true)).continueOnError {
			t.Error("expected continueOnError to be true")
		}
	})
}

// TestPipelineAddStep tests that AddStep and AddSteps keep registration order.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(funcStep{name: "compile"})
	p.AddSteps(funcStep{name: "aggregate"}, funcStep{name: "extract"})
	p.AddStep(funcStep{name: "report"})

	want := []string{"compile", "aggregate", "extract", "report"}
	if got := p.StepNames(); !slices.Equal(got, want) {
		t.Errorf("StepNames() = %v, want %v", got, want)
	}
	if p.StepCount() != len(want) {
		t.Errorf("StepCount() = %d, want %d", p.StepCount(), len(want))
	}
}

// TestPipelineExecute tests how Execute runs, halts and fails.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	errFetch := errors.New("fetch failed")
	halt := func(_ context.Context, _ *model.Scan) error {
		return fmt.Errorf("no usable rules: %w", ErrHalt)
	}
	fail := func(_ context.Context, _ *model.Scan) error {
		return errFetch
	}

	tests := []struct {
		name            string
		continueOnError bool
		steps           []funcStep
		wantErr         error
		wantScanErr     error
		wantSteps       []string
		wantPhase       model.ScanPhase
	}{
		{
			name: "runs every step in order",
			steps: []funcStep{
				advance("aggregate", model.ScanAggregating),
				advance("extract", model.ScanExtracting),
				advance("report", model.ScanReporting),
			},
			wantSteps: []string{"aggregate", "extract", "report"},
			wantPhase: model.ScanReporting,
		},
		{
			name: "halt ends the scan quietly",
			steps: []funcStep{
				{name: "compile", do: halt},
				advance("aggregate", model.ScanAggregating),
			},
			wantSteps: []string{"compile"},
			wantPhase: model.ScanIdle,
		},
		{
			name: "failure stops the scan and is recorded",
			steps: []funcStep{
				advance("aggregate", model.ScanAggregating),
				{name: "extract", do: fail},
				advance("report", model.ScanReporting),
			},
			wantErr:     errFetch,
			wantScanErr: errFetch,
			wantSteps:   []string{"aggregate", "extract"},
			wantPhase:   model.ScanAggregating,
		},
		{
			name:            "failure is recorded but skipped when continuing on error",
			continueOnError: true,
			steps: []funcStep{
				{name: "aggregate", do: fail},
				advance("report", model.ScanReporting),
			},
			wantScanErr: errFetch,
			wantSteps:   []string{"aggregate", "report"},
			wantPhase:   model.ScanReporting,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := New(WithContinueOnError(tt.continueOnError))
			for _, s := range tt.steps {
				p.AddStep(s)
			}

			scan := newTestScan()
			err := p.Execute(context.Background(), scan)

			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("Execute() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(scan.Err, tt.wantScanErr) || (tt.wantScanErr == nil && scan.Err != nil) {
				t.Errorf("scan.Err = %v, want %v", scan.Err, tt.wantScanErr)
			}
			if !slices.Equal(scan.Steps, tt.wantSteps) {
				t.Errorf("scan.Steps = %v, want %v", scan.Steps, tt.wantSteps)
			}
			if scan.Phase != tt.wantPhase {
				t.Errorf("scan.Phase = %v, want %v", scan.Phase, tt.wantPhase)
			}
		})
	}

	t.Run("cancelled context runs no step", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		p := New()
		p.AddStep(funcStep{name: "compile", do: func(_ context.Context, _ *model.Scan) error {
			called = true
			return nil
		}})

		scan := newTestScan()
		if err := p.Execute(ctx, scan); !errors.Is(err, context.Canceled) {
			t.Errorf("Execute() error = %v, want context.Canceled", err)
		}
		if called {
			t.Error("step should not have been called")
		}
		if len(scan.Steps) != 0 {
			t.Errorf("expected no performed steps, got %v", scan.Steps)
		}
	})

	t.Run("cancellation between steps stops the scan", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		p := New()
		p.AddSteps(
			funcStep{name: "compile", do: func(_ context.Context, _ *model.Scan) error {
				cancel()
				return nil
			}},
			advance("aggregate", model.ScanAggregating),
		)

		scan := newTestScan()
		if err := p.Execute(ctx, scan); !errors.Is(err, context.Canceled) {
			t.Errorf("Execute() error = %v, want context.Canceled", err)
		}
		if !slices.Equal(scan.Steps, []string{"compile"}) {
			t.Errorf("scan.Steps = %v, want [compile]", scan.Steps)
		}
	})

	t.Run("steps share the scan", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(
			funcStep{name: "aggregate", do: func(_ context.Context, scan *model.Scan) error {
				scan.Blocks = append(scan.Blocks, model.TextBlock{Source: model.SourceVisible, Text: "a@x.io"})
				return nil
			}},
			funcStep{name: "extract", do: func(_ context.Context, scan *model.Scan) error {
				for _, b := range scan.Blocks {
					scan.Found.Add(b.Text)
				}
				return nil
			}},
		)

		scan := newTestScan()
		if err := p.Execute(context.Background(), scan); err != nil {
			t.Fatalf("Execute() error: %v", err)
		}
		if !scan.Found.Has("a@x.io") {
			t.Errorf("expected the extract step to see the aggregated block, found %v", scan.Found.Items())
		}
	})
}
