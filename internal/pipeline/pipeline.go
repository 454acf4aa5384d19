package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/harvester/internal/model"
)

// ErrHalt is returned by a step to stop the pipeline without error.
// Execute treats it as a normal completion.
var ErrHalt = errors.New("pipeline halted")

// Step is one stage of a scan.
type Step interface {
	// Do executes the step against scan. Returning ErrHalt (or an error
	// wrapping it) ends the pipeline early and successfully.
	Do(ctx context.Context, scan *model.Scan) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. The first error is still recorded in the scan.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence against scan.
//
// Cancellation is checked between steps only; steps bound their own work.
// A step returning ErrHalt stops the pipeline and Execute returns nil.
// Other step errors are recorded in scan.Err and returned, unless the
// pipeline continues on error.
func (p *Pipeline) Execute(ctx context.Context, scan *model.Scan) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"url", scan.URL,
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", scan.URL,
		)

		err := step.Do(ctx, scan)
		scan.Steps = append(scan.Steps, step.Name())

		switch {
		case err == nil:
		case errors.Is(err, ErrHalt):
			p.logger.Debug("pipeline halted",
				"step", step.Name(),
				"url", scan.URL,
			)
			return nil
		default:
			p.logger.Error("step failed",
				"step", step.Name(),
				"url", scan.URL,
				"error", err,
			)
			if scan.Err == nil {
				scan.Err = err
			}
			if !p.continueOnError {
				return err
			}
		}
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
