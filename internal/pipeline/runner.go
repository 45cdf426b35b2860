package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/wonny/spotcast/internal/contracts"
)

// ErrRunInProgress another run holds the runner
var ErrRunInProgress = errors.New("forecast run already in progress")

// Runner serializes runs triggered from several places (scheduler, API, CLI).
// A trigger that finds a run in progress is rejected, not queued.
type Runner struct {
	pipeline *Pipeline
	mu       sync.Mutex
}

// NewRunner wraps p
func NewRunner(p *Pipeline) *Runner {
	return &Runner{pipeline: p}
}

// TryRun runs the pipeline unless another run is in progress
func (r *Runner) TryRun(ctx context.Context, horizon int) (*contracts.PipelineOutput, error) {
	if !r.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.mu.Unlock()

	return r.pipeline.Run(ctx, horizon)
}
