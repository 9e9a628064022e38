// Package worker runs the background goroutines that warm the feature
// cache: each worker drains the job queue and triggers the read-through
// computation for the requested game.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/okian/gameselect/internal/adapters/mq/queue"
	"github.com/okian/gameselect/internal/domain/feature"
	"github.com/okian/gameselect/internal/domain/model"
	"github.com/okian/gameselect/internal/domain/pbp"
	"github.com/okian/gameselect/pkg/logger"
	"github.com/okian/gameselect/pkg/metrics"
)

const (
	defaultWorkerCount    = 4
	workerShutdownTimeout = 5 * time.Second
)

// Warmer materializes one game's features; the read-through feature cache
// satisfies this.
type Warmer interface {
	GetOrCompute(ctx context.Context, gameID string) (model.FeatureVector, model.GameAttributes, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithWorkerCount sets the number of warm workers.
func WithWorkerCount(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.count = n
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// Pool manages the warm workers.
type Pool struct {
	queue    Queue
	warmer   Warmer
	count    int
	shutdown chan struct{}
	done     []chan struct{}
	logger   logger.Logger
}

// NewPool creates a worker pool over the given queue and warmer.
func NewPool(q Queue, warmer Warmer, opts ...Option) *Pool {
	p := &Pool{
		queue:    q,
		warmer:   warmer,
		count:    defaultWorkerCount,
		shutdown: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.done = make([]chan struct{}, p.count)
	for i := range p.done {
		p.done[i] = make(chan struct{})
	}
	return p
}

// Start launches the workers. They stop when Stop is called, ctx is
// cancelled or the queue is closed and drained.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.count; i++ {
		go p.run(ctx, p.done[i])
	}
}

func (p *Pool) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	jobs := p.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			p.warm(ctx, job)
		}
	}
}

// warm triggers a read-through computation. Degenerate or malformed games
// are expected per-game failures: they are logged and skipped, never
// propagated.
func (p *Pool) warm(ctx context.Context, job queue.Job) {
	_, _, err := p.warmer.GetOrCompute(ctx, job.GameID)
	metrics.RecordWarmJob(err == nil)
	if err == nil || p.logger == nil {
		return
	}
	if errors.Is(err, feature.ErrDegenerateGame) || errors.Is(err, pbp.ErrMalformedEvent) || errors.Is(err, pbp.ErrEmptyGame) {
		p.logger.Warn(ctx, "skipping unextractable game",
			logger.String("gameID", job.GameID),
			logger.Error(err),
		)
		return
	}
	p.logger.Error(ctx, "feature warm failed",
		logger.String("gameID", job.GameID),
		logger.Error(err),
	)
}

// Stop signals the workers to exit and waits for them, up to a per-worker
// timeout. A worker mid-job finishes that job first.
func (p *Pool) Stop() {
	close(p.shutdown)
	for _, done := range p.done {
		select {
		case <-done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}
