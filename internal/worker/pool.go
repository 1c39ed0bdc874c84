package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of background work.
type Job func(ctx context.Context) error

type namedJob struct {
	name string
	run  Job
}

// Pool runs a fixed set of registered jobs across count goroutines.
type Pool struct {
	jobs   []namedJob
	count  int
	logger *zap.Logger
	mu     sync.Mutex
}

func NewPool(count int, logger *zap.Logger) *Pool {
	if count < 1 {
		count = 1
	}
	return &Pool{
		count:  count,
		logger: logger,
	}
}

func (p *Pool) Register(name string, job Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, namedJob{name: name, run: job})
}

// Run executes every registered job once and blocks until all have finished or
// ctx is cancelled. Jobs not yet started when ctx is done are skipped. The
// returned error joins every job failure.
func (p *Pool) Run(ctx context.Context) error {
	p.mu.Lock()
	jobs := make([]namedJob, len(p.jobs))
	copy(jobs, p.jobs)
	p.mu.Unlock()

	queue := make(chan namedJob)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	workers := p.count
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range queue {
				if err := p.process(ctx, id, j); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}
		}(i)
	}

	start := time.Now()
feed:
	for _, j := range jobs {
		if ctx.Err() == nil {
			select {
			case queue <- j:
				continue
			case <-ctx.Done():
			}
		}
		mu.Lock()
		errs = append(errs, ctx.Err())
		mu.Unlock()
		break feed
	}
	close(queue)
	wg.Wait()

	p.logger.Info("worker pool finished",
		zap.Int("jobs", len(jobs)),
		zap.Int("workers", workers),
		zap.Int("failed", len(errs)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return errors.Join(errs...)
}

func (p *Pool) process(ctx context.Context, workerID int, j namedJob) error {
	p.logger.Debug("job started", zap.Int("worker", workerID), zap.String("job", j.name))

	if err := j.run(ctx); err != nil {
		p.logger.Warn("job failed", zap.Int("worker", workerID), zap.String("job", j.name), zap.Error(err))
		return fmt.Errorf("%s: %w", j.name, err)
	}

	p.logger.Debug("job completed", zap.Int("worker", workerID), zap.String("job", j.name))
	return nil
}
