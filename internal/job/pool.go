package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// PoolConfig holds worker pool configuration
type PoolConfig struct {
	Logger      *slog.Logger
	Concurrency int
	QueueSize   int
}

// Pool runs tasks on a fixed number of worker goroutines fed by a bounded
// backlog. Submission never blocks the request path.
type Pool struct {
	logger      *slog.Logger
	concurrency int
	handle      func(context.Context, Task)

	jobsChan chan Task
	stopChan chan struct{}
	wg       sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a pool that hands each task to handle
func NewPool(cfg *PoolConfig, handle func(context.Context, Task)) *Pool {
	return &Pool{
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
		handle:      handle,
		jobsChan:    make(chan Task, cfg.QueueSize),
		stopChan:    make(chan struct{}),
	}
}

// Start spawns the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("Spawning worker pool",
		slog.Int("concurrency", p.concurrency),
		slog.Int("queue_size", cap(p.jobsChan)),
	)

	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.workerLoop(ctx, i)
	}
}

// Submit enqueues task or fails immediately when the backlog is full
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.jobsChan <- task:
		p.logger.Debug("Job dispatched to worker pool",
			slog.String("job_id", task.JobID),
			slog.Int("backlog", len(p.jobsChan)),
		)
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop stops the workers, waits for in-flight tasks and returns the tasks
// that never left the backlog.
func (p *Pool) Stop() []Task {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.stopChan)
	p.mu.Unlock()

	p.logger.Info("Stopping worker pool...")
	p.wg.Wait()

	var pending []Task
	for {
		select {
		case task := <-p.jobsChan:
			pending = append(pending, task)
		default:
			p.logger.Info("Worker pool stopped",
				slog.Int("abandoned", len(pending)),
			)
			return pending
		}
	}
}

// Backlog returns the number of queued tasks
func (p *Pool) Backlog() int {
	return len(p.jobsChan)
}

func (p *Pool) workerLoop(ctx context.Context, workerNum int) {
	defer p.wg.Done()

	workerName := fmt.Sprintf("worker-%d", workerNum)
	p.logger.Debug("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		// stop wins over queued work
		select {
		case <-p.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}

		select {
		case <-p.stopChan:
			p.logger.Debug("Worker goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			p.logger.Debug("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case task := <-p.jobsChan:
			p.logger.Info("Worker received job",
				slog.String("worker_name", workerName),
				slog.String("job_id", task.JobID),
			)
			p.handle(ctx, task)
		}
	}
}
