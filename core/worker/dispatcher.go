package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned by Submit when the bounded queue has no room.
	ErrQueueFull = errors.New("worker: queue full")
	// ErrStopped is returned by Submit after Stop has been called.
	ErrStopped = errors.New("worker: dispatcher stopped")
)

// Job is a named unit of background work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Config sizes the dispatcher.
type Config struct {
	Workers   int
	QueueSize int
}

// Dispatcher runs submitted jobs on a fixed set of goroutines fed by a bounded queue.
type Dispatcher struct {
	queue  chan Job
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher starts cfg.Workers goroutines.
func NewDispatcher(cfg Config, logger *zap.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		queue:  make(chan Job, cfg.QueueSize),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.loop(i)
	}
	return d
}

// Submit enqueues job without blocking.
func (d *Dispatcher) Submit(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return ErrStopped
	}

	select {
	case d.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop drains queued jobs and waits for workers, or cancels them when ctx expires.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) loop(id int) {
	defer d.wg.Done()
	for job := range d.queue {
		d.run(id, job)
	}
}

func (d *Dispatcher) run(id int, job Job) {
	l := d.logger.With(zap.Int("worker", id), zap.String("job", job.Name))

	defer func() {
		if r := recover(); r != nil {
			l.Error("Job panicked", zap.Error(fmt.Errorf("panic: %v", r)))
		}
	}()

	if err := job.Run(d.ctx); err != nil {
		l.Warn("Job failed", zap.Error(err))
		return
	}
	l.Debug("Job finished")
}
