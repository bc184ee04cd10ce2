// Package workerpool runs submitted tasks on a fixed number of goroutines fed
// from a bounded FIFO queue.
package workerpool

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrQueueFull is returned when the queue cannot accept another task.
	ErrQueueFull = errors.New("worker queue is full")
	// ErrClosed is returned when submitting to a pool that is shutting down.
	ErrClosed = errors.New("worker pool is closed")
)

// Task is a unit of work executed by a pool worker.
type Task func()

// Pool executes tasks asynchronously with fixed concurrency.
type Pool struct {
	queue  chan Task
	group  errgroup.Group
	done   chan struct{}
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// New starts a pool with the given number of workers and queue capacity.
func New(workers, queueSize int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	p := &Pool{
		queue:  make(chan Task, queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	p.group.SetLimit(workers)
	go p.dispatch()
	return p
}

func (p *Pool) dispatch() {
	defer close(p.done)
	for task := range p.queue {
		// Go blocks while every worker is busy, keeping the rest queued.
		p.group.Go(func() error {
			p.run(task)
			return nil
		})
	}
}

func (p *Pool) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic recovered in worker task", "panic", r)
		}
	}()
	task()
}

// Submit enqueues task without waiting for it to run.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting tasks and waits until every queued and running task
// has finished or ctx is done.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		<-p.done
		_ = p.group.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
