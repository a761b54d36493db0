package async

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrPoolShutdown is returned when submitting to a pool that is shut down
var ErrPoolShutdown = errors.New("worker pool shut down")

var logger atomic.Pointer[logrus.Logger]

// SetLogger installs the logger used for task failures and panics. nil
// restores the logrus standard logger.
func SetLogger(l *logrus.Logger) {
	logger.Store(l)
}

func currentLogger() *logrus.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return logrus.StandardLogger()
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// SafeGo executes fn in a goroutine with panic recovery and a timeout. A
// timeout <= 0 only inherits the deadline of parentCtx. Errors are logged,
// not returned.
func SafeGo(parentCtx context.Context, timeout time.Duration, taskName string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := withTimeout(parentCtx, timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				currentLogger().WithFields(logrus.Fields{
					"task":  taskName,
					"panic": r,
					"stack": string(debug.Stack()),
				}).Error("Recovered panic in background task")
			}
		}()

		if err := fn(ctx); err != nil {
			currentLogger().WithField("task", taskName).WithError(err).Warn("Background task failed")
		}
	}()
}

// WorkerPool runs submitted tasks on a fixed number of workers
type WorkerPool struct {
	taskName string
	timeout  time.Duration
	workCh   chan func(context.Context) error
	doneCh   chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc

	mu     sync.Mutex
	closed bool

	errMu sync.Mutex
	errs  []error
}

// NewWorkerPool starts workers goroutines. Each task gets its own timeout.
func NewWorkerPool(ctx context.Context, workers int, taskName string, timeout time.Duration) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)

	pool := &WorkerPool{
		taskName: taskName,
		timeout:  timeout,
		workCh:   make(chan func(context.Context) error, workers*2),
		doneCh:   make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			pool.worker(id)
		}(i)
	}
	go func() {
		wg.Wait()
		close(pool.doneCh)
	}()

	return pool
}

// Submit queues fn. It blocks while the queue is full.
func (p *WorkerPool) Submit(fn func(context.Context) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolShutdown
	}

	select {
	case p.workCh <- fn:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("%w: %v", ErrPoolShutdown, p.ctx.Err())
	}
}

// Wait stops accepting tasks and blocks until queued tasks finish
func (p *WorkerPool) Wait() {
	p.close()
	<-p.doneCh
	p.cancel()
}

// Shutdown stops accepting tasks and waits up to timeout for queued tasks
func (p *WorkerPool) Shutdown(timeout time.Duration) error {
	p.close()
	select {
	case <-p.doneCh:
		p.cancel()
		return nil
	case <-time.After(timeout):
		p.cancel()
		return fmt.Errorf("worker pool shutdown timed out after %v", timeout)
	}
}

// Errors returns the errors of finished tasks so far
func (p *WorkerPool) Errors() []error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	errs := make([]error, len(p.errs))
	copy(errs, p.errs)
	return errs
}

func (p *WorkerPool) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.workCh)
	}
}

func (p *WorkerPool) record(err error) {
	p.errMu.Lock()
	p.errs = append(p.errs, err)
	p.errMu.Unlock()
}

func (p *WorkerPool) worker(id int) {
	for fn := range p.workCh {
		if err := p.ctx.Err(); err != nil {
			p.record(err)
			continue
		}
		p.run(id, fn)
	}
}

func (p *WorkerPool) run(id int, fn func(context.Context) error) {
	ctx, cancel := withTimeout(p.ctx, p.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			currentLogger().WithFields(logrus.Fields{
				"task":   p.taskName,
				"worker": id,
				"panic":  r,
				"stack":  string(debug.Stack()),
			}).Error("Recovered panic in worker")
			p.record(fmt.Errorf("%s: panic: %v", p.taskName, r))
		}
	}()

	if err := fn(ctx); err != nil {
		p.record(err)
	}
}

// Batch processes items on a pool of workers and returns every error. A
// context canceled before the batch starts fails the whole batch.
func Batch[T any](ctx context.Context, items []T, workers int, taskName string, timeout time.Duration,
	fn func(context.Context, T) error) []error {

	if err := ctx.Err(); err != nil {
		return []error{err}
	}

	pool := NewWorkerPool(ctx, workers, taskName, timeout)
	for _, item := range items {
		item := item
		if err := pool.Submit(func(ctx context.Context) error {
			return fn(ctx, item)
		}); err != nil {
			pool.record(err)
			break
		}
	}
	pool.Wait()
	return pool.Errors()
}
