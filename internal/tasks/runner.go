package tasks

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Runner tracks background continuations so a shutdown can drain them
// instead of dropping work that was already acknowledged to the caller.
type Runner struct {
	log *zap.Logger
	wg  sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewRunner(log *zap.Logger) *Runner {
	return &Runner{log: log.Named("tasks")}
}

// Go runs fn on its own goroutine. Panics are recovered and logged so a
// single bad continuation cannot take the process down. The task context
// carries no deadline: each dependency call already has its own timeout,
// and an accepted continuation must be allowed to record its outcome.
// Returns false if the runner is already draining.
func (r *Runner) Go(name string, fn func(ctx context.Context)) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.log.Warn("task rejected, runner draining", zap.String("task", name))
		return false
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("task panicked",
					zap.String("task", name),
					zap.Any("panic", rec),
				)
			}
		}()

		fn(context.Background())
	}()
	return true
}

// Drain stops accepting new tasks and waits for in-flight ones, bounded by
// the given context.
func (r *Runner) Drain(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		r.log.Warn("drain timed out with tasks still running")
		return ctx.Err()
	}
}
