// Package tasks runs best-effort background work that must outlive the
// request that scheduled it.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultTaskTimeout = 30 * time.Second

// Runner executes deferred tasks on their own goroutines. Tasks are detached
// from the scheduling context's cancellation, so a finished request does not
// abort them. Failures are logged, never returned to the scheduler.
type Runner struct {
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *slog.Logger
}

// NewRunner creates a Runner. A non-positive timeout uses the default.
func NewRunner(timeout time.Duration, logger *slog.Logger) *Runner {
	if timeout <= 0 {
		timeout = defaultTaskTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{timeout: timeout, logger: logger}
}

// Defer schedules task and returns immediately.
func (r *Runner) Defer(ctx context.Context, name string, task func(context.Context) error) {
	id := uuid.NewString()
	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()

		started := time.Now()
		if err := r.run(taskCtx, task); err != nil {
			r.logger.WarnContext(taskCtx, "Deferred task failed",
				"task", name,
				"task_id", id,
				"duration", time.Since(started),
				"error", err,
			)
			return
		}
		r.logger.DebugContext(taskCtx, "Deferred task completed",
			"task", name,
			"task_id", id,
			"duration", time.Since(started),
		)
	}()
}

func (r *Runner) run(ctx context.Context, task func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return task(ctx)
}

// Drain blocks until all scheduled tasks have finished or ctx is done.
func (r *Runner) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("abandoning deferred tasks: %w", ctx.Err())
	}
}
