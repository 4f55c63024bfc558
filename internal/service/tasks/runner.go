// Package tasks provides a tracked runner for detached background work.
//
// The push-path evaluation must run after the webhook response is sent, yet
// it cannot be a bare goroutine: the process has to drain in-flight work on
// shutdown and every task needs its own error containment. Runner tracks
// each task with a WaitGroup, recovers panics, and bounds task lifetime.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Runner spawns and tracks background tasks.
type Runner struct {
	timeout time.Duration
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewRunner constructs a Runner. timeout bounds each task; zero means no
// per-task deadline.
func NewRunner(timeout time.Duration) *Runner {
	return &Runner{timeout: timeout}
}

// Go runs fn on a new goroutine detached from the caller's cancellation:
// the task keeps the caller's context values (request id, trace) but
// survives response teardown. Returns false if the runner is draining.
func (r *Runner) Go(ctx context.Context, name string, fn func(ctx context.Context)) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		slog.Warn("task rejected, runner draining", slog.String("task", name))
		return false
	}
	r.wg.Add(1)
	r.mu.Unlock()

	taskCtx := context.WithoutCancel(ctx)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("task panicked", slog.String("task", name), slog.Any("recover", rec))
			}
		}()
		if r.timeout > 0 {
			var cancel context.CancelFunc
			taskCtx, cancel = context.WithTimeout(taskCtx, r.timeout)
			defer cancel()
		}
		fn(taskCtx)
	}()
	return true
}

// Drain stops accepting new tasks and waits for in-flight ones, or returns
// an error when ctx expires first.
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
		return fmt.Errorf("op=tasks.Drain: %w", ctx.Err())
	}
}
