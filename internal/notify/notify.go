// Package notify tells organization members about motion activity.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wegovern/governance-api/internal/models"
)

// Dispatcher sends out-of-band notifications about motions.
type Dispatcher interface {
	NotifyMotionStatusChange(ctx context.Context, motionID uint64, status models.MotionStatus) error
	NotifyNewMotion(ctx context.Context, motionID uint64) error
}

// Nop drops every notification.
type Nop struct{}

func (Nop) NotifyMotionStatusChange(context.Context, uint64, models.MotionStatus) error { return nil }
func (Nop) NotifyNewMotion(context.Context, uint64) error                              { return nil }

// Async runs notifications of the wrapped dispatcher in the background so
// callers never wait on mail delivery. Failures are logged.
type Async struct {
	next    Dispatcher
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewAsync wraps next. Each notification gets its own timeout, detached
// from the caller's cancellation.
func NewAsync(next Dispatcher, timeout time.Duration, logger *slog.Logger) *Async {
	if logger == nil {
		logger = slog.Default()
	}
	return &Async{next: next, timeout: timeout, logger: logger.With("component", "notify")}
}

func (a *Async) NotifyMotionStatusChange(ctx context.Context, motionID uint64, status models.MotionStatus) error {
	a.run(ctx, "motion_status_change", motionID, func(ctx context.Context) error {
		return a.next.NotifyMotionStatusChange(ctx, motionID, status)
	})
	return nil
}

func (a *Async) NotifyNewMotion(ctx context.Context, motionID uint64) error {
	a.run(ctx, "new_motion", motionID, func(ctx context.Context) error {
		return a.next.NotifyNewMotion(ctx, motionID)
	})
	return nil
}

// Wait blocks until all pending notifications finish.
func (a *Async) Wait() {
	a.wg.Wait()
}

func (a *Async) run(parent context.Context, kind string, motionID uint64, fn func(context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), a.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			a.logger.Error("notification failed", "kind", kind, "motion_id", motionID, "error", err)
		}
	}()
}
