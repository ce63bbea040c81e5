package engine

import (
	"context"
	"time"
)

// DefaultTickInterval keeps well inside the one-minute schedule resolution.
const DefaultTickInterval = 10 * time.Second

// Run drives the controller until ctx is cancelled.
//
// On the first valid clock reading it resumes the most recent scheduled
// state, retrying each interval until the actuator accepts it; every later
// interval it applies the entry due now. Invalid readings are skipped.
// Missed intervals are not replayed.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.step(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.step(ctx)
		}
	}
}

// step runs one scheduling pass.
func (e *Engine) step(ctx context.Context) {
	now := e.clock.Now()
	if !now.Valid {
		return
	}

	e.mu.Lock()
	first := !e.booted
	e.mu.Unlock()

	// A failed resume is retried on the next valid reading.
	if first {
		resumed, err := e.ctrl.ResumeAtBoot(ctx, now)
		if err != nil {
			e.logger.Error("resume at boot failed, will retry", "error", err)
			return
		}
		e.markBooted()
		e.logger.Info("clock valid, resumed schedule", "time", now.Moment.String(), "resumed", resumed)
		return
	}

	if _, err := e.ctrl.Tick(ctx, now); err != nil {
		e.logger.Error("tick failed", "error", err)
	}
}

func (e *Engine) markBooted() {
	e.mu.Lock()
	e.booted = true
	e.mu.Unlock()
}
