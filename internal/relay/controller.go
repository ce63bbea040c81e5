package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/shabbat-clock/internal/clock"
	"github.com/nerrad567/shabbat-clock/internal/schedule"
)

// Schedule is the read side of the schedule store.
type Schedule interface {
	List() []schedule.Entry
}

// Actuator drives the physical relay output.
type Actuator interface {
	Set(ctx context.Context, on bool) error
}

// Logger is the logging interface used by the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Change describes one commit of the relay state.
type Change struct {
	Mode    Mode
	On      bool
	Cause   Cause
	Flipped bool // the output differs from the previous commit
}

// ChangeHandler is called after every commit, outside the controller lock.
type ChangeHandler func(Change)

// Controller is the relay mode state machine and the only writer of the
// relay output.
//
// Every operation either commits a new state through the actuator or leaves
// the state unchanged. If the actuator fails, the mode transition still
// applies but the recorded state keeps its previous value.
type Controller struct {
	mu       sync.Mutex
	mode     Mode
	on       bool
	sched    Schedule
	actuator Actuator
	logger   Logger
	onChange ChangeHandler
}

// NewController creates a controller in the given starting mode. The relay
// state starts off, matching the output's power-on default.
func NewController(mode Mode, sched Schedule, actuator Actuator) *Controller {
	return &Controller{
		mode:     mode,
		sched:    sched,
		actuator: actuator,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.logger = logger
}

// SetChangeHandler registers the commit callback.
func (c *Controller) SetChangeHandler(h ChangeHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = h
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// State returns the committed relay state.
func (c *Controller) State() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.on
}

// SetManual switches to MANUAL_ON or MANUAL_OFF and commits the state
// immediately, whether or not the time is valid.
func (c *Controller) SetManual(ctx context.Context, on bool) error {
	c.mu.Lock()
	c.mode = Manual(on)
	change, err := c.commitLocked(ctx, on, CauseManual)
	c.mu.Unlock()

	return c.finish(change, err)
}

// SetAuto switches to AUTO. With a valid reading and a non-empty schedule the
// relay is set opposite to the next scheduled event; otherwise it is left
// for the next tick.
func (c *Controller) SetAuto(ctx context.Context, now clock.Reading) error {
	c.mu.Lock()
	c.mode = ModeAuto
	target, ok := AnticipateNext(c.sched.List(), now)
	if !ok {
		c.mu.Unlock()
		c.logger.Info("relay mode auto, no upcoming event", "time_valid", now.Valid)
		return nil
	}
	change, err := c.commitLocked(ctx, target, CauseAuto)
	c.mu.Unlock()

	return c.finish(change, err)
}

// Tick applies the entry due today in AUTO mode. It is a no-op in manual
// modes, on an invalid reading, or when the due state already holds.
//
// Returns whether the relay flipped.
func (c *Controller) Tick(ctx context.Context, now clock.Reading) (bool, error) {
	c.mu.Lock()
	if c.mode != ModeAuto {
		c.mu.Unlock()
		return false, nil
	}
	target, ok := ApplyDue(c.sched.List(), now)
	if !ok || target == c.on {
		c.mu.Unlock()
		return false, nil
	}
	change, err := c.commitLocked(ctx, target, CauseSchedule)
	c.mu.Unlock()

	if err := c.finish(change, err); err != nil {
		return false, err
	}
	return change.Flipped, nil
}

// ResumeAtBoot commits the state of the most recent past entry, in any mode.
// Intended to run once when the clock first becomes valid after power-on.
//
// Returns whether a state was committed.
func (c *Controller) ResumeAtBoot(ctx context.Context, now clock.Reading) (bool, error) {
	c.mu.Lock()
	target, ok := ResumeLast(c.sched.List(), now)
	if !ok {
		c.mu.Unlock()
		return false, nil
	}
	change, err := c.commitLocked(ctx, target, CauseResume)
	c.mu.Unlock()

	if err := c.finish(change, err); err != nil {
		return false, err
	}
	return true, nil
}

// commitLocked drives the actuator and records the new state. Caller holds c.mu.
func (c *Controller) commitLocked(ctx context.Context, on bool, cause Cause) (Change, error) {
	if err := c.actuator.Set(ctx, on); err != nil {
		return Change{}, fmt.Errorf("%w: %w", ErrActuator, err)
	}

	change := Change{Mode: c.mode, On: on, Cause: cause, Flipped: on != c.on}
	c.on = on
	return change, nil
}

// finish logs the outcome of a commit and notifies the change handler.
func (c *Controller) finish(change Change, err error) error {
	if err != nil {
		c.logger.Error("relay commit failed", "error", err)
		return err
	}

	c.logger.Info("relay committed", "mode", change.Mode, "cause", change.Cause, "on", change.On, "flipped", change.Flipped)

	c.mu.Lock()
	h := c.onChange
	c.mu.Unlock()
	if h != nil {
		h(change)
	}
	return nil
}
