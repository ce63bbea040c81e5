package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/shabbat-clock/internal/clock"
	"github.com/nerrad567/shabbat-clock/internal/radio"
	"github.com/nerrad567/shabbat-clock/internal/relay"
	"github.com/nerrad567/shabbat-clock/internal/schedule"
)

// Radio performs one lock-sync exchange. *radio.Protocol satisfies it.
type Radio interface {
	Exchange(cmd radio.Command) (radio.AckResult, error)
}

// TimeSetter accepts an operator-supplied wall-clock time. *clock.System
// satisfies it.
type TimeSetter interface {
	Set(year, month, day, hour, minute, second int) error
}

// Logger is the logging interface used by the engine.
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

// Deps are the collaborators of an Engine. Store, Controller and Clock are
// required; Radio and TimeSetter may be nil.
type Deps struct {
	Store      *schedule.Store
	Controller *relay.Controller
	Clock      clock.Source
	TimeSetter TimeSetter
	Radio      Radio
}

// Status is a point-in-time view of the clock.
type Status struct {
	RelayState   bool       `json:"relay"`
	Mode         relay.Mode `json:"relayMode"`
	LockFlag     bool       `json:"shabbat"`
	TimeValid    bool       `json:"timeValid"`
	Time         string     `json:"time,omitempty"`
	RadioEnabled bool       `json:"radioEnabled"`
	RadioOK      bool       `json:"radioOk"`
	Entries      int        `json:"entries"`
	Capacity     int        `json:"capacity"`
}

// Engine owns the schedule, the relay controller and the mirrored lock flag,
// and exposes the operations callers use to drive them.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Lock requests are serialised end to end, so the lock flag always
//     reflects the last acknowledged command.
type Engine struct {
	store  *schedule.Store
	ctrl   *relay.Controller
	clock  clock.Source
	setter TimeSetter
	radio  Radio
	logger Logger

	lockMu sync.Mutex // held across an exchange and its flag update

	mu       sync.RWMutex
	lockFlag bool
	radioOK  bool
	booted   bool

	obsMu     sync.RWMutex
	observers []Observer
}

// New wires an Engine and registers it as the controller's change handler.
//
// Returns:
//   - *Engine: ready to Restore and Run
//   - error: ErrMissingDependency if Store, Controller or Clock is nil
func New(d Deps) (*Engine, error) {
	switch {
	case d.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingDependency)
	case d.Controller == nil:
		return nil, fmt.Errorf("%w: relay controller", ErrMissingDependency)
	case d.Clock == nil:
		return nil, fmt.Errorf("%w: clock", ErrMissingDependency)
	}

	e := &Engine{
		store:  d.Store,
		ctrl:   d.Controller,
		clock:  d.Clock,
		setter: d.TimeSetter,
		radio:  d.Radio,
		logger: noopLogger{},
	}
	e.ctrl.SetChangeHandler(e.onRelayChange)
	return e, nil
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	e.logger = logger
}

// Restore loads the persisted schedule. A missing blob is an empty schedule.
func (e *Engine) Restore(ctx context.Context) (int, error) {
	n, err := e.store.Restore(ctx)
	if err != nil {
		return 0, err
	}
	e.logger.Info("schedule restored", "entries", n)
	return n, nil
}

// Now returns the current clock reading.
func (e *Engine) Now() clock.Reading {
	return e.clock.Now()
}

// ScheduleUpsert adds or updates one entry.
//
// Returns:
//   - schedule.Outcome: added or updated, also when persistence failed
//   - error: schedule.ErrNoChange, ErrFull or ErrInvalidEntry leave the
//     schedule untouched; schedule.ErrPersistFailed follows an applied change
func (e *Engine) ScheduleUpsert(ctx context.Context, entry schedule.Entry) (schedule.Outcome, error) {
	outcome, err := e.store.Upsert(ctx, entry)
	if applied(err) {
		e.notifyStatus()
	}
	return outcome, err
}

// ScheduleDelete removes the entry at key.
func (e *Engine) ScheduleDelete(ctx context.Context, key schedule.Moment) error {
	err := e.store.Delete(ctx, key)
	if applied(err) {
		e.notifyStatus()
	}
	return err
}

// ScheduleList returns the ordered schedule.
func (e *Engine) ScheduleList() []schedule.Entry {
	return e.store.List()
}

// ScheduleClear empties the schedule and wipes the persisted blob.
func (e *Engine) ScheduleClear(ctx context.Context) error {
	err := e.store.Clear(ctx)
	e.notifyStatus()
	return err
}

// applied reports whether a store mutation took effect in memory.
func applied(err error) bool {
	return err == nil || errors.Is(err, schedule.ErrPersistFailed)
}

// SetManual forces the relay on or off and leaves AUTO.
func (e *Engine) SetManual(ctx context.Context, on bool) error {
	err := e.ctrl.SetManual(ctx, on)
	e.notifyStatus()
	return err
}

// SetAuto enters AUTO mode, anticipating the next scheduled event when the
// clock is valid.
func (e *Engine) SetAuto(ctx context.Context) error {
	err := e.ctrl.SetAuto(ctx, e.clock.Now())
	e.notifyStatus()
	return err
}

// Tick applies the entry due now in AUTO mode. It does nothing on an invalid
// clock reading.
func (e *Engine) Tick(ctx context.Context) (bool, error) {
	return e.ctrl.Tick(ctx, e.clock.Now())
}

// SetTime sets the wall clock, after which the time is valid. In AUTO mode
// the relay then resumes the most recent scheduled state.
func (e *Engine) SetTime(ctx context.Context, year, month, day, hour, minute, second int) error {
	if e.setter == nil {
		return ErrClockReadOnly
	}
	if err := e.setter.Set(year, month, day, hour, minute, second); err != nil {
		return err
	}
	e.logger.Info("clock set manually", "time", e.clock.Now().Time)

	var err error
	if e.ctrl.Mode() == relay.ModeAuto {
		_, err = e.ctrl.ResumeAtBoot(ctx, e.clock.Now())
	}
	if err == nil {
		e.markBooted()
	}
	e.notifyStatus()
	return err
}

// RequestLock asks the paired unit to enter (lock=true) or leave the locked
// state, and mirrors the flag locally only after it acknowledges.
//
// ctx is checked before the command is sent; once on air the exchange runs
// to acknowledgment or timeout.
//
// Returns:
//   - radio.AckResult: outcome of the exchange, zero if nothing was sent
//   - error: ErrRadioDisabled, ErrRemoteUnreachable wrapping the radio error,
//     or the context error
func (e *Engine) RequestLock(ctx context.Context, lock bool) (radio.AckResult, error) {
	if e.radio == nil {
		return radio.AckResult{}, ErrRadioDisabled
	}

	e.lockMu.Lock()
	defer e.lockMu.Unlock()

	if err := ctx.Err(); err != nil {
		return radio.AckResult{}, err
	}

	result, err := e.radio.Exchange(radio.CommandFor(lock))

	e.mu.Lock()
	e.radioOK = err == nil && result.Acked()
	if e.radioOK {
		e.lockFlag = lock
	}
	e.mu.Unlock()

	e.notifyLock(result)

	if err != nil {
		e.logger.Warn("lock request not acknowledged", "lock", lock, "error", err)
		return result, fmt.Errorf("%w: %w", ErrRemoteUnreachable, err)
	}
	e.logger.Info("lock flag updated", "lock", lock, "elapsed", result.Elapsed)
	return result, nil
}

// Status returns a snapshot of relay, mode, lock flag and clock validity.
func (e *Engine) Status() Status {
	now := e.clock.Now()

	e.mu.RLock()
	lock, radioOK := e.lockFlag, e.radioOK
	e.mu.RUnlock()

	return Status{
		RelayState:   e.ctrl.State(),
		Mode:         e.ctrl.Mode(),
		LockFlag:     lock,
		TimeValid:    now.Valid,
		Time:         now.HHMM(),
		RadioEnabled: e.radio != nil,
		RadioOK:      radioOK,
		Entries:      e.store.Len(),
		Capacity:     e.store.Capacity(),
	}
}
