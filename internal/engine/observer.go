package engine

import (
	"github.com/nerrad567/shabbat-clock/internal/radio"
	"github.com/nerrad567/shabbat-clock/internal/relay"
)

// Observer is notified after state changes. Calls are synchronous on the
// goroutine that caused the change and must not call back into the Engine's
// mutating operations.
type Observer interface {
	// RelayChanged follows every relay commit.
	RelayChanged(change relay.Change, status Status)

	// LockExchanged follows every lock-sync exchange, acknowledged or not.
	LockExchanged(result radio.AckResult, status Status)

	// StatusChanged follows schedule mutations, mode changes and time sets.
	StatusChanged(status Status)
}

// AddObserver registers o. Register observers before Run.
func (e *Engine) AddObserver(o Observer) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.observers = append(e.observers, o)
}

func (e *Engine) snapshotObservers() []Observer {
	e.obsMu.RLock()
	defer e.obsMu.RUnlock()
	return append([]Observer(nil), e.observers...)
}

func (e *Engine) onRelayChange(change relay.Change) {
	st := e.Status()
	for _, o := range e.snapshotObservers() {
		o.RelayChanged(change, st)
	}
}

func (e *Engine) notifyLock(result radio.AckResult) {
	st := e.Status()
	for _, o := range e.snapshotObservers() {
		o.LockExchanged(result, st)
	}
}

func (e *Engine) notifyStatus() {
	st := e.Status()
	for _, o := range e.snapshotObservers() {
		o.StatusChanged(st)
	}
}
