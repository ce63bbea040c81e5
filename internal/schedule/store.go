package schedule

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/nerrad567/shabbat-clock/internal/storage"
)

// DefaultCapacity is the number of entries a Store holds when none is configured.
const DefaultCapacity = 32

// Outcome describes a successful upsert.
type Outcome string

const (
	OutcomeAdded   Outcome = "added"
	OutcomeUpdated Outcome = "updated"
)

// Persister saves and restores the opaque schedule blob.
// storage.SQLiteStore and storage.FileStore satisfy it.
type Persister interface {
	Save(ctx context.Context, data []byte) error
	Load(ctx context.Context) ([]byte, error)
	Wipe(ctx context.Context) error
}

// Logger is the logging interface used by the Store.
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

// Store is the capacity-bounded, ordered weekly schedule.
//
// Every mutation runs sort → normalise → persist under one lock, so readers
// see either the previous snapshot or the next one, never an intermediate.
// A persistence failure is returned wrapped in ErrPersistFailed but does not
// roll back the in-memory mutation.
type Store struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	persist  Persister
	logger   Logger
}

// NewStore creates an empty store.
//
// Parameters:
//   - capacity: maximum entry count (clamped to 1..MaxCapacity; 0 means DefaultCapacity)
//   - persist: blob persistence (may be nil for a memory-only store)
func NewStore(capacity int, persist Persister) *Store {
	switch {
	case capacity == 0:
		capacity = DefaultCapacity
	case capacity < 1:
		capacity = 1
	case capacity > MaxCapacity:
		capacity = MaxCapacity
	}
	return &Store{
		capacity: capacity,
		persist:  persist,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.logger = logger
}

// Capacity returns the maximum number of entries.
func (s *Store) Capacity() int {
	return s.capacity
}

// Len returns the current number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// List returns a sorted copy of the schedule.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// Upsert adds an entry or replaces the state of an existing entry with the same key.
//
// Returns:
//   - OutcomeUpdated when the key existed with a different state
//   - OutcomeAdded when the key was new and capacity remained
//   - ErrNoChange when the key exists with the same state
//   - ErrFull when the key is new and the store is at capacity
//   - ErrInvalidEntry when the key is out of range
//
// When saving fails the outcome is still returned together with an error
// wrapping ErrPersistFailed.
func (s *Store) Upsert(ctx context.Context, e Entry) (Outcome, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.Clone(s.entries)
	var outcome Outcome

	idx := slices.IndexFunc(next, func(x Entry) bool { return x.Key() == e.Key() })
	switch {
	case idx >= 0 && next[idx].On == e.On:
		return "", ErrNoChange
	case idx >= 0:
		next[idx].On = e.On
		outcome = OutcomeUpdated
	case len(next) >= s.capacity:
		return "", fmt.Errorf("%w: capacity %d reached", ErrFull, s.capacity)
	default:
		next = append(next, e)
		outcome = OutcomeAdded
	}

	s.commit(next)
	s.logger.Info("schedule entry stored", "entry", e.Key().String(), "on", e.On, "outcome", outcome, "count", len(s.entries))

	return outcome, s.save(ctx)
}

// Delete removes the entry with the given key.
//
// Returns ErrNotFound when no entry matches, ErrInvalidEntry when the key is
// out of range, or an error wrapping ErrPersistFailed when the removal was
// applied but could not be saved.
func (s *Store) Delete(ctx context.Context, key Moment) error {
	if err := key.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.entries, func(x Entry) bool { return x.Key() == key })
	if idx < 0 {
		return ErrNotFound
	}

	next := slices.Delete(slices.Clone(s.entries), idx, idx+1)
	s.commit(next)
	s.logger.Info("schedule entry deleted", "entry", key.String(), "count", len(s.entries))

	return s.save(ctx)
}

// Clear empties the schedule and wipes the persisted blob.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.logger.Info("schedule cleared")

	if s.persist == nil {
		return nil
	}
	if err := s.persist.Wipe(ctx); err != nil {
		s.logger.Error("wiping schedule storage failed", "error", err)
		return fmt.Errorf("%w: wipe: %w", ErrPersistFailed, err)
	}
	return nil
}

// Load replaces the schedule with the contents of a persisted blob.
//
// Entries are sorted but not normalised. On ErrCorrupt the schedule is left
// empty.
//
// Returns:
//   - int: number of entries loaded
//   - error: ErrCorrupt if the blob holds invalid records
func (s *Store) Load(data []byte) (int, error) {
	entries, err := Decode(data, s.capacity)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.entries = nil
		return 0, err
	}
	s.entries = entries
	return len(entries), nil
}

// Restore loads the schedule from the persister. A missing blob yields an
// empty schedule without error.
func (s *Store) Restore(ctx context.Context) (int, error) {
	if s.persist == nil {
		return 0, nil
	}

	data, err := s.persist.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Info("no saved schedule found")
		_, _ = s.Load(nil)
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("loading schedule: %w", err)
	}

	n, err := s.Load(data)
	if err != nil {
		return 0, err
	}
	s.logger.Info("schedule loaded", "count", n)
	return n, nil
}

// commit sorts, normalises and swaps in a new entry slice. Caller holds s.mu.
func (s *Store) commit(next []Entry) {
	Sort(next)
	s.entries = Normalize(next)
}

// save persists the current entries. Caller holds s.mu.
func (s *Store) save(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist.Save(ctx, Encode(s.entries)); err != nil {
		s.logger.Error("saving schedule failed", "error", err)
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	s.logger.Debug("schedule saved", "count", len(s.entries))
	return nil
}
