package schedule

import "errors"

// Domain errors for schedule operations.
//
// Rejections (ErrNoChange, ErrFull, ErrNotFound, ErrInvalidEntry) leave the
// schedule untouched. ErrPersistFailed is reported alongside a mutation that
// has already been applied in memory.
var (
	// ErrNoChange is returned when an identical entry (same key and state) already exists.
	ErrNoChange = errors.New("schedule: no change")

	// ErrFull is returned when adding a new key would exceed the capacity.
	ErrFull = errors.New("schedule: full")

	// ErrNotFound is returned when deleting a key that is not scheduled.
	ErrNotFound = errors.New("schedule: entry not found")

	// ErrInvalidEntry is returned when weekday, hour or minute is out of range.
	ErrInvalidEntry = errors.New("schedule: invalid entry")

	// ErrCorrupt is returned when a persisted blob holds out-of-range or duplicate records.
	ErrCorrupt = errors.New("schedule: corrupt blob")

	// ErrPersistFailed wraps a storage failure after an in-memory mutation succeeded.
	ErrPersistFailed = errors.New("schedule: persist failed")
)
