package engine

import "errors"

var (
	// ErrRemoteUnreachable is returned by RequestLock when the paired unit did
	// not acknowledge. The local lock flag is unchanged.
	ErrRemoteUnreachable = errors.New("engine: remote unit unreachable")

	// ErrRadioDisabled is returned by RequestLock when no radio is configured.
	ErrRadioDisabled = errors.New("engine: radio disabled")

	// ErrClockReadOnly is returned by SetTime when the clock cannot be set.
	ErrClockReadOnly = errors.New("engine: clock cannot be set")

	// ErrMissingDependency is returned by New when a required collaborator is nil.
	ErrMissingDependency = errors.New("engine: missing dependency")
)
