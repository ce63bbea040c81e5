package storage

import "errors"

var (
	// ErrNotFound is returned by Load when no blob has been saved.
	ErrNotFound = errors.New("storage: blob not found")

	// ErrUnknownBackend is reported for an unsupported storage backend name.
	ErrUnknownBackend = errors.New("storage: unknown backend")
)
