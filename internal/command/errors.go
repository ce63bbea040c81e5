package command

import "errors"

var (
	// ErrUnsupported is returned for a token outside the vocabulary.
	ErrUnsupported = errors.New("command: unsupported command")

	// ErrMalformed is returned for a payload that is not valid JSON.
	ErrMalformed = errors.New("command: malformed payload")
)
