package relay

import "errors"

var (
	// ErrInvalidMode is returned when parsing an unknown mode string.
	ErrInvalidMode = errors.New("relay: invalid mode")

	// ErrActuator wraps a failure to drive the physical output. The committed
	// relay state is left unchanged when it is returned.
	ErrActuator = errors.New("relay: actuator failed")
)
