package clock

import "errors"

// ErrInvalidTime is returned by Set for out-of-range or non-existent dates.
var ErrInvalidTime = errors.New("clock: invalid time")
