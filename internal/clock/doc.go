// Package clock supplies localised wall-clock readings tagged valid or invalid.
//
// The relay logic never actuates on an invalid reading. A System clock starts
// invalid unless it is configured to trust the host time; an operator can
// mark it valid by setting the time explicitly.
package clock
