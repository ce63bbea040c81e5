package relay

import "fmt"

// Mode selects who decides the relay state.
type Mode string

const (
	// ModeManualOn holds the relay on regardless of the schedule.
	ModeManualOn Mode = "manual_on"

	// ModeManualOff holds the relay off regardless of the schedule.
	ModeManualOff Mode = "manual_off"

	// ModeAuto follows the weekly schedule.
	ModeAuto Mode = "auto"
)

// ParseMode converts a configuration or wire string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeManualOn, ModeManualOff, ModeAuto:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Manual returns the manual mode holding the relay in the given state.
func Manual(on bool) Mode {
	if on {
		return ModeManualOn
	}
	return ModeManualOff
}

// Cause records why the controller committed a relay state.
type Cause string

const (
	CauseManual   Cause = "manual"
	CauseAuto     Cause = "auto_enter"
	CauseSchedule Cause = "schedule"
	CauseResume   Cause = "resume"
)
