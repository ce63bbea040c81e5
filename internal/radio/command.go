package radio

import "fmt"

// Command is a token understood by the paired remote unit.
type Command string

const (
	// CommandLock puts the remote into Shabbat (locked) mode.
	CommandLock Command = "shabbat"

	// CommandUnlock returns the remote to weekday (unlocked) mode.
	CommandUnlock Command = "week"
)

// CommandFor returns the command that sets the remote lock flag.
func CommandFor(lock bool) Command {
	if lock {
		return CommandLock
	}
	return CommandUnlock
}

// ParseCommand converts a token to a Command.
func ParseCommand(s string) (Command, error) {
	switch c := Command(s); c {
	case CommandLock, CommandUnlock:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCommand, s)
	}
}

// Locks reports whether the command sets the lock flag.
func (c Command) Locks() bool {
	return c == CommandLock
}

// State is the per-request protocol state.
type State int

const (
	StateIdle State = iota
	StateSent
	StateAcked
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSent:
		return "sent"
	case StateAcked:
		return "acked"
	case StateTimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
