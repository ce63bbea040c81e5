package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nerrad567/shabbat-clock/internal/radio"
)

// Command is one word of the closed operator vocabulary.
type Command string

const (
	RelayOn   Command = "relay_on"
	RelayOff  Command = "relay_off"
	RelayAuto Command = "relay_auto"
	Shabbat   Command = "shabbat"
	Week      Command = "week"
)

// All returns the vocabulary in display order.
func All() []Command {
	return []Command{RelayOn, RelayOff, RelayAuto, Shabbat, Week}
}

// Parse maps a token to a Command. Surrounding whitespace is ignored; the
// token itself is case-sensitive.
func Parse(s string) (Command, error) {
	c := Command(strings.TrimSpace(s))
	switch c {
	case RelayOn, RelayOff, RelayAuto, Shabbat, Week:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, s)
	}
}

// ParsePayload accepts a bare token, a JSON string, or a JSON object with a
// "command" field, as sent on the MQTT command topic.
func ParsePayload(payload []byte) (Command, error) {
	trimmed := bytes.TrimSpace(payload)
	switch {
	case len(trimmed) == 0:
		return "", fmt.Errorf("%w: empty payload", ErrUnsupported)
	case trimmed[0] == '{':
		var body struct {
			Command string `json:"command"`
		}
		if err := json.Unmarshal(trimmed, &body); err != nil {
			return "", fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return Parse(body.Command)
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return Parse(s)
	default:
		return Parse(string(trimmed))
	}
}

// Target is the set of operations a command can invoke. *engine.Engine
// satisfies it.
type Target interface {
	SetManual(ctx context.Context, on bool) error
	SetAuto(ctx context.Context) error
	RequestLock(ctx context.Context, lock bool) (radio.AckResult, error)
}

// Dispatch runs c against t and returns the operation's error.
func Dispatch(ctx context.Context, t Target, c Command) error {
	switch c {
	case RelayOn:
		return t.SetManual(ctx, true)
	case RelayOff:
		return t.SetManual(ctx, false)
	case RelayAuto:
		return t.SetAuto(ctx)
	case Shabbat:
		_, err := t.RequestLock(ctx, true)
		return err
	case Week:
		_, err := t.RequestLock(ctx, false)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnsupported, string(c))
	}
}
