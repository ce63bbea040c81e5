package command

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/shabbat-clock/internal/radio"
)

type call struct {
	op  string
	arg bool
}

type mockTarget struct {
	calls   []call
	lockErr error
}

func (m *mockTarget) SetManual(_ context.Context, on bool) error {
	m.calls = append(m.calls, call{"manual", on})
	return nil
}

func (m *mockTarget) SetAuto(context.Context) error {
	m.calls = append(m.calls, call{"auto", false})
	return nil
}

func (m *mockTarget) RequestLock(_ context.Context, lock bool) (radio.AckResult, error) {
	m.calls = append(m.calls, call{"lock", lock})
	return radio.AckResult{}, m.lockErr
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Command
		wantErr bool
	}{
		{"relay_on", RelayOn, false},
		{" relay_off\n", RelayOff, false},
		{"relay_auto", RelayAuto, false},
		{"shabbat", Shabbat, false},
		{"week", Week, false},
		{"RELAY_ON", "", true},
		{"relay", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("Parse(%q) = %q, %v", tt.in, got, err)
		}
		if err != nil && !errors.Is(err, ErrUnsupported) {
			t.Errorf("Parse(%q) error = %v, want ErrUnsupported", tt.in, err)
		}
	}
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		payload string
		want    Command
		wantErr error
	}{
		{"week", Week, nil},
		{`"shabbat"`, Shabbat, nil},
		{`{"command":"relay_auto"}`, RelayAuto, nil},
		{`{"command":"reboot"}`, "", ErrUnsupported},
		{`{"command":`, "", ErrMalformed},
		{`"unterminated`, "", ErrMalformed},
		{"  ", "", ErrUnsupported},
	}
	for _, tt := range tests {
		got, err := ParsePayload([]byte(tt.payload))
		if got != tt.want || !errors.Is(err, tt.wantErr) {
			t.Errorf("ParsePayload(%q) = %q, %v; want %q, %v", tt.payload, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestDispatch(t *testing.T) {
	want := map[Command]call{
		RelayOn:   {"manual", true},
		RelayOff:  {"manual", false},
		RelayAuto: {"auto", false},
		Shabbat:   {"lock", true},
		Week:      {"lock", false},
	}
	for _, c := range All() {
		m := &mockTarget{}
		if err := Dispatch(context.Background(), m, c); err != nil {
			t.Fatalf("Dispatch(%s) error = %v", c, err)
		}
		if len(m.calls) != 1 || m.calls[0] != want[c] {
			t.Errorf("Dispatch(%s) calls = %v, want %v", c, m.calls, want[c])
		}
	}
}

func TestDispatchPropagatesLockFailure(t *testing.T) {
	m := &mockTarget{lockErr: radio.ErrAckTimeout}
	if err := Dispatch(context.Background(), m, Shabbat); !errors.Is(err, radio.ErrAckTimeout) {
		t.Errorf("Dispatch() error = %v", err)
	}
}

func TestDispatchUnknown(t *testing.T) {
	m := &mockTarget{}
	if err := Dispatch(context.Background(), m, Command("reboot")); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Dispatch() error = %v", err)
	}
	if len(m.calls) != 0 {
		t.Error("unknown command reached the target")
	}
}
