package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nerrad567/shabbat-clock/internal/command"
	"github.com/nerrad567/shabbat-clock/internal/engine"
	"github.com/nerrad567/shabbat-clock/internal/infrastructure/mqtt"
	"github.com/nerrad567/shabbat-clock/internal/radio"
	"github.com/nerrad567/shabbat-clock/internal/relay"
)

// RetainedPublisher is the subset of *mqtt.Client used for state topics.
type RetainedPublisher interface {
	PublishRetained(topic string, payload []byte) error
}

// Subscriber is the subset of *mqtt.Client used for the command topic.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Logger is the logging interface used by telemetry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// StatePublisher mirrors engine state to retained MQTT topics.
//
// Publish failures are logged and dropped; the broker is not authoritative
// and the next change republishes everything.
type StatePublisher struct {
	pub      RetainedPublisher
	topics   mqtt.Topics
	deviceID string
	logger   Logger
	now      func() time.Time
}

// NewStatePublisher returns an observer publishing under topics.
func NewStatePublisher(pub RetainedPublisher, topics mqtt.Topics, deviceID string) *StatePublisher {
	return &StatePublisher{pub: pub, topics: topics, deviceID: deviceID, logger: noopLogger{}, now: time.Now}
}

// SetLogger sets the logger.
func (p *StatePublisher) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	p.logger = logger
}

type relayState struct {
	On        bool       `json:"on"`
	Mode      relay.Mode `json:"mode"`
	Cause     string     `json:"cause,omitempty"`
	Timestamp string     `json:"timestamp"`
}

type lockState struct {
	Locked    bool   `json:"locked"`
	RadioOK   bool   `json:"radioOk"`
	Command   string `json:"lastCommand,omitempty"`
	Result    string `json:"lastResult,omitempty"`
	Timestamp string `json:"timestamp"`
}

// RelayChanged implements engine.Observer.
func (p *StatePublisher) RelayChanged(change relay.Change, st engine.Status) {
	p.publish(p.topics.RelayState(p.deviceID), relayState{
		On:        change.On,
		Mode:      change.Mode,
		Cause:     string(change.Cause),
		Timestamp: p.stamp(),
	})
	p.StatusChanged(st)
}

// LockExchanged implements engine.Observer.
func (p *StatePublisher) LockExchanged(result radio.AckResult, st engine.Status) {
	p.publish(p.topics.Lock(), lockState{
		Locked:    st.LockFlag,
		RadioOK:   st.RadioOK,
		Command:   string(result.Command),
		Result:    result.State.String(),
		Timestamp: p.stamp(),
	})
	p.publish(p.topics.Snapshot(), st)
}

// StatusChanged implements engine.Observer.
func (p *StatePublisher) StatusChanged(st engine.Status) {
	p.publish(p.topics.Mode(), st.Mode)
	p.publish(p.topics.Snapshot(), st)
}

func (p *StatePublisher) stamp() string {
	return p.now().UTC().Format(time.RFC3339)
}

func (p *StatePublisher) publish(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		p.logger.Error("encoding mqtt state", "topic", topic, "error", err)
		return
	}
	if err := p.pub.PublishRetained(topic, payload); err != nil {
		p.logger.Warn("publishing mqtt state", "topic", topic, "error", err)
	}
}

// commandTimeout bounds a command received over MQTT, which may include a
// full radio exchange.
const commandTimeout = 5 * time.Second

// SubscribeCommands routes payloads on the command topic through
// command.ParsePayload and command.Dispatch.
//
// Parameters:
//   - sub: MQTT subscriber
//   - topic: Command topic, normally Topics.Command()
//   - target: Receives dispatched commands, normally the engine
//   - logger: Logs accepted commands; nil disables logging
//
// Returns:
//   - error: If the subscription could not be established
func SubscribeCommands(sub Subscriber, topic string, target command.Target, logger Logger) error {
	if logger == nil {
		logger = noopLogger{}
	}
	return sub.Subscribe(topic, 1, func(_ string, payload []byte) error {
		cmd, err := command.ParsePayload(payload)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		logger.Info("mqtt command received", "command", cmd)
		return command.Dispatch(ctx, target, cmd)
	})
}
