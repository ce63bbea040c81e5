package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// LogActuator records relay commands without driving hardware. It backs
// development setups and dry runs.
type LogActuator struct {
	logger Logger
}

// NewLogActuator creates an actuator that only logs.
func NewLogActuator(logger Logger) *LogActuator {
	if logger == nil {
		logger = noopLogger{}
	}
	return &LogActuator{logger: logger}
}

// Set logs the requested state.
func (a *LogActuator) Set(_ context.Context, on bool) error {
	a.logger.Info("relay output", "on", on)
	return nil
}

// Publisher sends an MQTT message. *mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTActuator drives a relay exposed by an MQTT bridge (e.g. a Tasmota or
// ESPHome switch) by publishing a command message.
type MQTTActuator struct {
	pub   Publisher
	topic string
	qos   byte
}

// NewMQTTActuator creates an MQTT-backed actuator.
//
// Parameters:
//   - pub: Connected MQTT publisher
//   - topic: Command topic, see mqtt.Topics.RelayCommand
//   - qos: Delivery level for commands
func NewMQTTActuator(pub Publisher, topic string, qos byte) *MQTTActuator {
	return &MQTTActuator{pub: pub, topic: topic, qos: qos}
}

type relayCommand struct {
	On        bool   `json:"on"`
	Timestamp string `json:"timestamp"`
}

// Set publishes {"on": bool} to the command topic. Commands are not retained.
func (a *MQTTActuator) Set(ctx context.Context, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(relayCommand{On: on, Timestamp: time.Now().UTC().Format(time.RFC3339)})
	if err != nil {
		return fmt.Errorf("encoding relay command: %w", err)
	}
	if err := a.pub.Publish(a.topic, payload, a.qos, false); err != nil {
		return fmt.Errorf("publishing relay command: %w", err)
	}
	return nil
}
