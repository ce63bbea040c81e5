package mqtt

import "fmt"

// maxPayloadSize caps a single message at 1 MiB.
const maxPayloadSize = 1 << 20

// Publish sends payload to topic.
//
// Parameters:
//   - topic: Destination topic, e.g. Topics.RelayState("relay-1")
//   - payload: Message body, at most 1 MiB
//   - qos: 0, 1 or 2
//   - retained: Whether the broker keeps the message for late subscribers;
//     true for state topics, false for commands
//
// Returns:
//   - error: ErrInvalidTopic, ErrInvalidQoS, ErrNotConnected, or a wrapped
//     ErrPublishFailed
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishRetained publishes a retained message at the configured QoS.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}
