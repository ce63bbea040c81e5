// Package mqtt connects the clock to an MQTT broker.
//
// The broker is optional. When enabled it carries:
//   - retained state: relay output, mode, lock flag and a full snapshot
//   - the inbound command topic (relay_on, relay_off, relay_auto, shabbat, week)
//   - relay commands for an MQTT-driven output bridge
//   - a retained online/offline status with a Last Will
//
// Topic names come from Topics, rooted at mqtt.topic_prefix.
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().Command(), 1, func(topic string, payload []byte) error {
//	    return dispatch(string(payload))
//	})
package mqtt
