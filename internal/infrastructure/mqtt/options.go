package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/shabbat-clock/internal/infrastructure/config"
)

const (
	// defaultConnectTimeout bounds the initial connection.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout bounds waiting for a publish or subscribe token.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is in milliseconds.
	defaultDisconnectQuiesce = 500

	defaultKeepAlive = 60 * time.Second

	maxQoS = 2

	tlsMinVersion = tls.VersionTLS12
)

// brokerURL returns tcp:// or ssl:// depending on the TLS setting.
func brokerURL(cfg config.MQTTConfig) string {
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)
}

// buildClientOptions maps the mqtt config section onto paho options:
// broker URL, client ID, optional credentials, clean session, auto-reconnect
// with the configured backoff bounds, and TLS when enabled.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(brokerURL(cfg))
	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(max(cfg.Reconnect.InitialDelay, 1)) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(max(cfg.Reconnect.MaxDelay, 1)) * time.Second)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}
	return opts
}

// configureLWT makes the broker publish a retained offline message on the
// status topic if the process disappears without a clean Close.
func configureLWT(opts *pahomqtt.ClientOptions, topics Topics, clientID string) {
	opts.SetWill(topics.Status(), string(statusPayload("offline", clientID, "unexpected_disconnect")), 1, true)
}

type statusMessage struct {
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// statusPayload encodes an online/offline status message.
func statusPayload(status, clientID, reason string) []byte {
	b, _ := json.Marshal(statusMessage{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return b
}
