package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/shabbat-clock/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang for the clock's state and command topics.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Subscriptions are restored after every reconnect.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
	topics Topics

	subscriptions map[string]subscription
	subMu         sync.RWMutex

	connected bool
	connMu    sync.RWMutex

	onConnect    func()
	onDisconnect func(err error)
	callbackMu   sync.RWMutex

	logger   Logger
	loggerMu sync.RWMutex
}

// Logger is the subset of logging.Logger the client uses.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// MessageHandler receives a message's topic and raw payload. It runs on a
// paho goroutine and should return quickly. A returned error is logged.
type MessageHandler func(topic string, payload []byte) error

// Connect dials the broker described by cfg.
//
// It configures a retained Last Will on <prefix>/status, enables
// auto-reconnect, waits for the first connection and then publishes a
// retained online status.
//
// Parameters:
//   - cfg: The mqtt section of the configuration
//
// Returns:
//   - *Client: Connected client
//   - error: ErrConnectionFailed if the broker is not reachable in time
func Connect(cfg config.MQTTConfig) (*Client, error) {
	topics := NewTopics(cfg.TopicPrefix)
	opts := buildClientOptions(cfg)
	configureLWT(opts, topics, cfg.Broker.ClientID)

	c := newClient(cfg, nil)
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(err)
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The OnConnect handler runs asynchronously; mark connected now so
	// IsConnected is true as soon as Connect returns.
	c.setConnected(true)
	return c, nil
}

// newClient builds a Client around an existing paho client.
func newClient(cfg config.MQTTConfig, pc pahomqtt.Client) *Client {
	return &Client{
		client:        pc,
		cfg:           cfg,
		topics:        NewTopics(cfg.TopicPrefix),
		subscriptions: make(map[string]subscription),
	}
}

// Topics returns the topic builder for this client's prefix.
func (c *Client) Topics() Topics {
	return c.topics
}

func (c *Client) setConnected(v bool) {
	c.connMu.Lock()
	c.connected = v
	c.connMu.Unlock()
}

func (c *Client) handleConnect() {
	c.setConnected(true)
	c.restoreSubscriptions()
	c.client.Publish(c.topics.Status(), byte(c.cfg.QoS), true, statusPayload("online", c.cfg.Broker.ClientID, ""))

	if logger := c.getLogger(); logger != nil {
		logger.Info("mqtt connected", "broker", brokerURL(c.cfg))
	}

	c.callbackMu.RLock()
	callback := c.onConnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback()
	}
}

func (c *Client) handleDisconnect(err error) {
	c.setConnected(false)

	if logger := c.getLogger(); logger != nil {
		logger.Warn("mqtt connection lost", "error", err)
	}

	c.callbackMu.RLock()
	callback := c.onDisconnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// restoreSubscriptions re-subscribes every tracked topic. Errors are ignored;
// the next reconnect tries again.
func (c *Client) restoreSubscriptions() {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	for _, sub := range c.subscriptions {
		c.client.Subscribe(sub.topic, sub.qos, c.wrapHandler(sub.handler))
	}
}

// Close publishes a retained graceful-offline status and disconnects.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if c.IsConnected() {
		token := c.client.Publish(c.topics.Status(), byte(c.cfg.QoS), true,
			statusPayload("offline", c.cfg.Broker.ClientID, "graceful_shutdown"))
		token.WaitTimeout(defaultPublishTimeout)
	}

	c.client.Disconnect(defaultDisconnectQuiesce)
	c.setConnected(false)
	return nil
}

// HealthCheck reports ErrNotConnected while the broker link is down.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected returns the last known connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected && c.client != nil && c.client.IsConnected()
}

// SetOnConnect sets a callback run on the initial connect and every reconnect.
func (c *Client) SetOnConnect(callback func()) {
	c.callbackMu.Lock()
	c.onConnect = callback
	c.callbackMu.Unlock()
}

// SetOnDisconnect sets a callback run when the connection is lost.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.callbackMu.Lock()
	c.onDisconnect = callback
	c.callbackMu.Unlock()
}

// SetLogger sets the logger. A nil logger silences the client.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// wrapHandler adapts a MessageHandler to paho, recovering panics and
// logging handler errors.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if logger := c.getLogger(); logger != nil {
					logger.Error("mqtt handler panic recovered", "topic", msg.Topic(), "panic", r)
				}
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Warn("mqtt handler returned error", "topic", msg.Topic(), "error", err)
			}
		}
	}
}
