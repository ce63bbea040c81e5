package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/shabbat-clock/internal/infrastructure/config"
)

// fakeToken completes immediately with err, or never when pending.
type fakeToken struct {
	err     error
	pending bool
}

func (t *fakeToken) Wait() bool                     { return !t.pending }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.pending }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !t.pending {
		close(ch)
	}
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakePaho records calls in place of a broker connection.
type fakePaho struct {
	mu           sync.Mutex
	connected    bool
	published    []published
	handlers     map[string]pahomqtt.MessageHandler
	unsubscribed []string
	disconnected bool
	token        *fakeToken
}

func newFakePaho() *fakePaho {
	return &fakePaho{connected: true, handlers: map[string]pahomqtt.MessageHandler{}, token: &fakeToken{}}
}

func (f *fakePaho) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakePaho) IsConnectionOpen() bool  { return f.IsConnected() }
func (f *fakePaho) Connect() pahomqtt.Token { return f.token }

func (f *fakePaho) Disconnect(uint) {
	f.mu.Lock()
	f.connected = false
	f.disconnected = true
	f.mu.Unlock()
}
func (f *fakePaho) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	var b []byte
	switch p := payload.(type) {
	case []byte:
		b = p
	case string:
		b = []byte(p)
	}
	f.published = append(f.published, published{topic, qos, retained, b})
	return f.token
}
func (f *fakePaho) Subscribe(topic string, _ byte, cb pahomqtt.MessageHandler) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = cb
	return f.token
}
func (f *fakePaho) SubscribeMultiple(map[string]byte, pahomqtt.MessageHandler) pahomqtt.Token {
	return f.token
}
func (f *fakePaho) Unsubscribe(topics ...string) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = append(f.unsubscribed, topics...)
	return f.token
}
func (f *fakePaho) AddRoute(string, pahomqtt.MessageHandler)     {}
func (f *fakePaho) OptionsReader() pahomqtt.ClientOptionsReader { return pahomqtt.ClientOptionsReader{} }

// deliver invokes the handler registered for topic as paho would.
func (f *fakePaho) deliver(topic string, payload []byte) {
	f.mu.Lock()
	cb := f.handlers[topic]
	f.mu.Unlock()
	cb(f, &fakeMessage{topic: topic, payload: payload})
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 1 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
}

func (l *mockLogger) Info(msg string, _ ...any) {
	l.mu.Lock()
	l.infos = append(l.infos, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled:     true,
		Broker:      config.MQTTBrokerConfig{Host: "127.0.0.1", Port: 1883, ClientID: "shabbatclock-test"},
		QoS:         1,
		TopicPrefix: "sc",
	}
}

func connectedClient(t *testing.T) (*Client, *fakePaho) {
	t.Helper()
	fake := newFakePaho()
	c := newClient(testConfig(), fake)
	c.setConnected(true)
	return c, fake
}

func TestTopics(t *testing.T) {
	topics := NewTopics("sc")
	tests := map[string]string{
		topics.Status():                "sc/status",
		topics.Snapshot():              "sc/snapshot",
		topics.Mode():                  "sc/mode",
		topics.Lock():                  "sc/lock",
		topics.Command():               "sc/command",
		topics.RelayState("relay-1"):   "sc/relay/relay-1/state",
		topics.RelayCommand("relay-1"): "sc/relay/relay-1/set",
		topics.All():                   "sc/#",
	}
	for got, want := range tests {
		if got != want {
			t.Errorf("topic = %q, want %q", got, want)
		}
	}

	if NewTopics("").Prefix != DefaultTopicPrefix {
		t.Errorf("empty prefix = %q, want %q", NewTopics("").Prefix, DefaultTopicPrefix)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuthConfig{Username: "clock", Password: "pw"}
	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.ClientID != "shabbatclock-test" || opts.Username != "clock" || opts.Password != "pw" {
		t.Errorf("identity = %q/%q/%q", opts.ClientID, opts.Username, opts.Password)
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Error("expected auto-reconnect with clean session")
	}

	cfg.Broker.TLS = true
	if got := brokerURL(cfg); got != "ssl://127.0.0.1:1883" {
		t.Errorf("brokerURL(TLS) = %q", got)
	}
	if buildClientOptions(cfg).TLSConfig == nil {
		t.Error("TLSConfig not set with TLS enabled")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := pahomqtt.NewClientOptions()
	configureLWT(opts, NewTopics("sc"), "id-1")

	if !opts.WillEnabled || opts.WillTopic != "sc/status" || !opts.WillRetained {
		t.Fatalf("will = %v %q retained=%v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}
	var msg statusMessage
	if err := json.Unmarshal(opts.WillPayload, &msg); err != nil {
		t.Fatalf("will payload: %v", err)
	}
	if msg.Status != "offline" || msg.ClientID != "id-1" || msg.Reason != "unexpected_disconnect" {
		t.Errorf("will = %+v", msg)
	}
}

func TestPublish(t *testing.T) {
	c, fake := connectedClient(t)

	if err := c.Publish("sc/mode", []byte(`"auto"`), 1, true); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(fake.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(fake.published))
	}
	got := fake.published[0]
	if got.topic != "sc/mode" || got.qos != 1 || !got.retained || string(got.payload) != `"auto"` {
		t.Errorf("published = %+v", got)
	}

	if err := c.PublishRetained("sc/lock", []byte("true")); err != nil {
		t.Fatalf("PublishRetained() error = %v", err)
	}
	if !fake.published[1].retained || fake.published[1].qos != 1 {
		t.Errorf("PublishRetained = %+v", fake.published[1])
	}
}

func TestPublishValidation(t *testing.T) {
	c, _ := connectedClient(t)

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		want    error
	}{
		{"empty topic", "", nil, 0, ErrInvalidTopic},
		{"bad qos", "sc/x", nil, 3, ErrInvalidQoS},
		{"too large", "sc/x", make([]byte, maxPayloadSize+1), 0, ErrPublishFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Publish(tt.topic, tt.payload, tt.qos, false); !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPublishTokenFailure(t *testing.T) {
	c, fake := connectedClient(t)

	fake.token = &fakeToken{err: errors.New("broker said no")}
	if err := c.Publish("sc/x", nil, 0, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("error = %v, want ErrPublishFailed", err)
	}

	fake.token = &fakeToken{pending: true}
	if err := c.Publish("sc/x", nil, 0, false); !errors.Is(err, ErrPublishFailed) || !strings.Contains(err.Error(), "timeout") {
		t.Errorf("error = %v, want timeout", err)
	}
}

func TestNotConnected(t *testing.T) {
	c := newClient(testConfig(), nil)

	if c.IsConnected() {
		t.Error("IsConnected() = true without a paho client")
	}
	if err := c.Publish("sc/x", nil, 0, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v", err)
	}
	if err := c.Subscribe("sc/x", 0, func(string, []byte) error { return nil }); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client = %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	c, fake := connectedClient(t)

	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) = %v", err)
	}

	fake.mu.Lock()
	fake.connected = false
	fake.mu.Unlock()
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck(disconnected) = %v", err)
	}
}

func TestSubscribeDeliversAndTracks(t *testing.T) {
	c, fake := connectedClient(t)

	var got []string
	err := c.Subscribe("sc/command", 1, func(topic string, payload []byte) error {
		got = append(got, topic+"="+string(payload))
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !c.HasSubscription("sc/command") || c.SubscriptionCount() != 1 {
		t.Fatal("subscription not tracked")
	}

	fake.deliver("sc/command", []byte("relay_on"))
	if len(got) != 1 || got[0] != "sc/command=relay_on" {
		t.Errorf("delivered = %v", got)
	}

	if err := c.Unsubscribe("sc/command"); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if c.HasSubscription("sc/command") || len(fake.unsubscribed) != 1 {
		t.Error("unsubscribe not applied")
	}
}

func TestSubscribeValidation(t *testing.T) {
	c, fake := connectedClient(t)
	h := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 0, h); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic: %v", err)
	}
	if err := c.Subscribe("sc/x", 5, h); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("bad qos: %v", err)
	}
	if err := c.Subscribe("sc/x", 0, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler: %v", err)
	}
	if err := c.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("unsubscribe empty: %v", err)
	}

	fake.token = &fakeToken{err: errors.New("denied")}
	if err := c.Subscribe("sc/x", 0, h); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("token error: %v", err)
	}
	if c.HasSubscription("sc/x") {
		t.Error("failed subscription still tracked")
	}
}

func TestHandlerErrorsAndPanicsAreLogged(t *testing.T) {
	c, fake := connectedClient(t)
	logger := &mockLogger{}
	c.SetLogger(logger)

	_ = c.Subscribe("sc/a", 0, func(string, []byte) error { return errors.New("bad command") })
	_ = c.Subscribe("sc/b", 0, func(string, []byte) error { panic("boom") })

	fake.deliver("sc/a", nil)
	fake.deliver("sc/b", nil)

	if len(logger.warns) != 1 || len(logger.errors) != 1 {
		t.Errorf("warns=%v errors=%v", logger.warns, logger.errors)
	}
}

func TestReconnectRestoresSubscriptionsAndStatus(t *testing.T) {
	c, fake := connectedClient(t)
	connects := 0
	var lost error
	c.SetOnConnect(func() { connects++ })
	c.SetOnDisconnect(func(err error) { lost = err })

	_ = c.Subscribe("sc/command", 1, func(string, []byte) error { return nil })

	c.handleDisconnect(errors.New("eof"))
	if c.IsConnected() || lost == nil {
		t.Fatal("disconnect not reflected")
	}

	fake.handlers = map[string]pahomqtt.MessageHandler{}
	c.handleConnect()

	if !c.IsConnected() || connects != 1 {
		t.Errorf("connected=%v connects=%d", c.IsConnected(), connects)
	}
	if _, ok := fake.handlers["sc/command"]; !ok {
		t.Error("subscription not restored")
	}
	last := fake.published[len(fake.published)-1]
	if last.topic != "sc/status" || !last.retained || !strings.Contains(string(last.payload), `"online"`) {
		t.Errorf("status publish = %+v", last)
	}
}

func TestCloseAnnouncesOffline(t *testing.T) {
	c, fake := connectedClient(t)

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !fake.disconnected || c.IsConnected() {
		t.Error("client not disconnected")
	}
	if len(fake.published) != 1 || !strings.Contains(string(fake.published[0].payload), "graceful_shutdown") {
		t.Errorf("published = %+v", fake.published)
	}
}
