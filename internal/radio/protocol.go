package radio

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Protocol defaults.
const (
	DefaultAckTimeout   = 1500 * time.Millisecond
	DefaultSettleDelay  = 50 * time.Millisecond
	DefaultPollInterval = time.Millisecond
	DefaultAckToken     = "ACK"
	DefaultMaxResponse  = 256

	lineTerminator = "\r\n"
)

// Config tunes the lock-sync exchange.
type Config struct {
	// AckTimeout bounds the wait, measured from send completion.
	AckTimeout time.Duration

	// SettleDelay lets the remote turn its half-duplex radio around before
	// it can answer. It counts against AckTimeout.
	SettleDelay time.Duration

	// PollInterval is the sleep between empty reads.
	PollInterval time.Duration

	// AckToken is matched case-insensitively against the response suffix.
	AckToken string

	// MaxResponse caps the diagnostic response kept per exchange; older
	// bytes are dropped first.
	MaxResponse int
}

func (c Config) withDefaults() Config {
	if c.AckTimeout <= 0 {
		c.AckTimeout = DefaultAckTimeout
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.AckToken == "" {
		c.AckToken = DefaultAckToken
	}
	if c.MaxResponse < len(c.AckToken) {
		c.MaxResponse = DefaultMaxResponse
	}
	return c
}

// AckResult reports the outcome of one exchange.
type AckResult struct {
	Command  Command
	State    State
	Response string        // printable bytes received after sending
	Drained  int           // stale bytes discarded before sending
	Elapsed  time.Duration // from send completion to ack or timeout
}

// Acked reports whether the remote acknowledged.
func (r AckResult) Acked() bool {
	return r.State == StateAcked
}

// Logger is the logging interface used by the protocol.
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

// Protocol runs command/acknowledgment exchanges over a noisy half-duplex
// byte stream. Exchanges are serialised; a second caller blocks until the
// first completes.
type Protocol struct {
	mu     sync.Mutex
	t      Transport
	cfg    Config
	logger Logger

	now   func() time.Time
	sleep func(time.Duration)
}

// New creates a protocol over the given transport.
func New(t Transport, cfg Config) *Protocol {
	return &Protocol{
		t:      t,
		cfg:    cfg.withDefaults(),
		logger: noopLogger{},
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// SetLogger sets the logger for the protocol.
func (p *Protocol) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	p.logger = logger
}

// Config returns the effective configuration.
func (p *Protocol) Config() Config {
	return p.cfg
}

// Exchange sends cmd and waits for the acknowledgment token.
//
// The read buffer is drained first, so every exchange starts clean. The call
// blocks for at most AckTimeout after the write completes and does not take a
// context: once the command is on air the wait runs to ack or timeout.
//
// Returns:
//   - AckResult: always populated, including on failure
//   - error: ErrAckTimeout if no ack arrived, ErrTransport if the write failed
func (p *Protocol) Exchange(cmd Command) (AckResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := AckResult{Command: cmd, State: StateIdle}
	result.Drained = p.drain()

	if _, err := p.t.Write([]byte(string(cmd) + lineTerminator)); err != nil {
		p.logger.Warn("radio send failed", "command", cmd, "error", err)
		return result, fmt.Errorf("%w: writing %q: %w", ErrTransport, cmd, err)
	}
	sentAt := p.now()
	result.State = StateSent
	p.logger.Info("radio TX", "command", cmd)

	p.sleep(p.cfg.SettleDelay)

	ack := p.awaitAck(sentAt, p.cfg.AckTimeout)
	result.State, result.Response, result.Elapsed = ack.State, ack.Response, ack.Elapsed

	if !result.Acked() {
		p.logger.Warn("radio ack timeout", "command", cmd, "response", result.Response, "elapsed", result.Elapsed)
		return result, fmt.Errorf("%w: %q after %s", ErrAckTimeout, cmd, result.Elapsed)
	}
	p.logger.Info("radio RX ack", "command", cmd, "elapsed", result.Elapsed)
	return result, nil
}

// drain discards bytes left from a previous exchange.
func (p *Protocol) drain() int {
	var stale []byte
	for p.t.Available() > 0 {
		b, err := p.t.ReadByte()
		if err != nil {
			break
		}
		stale = append(stale, b)
	}
	if len(stale) > 0 {
		p.logger.Debug("radio drained stale bytes", "count", len(stale), "content", fmt.Sprintf("%q", stale))
	}
	return len(stale)
}

// awaitAck polls until the response ends with the ack token or timeout has
// passed since sentAt.
func (p *Protocol) awaitAck(sentAt time.Time, timeout time.Duration) AckResult {
	var resp []byte
	token := p.cfg.AckToken

	for elapsed := p.now().Sub(sentAt); elapsed < timeout; elapsed = p.now().Sub(sentAt) {
		if p.t.Available() == 0 {
			p.sleep(p.cfg.PollInterval)
			continue
		}

		b, err := p.t.ReadByte()
		if err != nil || !printable(b) {
			continue
		}

		resp = append(resp, b)
		if over := len(resp) - p.cfg.MaxResponse; over > 0 {
			resp = resp[over:]
		}

		if len(resp) >= len(token) && strings.EqualFold(string(resp[len(resp)-len(token):]), token) {
			return AckResult{State: StateAcked, Response: string(resp), Elapsed: p.now().Sub(sentAt)}
		}
	}

	return AckResult{State: StateTimedOut, Response: string(resp), Elapsed: p.now().Sub(sentAt)}
}

// printable reports whether b is printable 7-bit ASCII.
func printable(b byte) bool {
	return b >= 0x20 && b < 0x7f
}
