package radio

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// Transport is a half-duplex byte stream with no framing or delivery guarantee.
type Transport interface {
	// Available returns the number of buffered bytes ready to read.
	Available() int

	// ReadByte returns the next buffered byte, or ErrNoData.
	ReadByte() (byte, error)

	// Write sends p. Completion means the bytes left this end, not that the
	// peer received them.
	Write(p []byte) (int, error)
}

const (
	defaultBaudRate    = 9600
	defaultDialTimeout = 5 * time.Second
)

// LinkConfig selects and opens the physical link.
type LinkConfig struct {
	// URL is one of:
	//   - "serial:///dev/ttyUSB0?baud=9600" (UART radio module)
	//   - "tcp://gateway:4001" (ser2net or a radio gateway)
	//   - "unix:///run/radio.sock"
	URL string

	// DialTimeout bounds connection setup for network links.
	DialTimeout time.Duration
}

// Open connects the configured link and starts buffering inbound bytes.
//
// Returns:
//   - *StreamTransport: Ready transport; the caller must Close it
//   - error: Wrapping ErrTransport if the URL is invalid or the link fails
func Open(ctx context.Context, cfg LinkConfig) (*StreamTransport, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %w", ErrTransport, err)
	}

	switch u.Scheme {
	case "serial":
		baud := defaultBaudRate
		if s := u.Query().Get("baud"); s != "" {
			baud, err = strconv.Atoi(s)
			if err != nil || baud <= 0 {
				return nil, fmt.Errorf("%w: invalid baud %q", ErrTransport, s)
			}
		}
		port, err := openSerial(u.Path, baud)
		if err != nil {
			return nil, err
		}
		return NewStreamTransport(port), nil

	case "tcp", "unix":
		address := u.Host
		if u.Scheme == "unix" {
			address = u.Path
		}
		if address == "" {
			return nil, fmt.Errorf("%w: missing address in %q", ErrTransport, cfg.URL)
		}

		timeout := cfg.DialTimeout
		if timeout <= 0 {
			timeout = defaultDialTimeout
		}
		dialCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var dialer net.Dialer
		conn, err := dialer.DialContext(dialCtx, u.Scheme, address)
		if err != nil {
			return nil, fmt.Errorf("%w: dial %s: %w", ErrTransport, cfg.URL, err)
		}
		return NewStreamTransport(conn), nil

	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q (use serial, tcp or unix)", ErrTransport, u.Scheme)
	}
}
