package radio

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	// rxBufferSize bounds the inbound buffer; the oldest bytes are dropped on overflow.
	rxBufferSize = 1024

	readChunkSize = 64
	writeTimeout  = 2 * time.Second
)

// writeDeadliner is implemented by net.Conn.
type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// StreamTransport adapts a blocking io.ReadWriteCloser (serial port, socket)
// to the polled Transport contract. A reader goroutine copies inbound bytes
// into a bounded buffer.
type StreamTransport struct {
	rw io.ReadWriteCloser

	mu      sync.Mutex
	buf     []byte
	dropped uint64
	readErr error

	writeMu sync.Mutex

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewStreamTransport starts buffering reads from rw.
func NewStreamTransport(rw io.ReadWriteCloser) *StreamTransport {
	t := &StreamTransport{
		rw:   rw,
		done: make(chan struct{}),
	}
	t.wg.Add(1)
	go t.readLoop()
	return t
}

func (t *StreamTransport) readLoop() {
	defer t.wg.Done()

	chunk := make([]byte, readChunkSize)
	for {
		n, err := t.rw.Read(chunk)
		if n > 0 {
			t.mu.Lock()
			t.buf = append(t.buf, chunk[:n]...)
			if over := len(t.buf) - rxBufferSize; over > 0 {
				t.buf = t.buf[over:]
				t.dropped += uint64(over)
			}
			t.mu.Unlock()
		}
		if err != nil {
			t.mu.Lock()
			t.readErr = err
			t.mu.Unlock()
			return
		}

		select {
		case <-t.done:
			return
		default:
		}
	}
}

// Available returns the number of buffered bytes.
func (t *StreamTransport) Available() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buf)
}

// ReadByte pops the oldest buffered byte.
func (t *StreamTransport) ReadByte() (byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.buf) == 0 {
		return 0, ErrNoData
	}
	b := t.buf[0]
	t.buf = t.buf[1:]
	return b, nil
}

// Write sends p, with a deadline where the link supports one.
func (t *StreamTransport) Write(p []byte) (int, error) {
	select {
	case <-t.done:
		return 0, ErrClosed
	default:
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if d, ok := t.rw.(writeDeadliner); ok {
		_ = d.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck // Best effort
	}
	n, err := t.rw.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return n, nil
}

// Healthy reports whether the reader is still receiving. After the link
// fails (e.g. a USB radio is unplugged) it returns the read error.
func (t *StreamTransport) Healthy() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.readErr != nil && !errors.Is(t.readErr, io.EOF) {
		return fmt.Errorf("%w: %w", ErrTransport, t.readErr)
	}
	if t.readErr != nil {
		return fmt.Errorf("%w: link closed by peer", ErrTransport)
	}
	return nil
}

// Dropped returns the number of inbound bytes discarded on buffer overflow.
func (t *StreamTransport) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// Close closes the link and waits for the reader to exit.
func (t *StreamTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.rw.Close()
		t.wg.Wait()
	})
	if err != nil {
		return fmt.Errorf("%w: closing: %w", ErrTransport, err)
	}
	return nil
}
