package radio

import "errors"

var (
	// ErrAckTimeout is returned when no acknowledgment arrived within the
	// timeout. The accompanying AckResult carries the bytes that were received.
	ErrAckTimeout = errors.New("radio: ack timeout")

	// ErrTransport wraps a failure of the underlying link (open, write, close).
	ErrTransport = errors.New("radio: transport failure")

	// ErrNoData is returned by ReadByte when nothing is buffered.
	ErrNoData = errors.New("radio: no data available")

	// ErrInvalidCommand is returned when parsing an unknown command token.
	ErrInvalidCommand = errors.New("radio: invalid command")

	// ErrClosed is returned after a transport has been closed.
	ErrClosed = errors.New("radio: transport closed")
)
