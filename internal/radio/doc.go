// Package radio mirrors the Shabbat lock flag to a paired remote unit over a
// half-duplex serial radio (HC-12 class modules).
//
// One exchange per request:
//
//	IDLE → SENT → (ACKED | TIMED_OUT)
//
// The read buffer is drained, the command token is written with CRLF, and
// after a short settle delay the transport is polled until the printable
// response ends with "ACK" (any case) or the timeout measured from send
// completion expires. Control bytes and line noise are dropped silently.
//
// Links are selected by URL: serial:// for a local UART via go.bug.st/serial,
// tcp:// or unix:// for a ser2net style gateway. Both are wrapped in a
// StreamTransport that buffers inbound bytes on a reader goroutine.
package radio
