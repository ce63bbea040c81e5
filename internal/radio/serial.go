package radio

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// serialReadTimeout bounds each blocking read so the reader goroutine can
// notice Close on an idle port. An expired read returns (0, nil).
const serialReadTimeout = 100 * time.Millisecond

// openSerial opens a UART at 8N1 and clears any bytes the module emitted at
// power-up.
func openSerial(path string, baud int) (serial.Port, error) {
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrTransport, path, err)
	}

	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		port.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("%w: setting read timeout: %w", ErrTransport, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("%w: resetting input buffer: %w", ErrTransport, err)
	}
	return port, nil
}
