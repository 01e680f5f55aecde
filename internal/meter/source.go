package meter

import (
	"fmt"
	"io"
	"os"

	"github.com/tarm/serial"
)

// StdinDevice selects standard input instead of a serial device.
const StdinDevice = "-"

// Open opens the meter's byte stream.
//
// device is a serial port path such as /dev/ttyUSB0, opened at baud with
// 8 data bits, no parity and one stop bit, or StdinDevice to read a
// recorded stream from standard input.
func Open(device string, baud int) (io.ReadCloser, error) {
	if device == StdinDevice {
		return io.NopCloser(os.Stdin), nil
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:     device,
		Baud:     baud,
		Size:     8,
		Parity:   serial.ParityNone,
		StopBits: serial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, device, err)
	}

	return port, nil
}
