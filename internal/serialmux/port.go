package serialmux

import (
	"io"
	"time"
)

// SerialPorter is the minimal interface needed for a serial port. The
// abstraction keeps the multiplexer testable without real hardware.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// TimeoutSerialPorter extends SerialPorter with a read timeout. Real ports
// implement it; mocks may.
type TimeoutSerialPorter interface {
	SerialPorter
	SetReadTimeout(timeout time.Duration) error
}
