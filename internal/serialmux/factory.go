package serialmux

import (
	"fmt"

	"go.bug.st/serial"
)

// Open opens the serial port at path with the given options and returns a
// mux over it. An open failure here is fatal to the caller: with no channel
// there is nothing to render from.
func Open(path string, opts PortOptions) (*SerialMux[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}

	return New[serial.Port](port), nil
}
