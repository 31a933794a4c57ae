// Package serialmux provides an abstraction over the scanner's serial link
// with the ability for multiple consumers to subscribe to telemetry lines
// from a single port. The port is single-writer, single-reader; the mux is
// the one reader and fans lines out in arrival order.
package serialmux

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var ErrWriteFailed = fmt.Errorf("short write to serial port")

// SerialMux multiplexes one serial port to many line subscribers.
type SerialMux[T SerialPorter] struct {
	port         T
	subscribers  map[string]chan string
	subscriberMu sync.Mutex
	writeMu      sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// Muxer is the consumer-facing interface of a SerialMux, independent of the
// concrete port type.
type Muxer interface {
	// Subscribe creates a channel receiving telemetry lines in arrival
	// order. The returned ID identifies the channel for Unsubscribe.
	Subscribe() (string, chan string)
	// Unsubscribe removes and closes a subscriber channel.
	Unsubscribe(string)
	// WriteLine writes one newline-terminated line to the port.
	WriteLine(string) error
	// Monitor reads lines from the port and fans them out until ctx is
	// cancelled or the stream ends.
	Monitor(context.Context) error
	// Close closes all subscriber channels and the port.
	Close() error

	// AttachAdminRoutes attaches debug endpoints (live line tail, manual
	// line injection) to the given HTTP mux under /debug/.
	AttachAdminRoutes(*http.ServeMux)
}

// New creates a SerialMux over an open port.
func New[T SerialPorter](port T) *SerialMux[T] {
	return &SerialMux[T]{
		port:        port,
		subscribers: make(map[string]chan string),
	}
}

// subscriberBuffer absorbs short bursts so a momentarily busy consumer does
// not miss lines. A consumer that stays behind still loses lines rather than
// stalling the stream.
const subscriberBuffer = 16

func (s *SerialMux[T]) Subscribe() (string, chan string) {
	id := uuid.NewString()
	ch := make(chan string, subscriberBuffer)
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	s.subscribers[id] = ch
	return id, ch
}

func (s *SerialMux[T]) Unsubscribe(id string) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// WriteLine writes a single line to the port, appending the terminator when
// missing. The scanner link is one-directional in normal operation; this
// exists for the debug surface.
func (s *SerialMux[T]) WriteLine(line string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	n, err := s.port.Write([]byte(line))
	if err != nil {
		return err
	}
	if n != len(line) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor reads lines from the serial port and sends them to subscribers.
// A subscriber that is not keeping up misses lines rather than stalling the
// stream for everyone else.
func (s *SerialMux[T]) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(s.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking scan.Scan runs in its own goroutine so the outer loop can
	// await both lines and context cancellation.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				// Stream ended without a scan error.
				return nil
			}

			s.closingMu.Lock()
			if s.closing {
				s.closingMu.Unlock()
				return nil
			}
			s.closingMu.Unlock()

			s.subscriberMu.Lock()
			for _, ch := range s.subscribers {
				select {
				case ch <- line:
				default:
					// full subscriber, skip
				}
			}
			s.subscriberMu.Unlock()
		}
	}
}

func (s *SerialMux[T]) Close() error {
	s.closingMu.Lock()
	s.closing = true
	s.closingMu.Unlock()

	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	return s.port.Close()
}
