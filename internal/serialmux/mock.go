package serialmux

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

// replayPort implements SerialPorter by replaying fixture bytes on a timer,
// simulating the scanner's sample cadence in dev mode.
type replayPort struct {
	io.Reader
	closeOnce sync.Once
	done      chan struct{}
}

func (p *replayPort) Write(b []byte) (int, error) { return len(b), nil }

func (p *replayPort) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

// NewReplayMux creates a mux backed by a fake port that emits the given
// telemetry lines repeatedly, one per interval.
func NewReplayMux(fixture []byte, interval time.Duration) *SerialMux[*replayPort] {
	r, w := io.Pipe()
	port := &replayPort{Reader: r, done: make(chan struct{})}

	lines := bytes.SplitAfter(fixture, []byte("\n"))
	go func() {
		defer w.Close()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-port.done:
				return
			case <-ticker.C:
				line := lines[i%len(lines)]
				if len(bytes.TrimSpace(line)) == 0 {
					i++
					continue
				}
				if _, err := w.Write(line); err != nil {
					return
				}
				i++
			}
		}
	}()

	return New(port)
}

// FakePort implements SerialPorter with scripted reads and captured writes
// for tests.
type FakePort struct {
	mu       sync.Mutex
	readBuf  bytes.Buffer
	writeBuf bytes.Buffer
	readErr  error
	writeErr error
	closed   bool
	cond     *sync.Cond
}

func NewFakePort() *FakePort {
	p := &FakePort{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Feed appends data to be returned by subsequent reads.
func (p *FakePort) Feed(data string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readBuf.WriteString(data)
	p.cond.Broadcast()
}

// FailReads makes the next read return err.
func (p *FakePort) FailReads(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readErr = err
	p.cond.Broadcast()
}

// FailWrites makes subsequent writes return err.
func (p *FakePort) FailWrites(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeErr = err
}

// Written returns everything written to the port so far.
func (p *FakePort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeBuf.String()
}

func (p *FakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if p.closed {
			return 0, io.EOF
		}
		if p.readErr != nil {
			err := p.readErr
			p.readErr = nil
			return 0, err
		}
		if p.readBuf.Len() > 0 {
			return p.readBuf.Read(b)
		}
		p.cond.Wait()
	}
}

func (p *FakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("port closed")
	}
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	return p.writeBuf.Write(b)
}

func (p *FakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.cond.Broadcast()
	return nil
}
