package scanner

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fieldscan/sonarscope/internal/telemetry"
)

// scriptedSensor returns queued readings in order, then repeats the last.
type scriptedSensor struct {
	readings []time.Duration
	errs     []error
	calls    int
}

func (s *scriptedSensor) Measure(ctx context.Context) (time.Duration, error) {
	i := s.calls
	if i >= len(s.readings) {
		i = len(s.readings) - 1
	}
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return 0, s.errs[i]
	}
	return s.readings[i], nil
}

// recordingActuator records every commanded angle.
type recordingActuator struct {
	moves []int
	err   error
}

func (a *recordingActuator) Move(angleDeg int) error {
	if a.err != nil {
		return a.err
	}
	a.moves = append(a.moves, angleDeg)
	return nil
}

// echoFor returns a round trip echo time that converts to the given
// centimeter reading.
func echoFor(cm int) time.Duration {
	return time.Duration(float64(cm)*microsecondsPerCM+1) * time.Microsecond
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SettleDelay = 0
	cfg.MeasureTimeout = 0
	return cfg
}

func TestTriangleWaveSequence(t *testing.T) {
	sensor := &scriptedSensor{readings: []time.Duration{echoFor(100)}}
	act := &recordingActuator{}
	s := New(sensor, act, testConfig())

	ctx := context.Background()
	var angles []int
	// Two full sweeps: 0->180 then 180->0 then 0->180 again.
	for i := 0; i < 3*telemetry.MaxAngle; i++ {
		sample, err := s.Step(ctx)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		angles = append(angles, sample.Angle)
	}

	// Ascending leg: 1..180 strictly increasing.
	for i := 0; i < telemetry.MaxAngle; i++ {
		if angles[i] != i+1 {
			t.Fatalf("ascending step %d: angle %d, want %d", i, angles[i], i+1)
		}
	}
	// Descending leg: 179..0 strictly decreasing.
	for i := 0; i < telemetry.MaxAngle; i++ {
		want := telemetry.MaxAngle - 1 - i
		if angles[telemetry.MaxAngle+i] != want {
			t.Fatalf("descending step %d: angle %d, want %d", i, angles[telemetry.MaxAngle+i], want)
		}
	}
	// Third leg ascends again.
	if angles[2*telemetry.MaxAngle] != 1 {
		t.Fatalf("expected new ascending leg to start at 1, got %d", angles[2*telemetry.MaxAngle])
	}

	// Every sample followed one actuator move to the same angle.
	if len(act.moves) != len(angles) {
		t.Fatalf("actuator moves %d, samples %d", len(act.moves), len(angles))
	}
}

func TestSanitization(t *testing.T) {
	tests := []struct {
		name    string
		echo    time.Duration
		err     error
		wantCM  int
		ceiling int
	}{
		{name: "timeout absorbed", err: ErrNoEcho, wantCM: 0},
		{name: "deadline absorbed", err: context.DeadlineExceeded, wantCM: 0},
		{name: "zero reading", echo: 0, wantCM: 0},
		{name: "negative reading", echo: -time.Millisecond, wantCM: 0},
		{name: "beyond ceiling", echo: echoFor(401), wantCM: 0},
		{name: "at ceiling", echo: echoFor(400), wantCM: 400},
		{name: "in range", echo: echoFor(123), wantCM: 123},
		{name: "near zero", echo: echoFor(1), wantCM: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sensor := &scriptedSensor{readings: []time.Duration{tt.echo}, errs: []error{tt.err}}
			s := New(sensor, &recordingActuator{}, testConfig())
			sample, err := s.Step(context.Background())
			if err != nil {
				t.Fatalf("step: %v", err)
			}
			if sample.Distance != tt.wantCM {
				t.Errorf("distance = %d, want %d", sample.Distance, tt.wantCM)
			}
		})
	}
}

func TestStepSizeClampsAtBoundary(t *testing.T) {
	sensor := &scriptedSensor{readings: []time.Duration{echoFor(50)}}
	cfg := testConfig()
	cfg.StepDegrees = 50
	s := New(sensor, &recordingActuator{}, cfg)

	ctx := context.Background()
	var angles []int
	for i := 0; i < 9; i++ {
		sample, err := s.Step(ctx)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		angles = append(angles, sample.Angle)
	}
	want := []int{50, 100, 150, 180, 130, 80, 30, 0, 50}
	for i := range want {
		if angles[i] != want[i] {
			t.Fatalf("angles = %v, want %v", angles, want)
		}
	}
}

func TestActuatorErrorPropagates(t *testing.T) {
	boom := errors.New("servo fault")
	s := New(&scriptedSensor{readings: []time.Duration{0}}, &recordingActuator{err: boom}, testConfig())
	_, err := s.Step(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected servo fault, got %v", err)
	}
}

func TestRunWritesEncodedLines(t *testing.T) {
	sensor := &scriptedSensor{readings: []time.Duration{echoFor(100), 0}, errs: []error{nil, ErrNoEcho}}
	s := New(sensor, &recordingActuator{}, testConfig())

	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())

	// Stop after two lines by wrapping the writer.
	w := &stopAfterWriter{w: &buf, n: 2, cancel: cancel}
	err := s.Run(ctx, w)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("run returned %v, want context.Canceled", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), buf.String())
	}
	if lines[0] != "A:1 D:100" {
		t.Errorf("first line = %q, want %q", lines[0], "A:1 D:100")
	}
	if lines[1] != "A:2 D:0" {
		t.Errorf("second line = %q, want %q", lines[1], "A:2 D:0")
	}
}

type stopAfterWriter struct {
	w      *bytes.Buffer
	n      int
	cancel context.CancelFunc
}

func (s *stopAfterWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.n--
	if s.n == 0 {
		s.cancel()
	}
	return n, err
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(&scriptedSensor{readings: []time.Duration{0}}, &recordingActuator{}, testConfig())
	if err := s.Run(ctx, &bytes.Buffer{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMeasureTimeoutBoundsSensor(t *testing.T) {
	// A sensor that ignores readings and blocks until its context expires.
	blocking := blockingSensor{}
	cfg := testConfig()
	cfg.MeasureTimeout = 5 * time.Millisecond
	s := New(blocking, &recordingActuator{}, cfg)

	start := time.Now()
	sample, err := s.Step(context.Background())
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if sample.Distance != 0 {
		t.Errorf("blocked measurement should sanitize to 0, got %d", sample.Distance)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("step took %v, timeout did not bound the sensor", elapsed)
	}
}

type blockingSensor struct{}

func (blockingSensor) Measure(ctx context.Context) (time.Duration, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}
