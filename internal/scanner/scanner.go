// Package scanner drives the angular sweep loop: one actuator move, one
// settling delay, and one bounded distance measurement per step, yielding an
// unending triangle-wave sequence of sanitized telemetry samples.
package scanner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fieldscan/sonarscope/internal/telemetry"
)

// Direction is the current travel direction of the sweep.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "descending"
	}
	return "ascending"
}

// microsecondsPerCM converts round-trip echo time to centimeters. Derived
// from the speed of sound in air (~343 m/s, there and back).
const microsecondsPerCM = 58.2

// Config holds the sweep loop timing and sanitization parameters. All delays
// are explicit so tests can run with zero timing.
type Config struct {
	// StepDegrees is the angular increment per step.
	StepDegrees int
	// SettleDelay is the pause between the actuator move and the
	// measurement, covering mechanical slew time.
	SettleDelay time.Duration
	// MeasureTimeout bounds how long one measurement may wait for an echo.
	MeasureTimeout time.Duration
	// MaxDistanceCM is the sanitization ceiling; converted readings above it
	// collapse to the sentinel distance 0.
	MaxDistanceCM int
}

// DefaultConfig returns the reference timing: 1 degree steps, 15ms settle,
// 30ms echo timeout (~5m round trip, comfortably past the 400cm range).
func DefaultConfig() Config {
	return Config{
		StepDegrees:    1,
		SettleDelay:    15 * time.Millisecond,
		MeasureTimeout: 30 * time.Millisecond,
		MaxDistanceCM:  telemetry.MaxDistanceCM,
	}
}

// Scanner owns the sweep state and produces samples one step at a time.
// It is single-writer: Step and Run must not be called concurrently.
type Scanner struct {
	sensor   DistanceSensor
	actuator Actuator
	cfg      Config

	direction Direction
	angle     int
}

// New creates a Scanner at angle 0, ascending.
func New(sensor DistanceSensor, actuator Actuator, cfg Config) *Scanner {
	if cfg.StepDegrees <= 0 {
		cfg.StepDegrees = 1
	}
	if cfg.MaxDistanceCM <= 0 {
		cfg.MaxDistanceCM = telemetry.MaxDistanceCM
	}
	return &Scanner{
		sensor:    sensor,
		actuator:  actuator,
		cfg:       cfg,
		direction: Ascending,
		angle:     0,
	}
}

// Angle returns the current sweep angle in degrees.
func (s *Scanner) Angle() int { return s.angle }

// Direction returns the current sweep direction.
func (s *Scanner) Direction() Direction { return s.direction }

// Step advances the sweep by one angular increment, reversing at the arc
// boundaries, then measures once. Exactly one Sample is produced per call,
// carrying the post-move angle. Sensor timeouts never surface as errors; only
// actuator failures and context cancellation do.
func (s *Scanner) Step(ctx context.Context) (telemetry.Sample, error) {
	s.advance()

	if err := s.actuator.Move(s.angle); err != nil {
		return telemetry.Sample{}, fmt.Errorf("move to %d degrees: %w", s.angle, err)
	}

	if err := sleepCtx(ctx, s.cfg.SettleDelay); err != nil {
		return telemetry.Sample{}, err
	}

	return telemetry.Sample{Angle: s.angle, Distance: s.measure(ctx)}, nil
}

// Run steps forever, writing one encoded telemetry line per sample to out,
// until ctx is cancelled or a write fails.
func (s *Scanner) Run(ctx context.Context, out io.Writer) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		sample, err := s.Step(ctx)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(out, telemetry.Encode(sample)); err != nil {
			return fmt.Errorf("write sample: %w", err)
		}
	}
}

// advance moves the sweep state one increment. Reaching a boundary flips the
// direction instead of overshooting, giving the triangle wave 0..180..0.
func (s *Scanner) advance() {
	if s.angle >= telemetry.MaxAngle {
		s.direction = Descending
	} else if s.angle <= 0 {
		s.direction = Ascending
	}

	if s.direction == Ascending {
		s.angle += s.cfg.StepDegrees
		if s.angle > telemetry.MaxAngle {
			s.angle = telemetry.MaxAngle
		}
	} else {
		s.angle -= s.cfg.StepDegrees
		if s.angle < 0 {
			s.angle = 0
		}
	}
}

// measure performs one bounded measurement and sanitizes the result. Any
// reading that is absent, non-positive, or beyond the ceiling becomes the
// sentinel 0.
func (s *Scanner) measure(ctx context.Context) int {
	mctx := ctx
	if s.cfg.MeasureTimeout > 0 {
		var cancel context.CancelFunc
		mctx, cancel = context.WithTimeout(ctx, s.cfg.MeasureTimeout)
		defer cancel()
	}

	echo, err := s.sensor.Measure(mctx)
	if err != nil {
		return 0
	}

	cm := int(float64(echo.Microseconds()) / microsecondsPerCM)
	if cm <= 0 || cm > s.cfg.MaxDistanceCM {
		return 0
	}
	return cm
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
