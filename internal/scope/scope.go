// Package scope maintains the radar display model: the live sweep angle and
// a time-decaying trail of plotted points. It performs no drawing itself;
// front-ends (terminal view, HTTP charts) read immutable snapshots.
package scope

import (
	"math"
	"sync"

	"github.com/fieldscan/sonarscope/internal/telemetry"
)

// rangeFraction is the share of the canvas the maximum sensor range maps to,
// leaving a margin around the outer range ring.
const rangeFraction = 0.4

// TrailPoint is one plotted sample. Age counts frames since insertion.
type TrailPoint struct {
	X, Y     float64
	Angle    int
	Distance int
	Age      int
}

// Config sets the canvas geometry and trail retention.
type Config struct {
	// CanvasSize is the width and height of the square canvas in cells.
	CanvasSize int
	// TrailTTLFrames is the retention horizon: a point inserted at frame N
	// is gone once TrailTTLFrames frames have elapsed.
	TrailTTLFrames int
}

// DefaultConfig is a 41-cell canvas with a one second trail at 30 Hz.
func DefaultConfig() Config {
	return Config{CanvasSize: 41, TrailTTLFrames: 30}
}

// Scope is the renderer state. OnSample and Advance may be called from
// different goroutines; the internal mutex serializes them so the sample
// cadence and the frame cadence stay independent.
type Scope struct {
	mu    sync.Mutex
	cfg   Config
	angle int
	trail []TrailPoint

	samples   uint64
	malformed uint64
	outOfArc  uint64

	onSample func(telemetry.Sample)
}

// New creates a Scope with the given configuration.
func New(cfg Config) *Scope {
	if cfg.CanvasSize <= 0 {
		cfg.CanvasSize = DefaultConfig().CanvasSize
	}
	if cfg.TrailTTLFrames <= 0 {
		cfg.TrailTTLFrames = DefaultConfig().TrailTTLFrames
	}
	return &Scope{cfg: cfg}
}

// Center returns the canvas midpoint.
func (s *Scope) Center() (float64, float64) {
	c := float64(s.cfg.CanvasSize) / 2
	return c, c
}

// Project maps a sample's polar coordinates onto the canvas. The sweep is
// rotated by -90 degrees so the 0..180 arc spans the upper half-plane.
func (s *Scope) Project(sample telemetry.Sample) (x, y float64) {
	cx, cy := s.Center()
	radius := float64(sample.Distance) / float64(telemetry.MaxDistanceCM) * rangeFraction * float64(s.cfg.CanvasSize)
	rad := float64(sample.Angle-90) * math.Pi / 180
	return cx + math.Cos(rad)*radius, cy + math.Sin(rad)*radius
}

// OnSample records a decoded sample: updates the live sweep angle and
// appends a full-opacity trail point. The sentinel distance 0 still plots at
// the center radius; it is indistinguishable from a genuine near-zero echo.
func (s *Scope) OnSample(sample telemetry.Sample) {
	x, y := s.Project(sample)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.angle = sample.Angle
	s.samples++
	s.trail = append(s.trail, TrailPoint{
		X:        x,
		Y:        y,
		Angle:    sample.Angle,
		Distance: sample.Distance,
	})
}

// Advance ages the trail by one frame, dropping fully faded points. Called
// once per redraw by the frame loop, regardless of sample arrivals.
func (s *Scope) Advance() {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.trail[:0]
	for _, p := range s.trail {
		p.Age++
		if p.Age >= s.cfg.TrailTTLFrames {
			continue
		}
		kept = append(kept, p)
	}
	s.trail = kept
}

// Opacity returns the display opacity of a trail point in [0,1].
func (s *Scope) Opacity(p TrailPoint) float64 {
	o := 1 - float64(p.Age)/float64(s.cfg.TrailTTLFrames)
	if o < 0 {
		return 0
	}
	return o
}

// State is an immutable snapshot of the scope for rendering and the HTTP
// monitor.
type State struct {
	CanvasSize int          `json:"canvas_size"`
	Angle      int          `json:"angle"`
	Trail      []TrailPoint `json:"trail"`
	Samples    uint64       `json:"samples"`
	Malformed  uint64       `json:"malformed_frames"`
	OutOfArc   uint64       `json:"out_of_range_frames"`
}

// Snapshot copies the current state.
func (s *Scope) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	trail := make([]TrailPoint, len(s.trail))
	copy(trail, s.trail)
	return State{
		CanvasSize: s.cfg.CanvasSize,
		Angle:      s.angle,
		Trail:      trail,
		Samples:    s.samples,
		Malformed:  s.malformed,
		OutOfArc:   s.outOfArc,
	}
}

// TTLFrames returns the configured retention horizon.
func (s *Scope) TTLFrames() int { return s.cfg.TrailTTLFrames }

// Color maps a distance onto the near-red/far-green ramp, returning 8-bit
// RGB channels.
func Color(distanceCM int) (r, g, b uint8) {
	if distanceCM < 0 {
		distanceCM = 0
	}
	if distanceCM > telemetry.MaxDistanceCM {
		distanceCM = telemetry.MaxDistanceCM
	}
	t := float64(distanceCM) / float64(telemetry.MaxDistanceCM)
	return uint8(255 * (1 - t)), uint8(255 * t), 0
}
