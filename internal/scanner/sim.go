package scanner

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Target is an object in the simulated scene covering an angular span at a
// fixed range.
type Target struct {
	FromDeg    int
	ToDeg      int
	DistanceCM int
}

// SimulatedRig implements both DistanceSensor and Actuator against a
// synthetic scene, for dev mode, fixture generation, and tests. Angles with
// no target behave like open space: the measurement times out.
type SimulatedRig struct {
	mu    sync.Mutex
	angle int

	// Targets describes the scene. Spans may overlap; the nearest wins.
	Targets []Target

	// NoiseCM adds +/- uniform jitter to simulated ranges.
	NoiseCM int

	// EchoDelay, when set, makes Measure sleep for the simulated round-trip
	// time instead of returning immediately.
	EchoDelay bool

	rng *rand.Rand
}

// NewSimulatedRig creates a rig with a small default scene: a wall segment on
// the left, a post near the middle, and open space elsewhere.
func NewSimulatedRig(seed int64) *SimulatedRig {
	return &SimulatedRig{
		Targets: []Target{
			{FromDeg: 0, ToDeg: 40, DistanceCM: 220},
			{FromDeg: 85, ToDeg: 95, DistanceCM: 60},
			{FromDeg: 150, ToDeg: 165, DistanceCM: 340},
		},
		NoiseCM: 3,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Move implements Actuator.
func (r *SimulatedRig) Move(angleDeg int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.angle = angleDeg
	return nil
}

// Measure implements DistanceSensor. Returns the round-trip echo time for
// the nearest target covering the current angle, or ErrNoEcho when the angle
// faces open space.
func (r *SimulatedRig) Measure(ctx context.Context) (time.Duration, error) {
	r.mu.Lock()
	angle := r.angle
	nearest := 0
	for _, t := range r.Targets {
		if angle < t.FromDeg || angle > t.ToDeg {
			continue
		}
		if nearest == 0 || t.DistanceCM < nearest {
			nearest = t.DistanceCM
		}
	}
	if nearest > 0 && r.NoiseCM > 0 {
		if r.rng == nil {
			r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		nearest += r.rng.Intn(2*r.NoiseCM+1) - r.NoiseCM
	}
	r.mu.Unlock()

	if nearest <= 0 {
		return 0, ErrNoEcho
	}

	echo := time.Duration(float64(nearest)*microsecondsPerCM) * time.Microsecond
	if r.EchoDelay {
		t := time.NewTimer(echo)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return 0, err
	}
	return echo, nil
}
