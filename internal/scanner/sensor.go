package scanner

import (
	"context"
	"errors"
	"time"
)

// ErrNoEcho is returned by a DistanceSensor when no echo pulse arrives within
// its bounded listening window. The scanner absorbs it into the sentinel
// distance; it is an expected outcome, not a fault.
var ErrNoEcho = errors.New("no echo received")

// DistanceSensor is the capability interface for one ranging device. Measure
// issues a trigger pulse and blocks until an echo arrives or ctx expires,
// returning the round-trip echo time. Implementations must honour ctx so the
// worst-case latency of a sweep step stays bounded.
type DistanceSensor interface {
	Measure(ctx context.Context) (time.Duration, error)
}

// Actuator positions the angular sweep mechanism. Move blocks only long
// enough to issue the command; mechanical settling is the scanner's concern.
type Actuator interface {
	Move(angleDeg int) error
}
