package scope

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/fieldscan/sonarscope/internal/telemetry"
)

const epsilon = 1e-9

func TestProjectCenterForSentinel(t *testing.T) {
	s := New(Config{CanvasSize: 40, TrailTTLFrames: 10})
	cx, cy := s.Center()

	// Radius 0 lands on the center regardless of angle.
	for _, angle := range []int{0, 45, 90, 180} {
		x, y := s.Project(telemetry.Sample{Angle: angle, Distance: 0})
		if math.Abs(x-cx) > epsilon || math.Abs(y-cy) > epsilon {
			t.Errorf("angle %d distance 0 mapped to (%v,%v), want center (%v,%v)", angle, x, y, cx, cy)
		}
	}
}

func TestProjectMaxRange(t *testing.T) {
	s := New(Config{CanvasSize: 40, TrailTTLFrames: 10})
	cx, cy := s.Center()
	maxRadius := 0.4 * 40

	// Angle 0 rotates to -90 degrees: straight up in the plot frame.
	x, y := s.Project(telemetry.Sample{Angle: 0, Distance: 400})
	if math.Abs(x-cx) > epsilon {
		t.Errorf("x = %v, want %v", x, cx)
	}
	if math.Abs(y-(cy-maxRadius)) > epsilon {
		t.Errorf("y = %v, want %v", y, cy-maxRadius)
	}

	// Angle 90 rotates to 0 degrees: straight right.
	x, y = s.Project(telemetry.Sample{Angle: 90, Distance: 400})
	if math.Abs(x-(cx+maxRadius)) > epsilon {
		t.Errorf("x = %v, want %v", x, cx+maxRadius)
	}
	if math.Abs(y-cy) > epsilon {
		t.Errorf("y = %v, want %v", y, cy)
	}

	// Half range lands halfway out.
	x, _ = s.Project(telemetry.Sample{Angle: 90, Distance: 200})
	if math.Abs(x-(cx+maxRadius/2)) > epsilon {
		t.Errorf("half range x = %v, want %v", x, cx+maxRadius/2)
	}
}

func TestOnSampleUpdatesAngleAndTrail(t *testing.T) {
	s := New(DefaultConfig())
	s.OnSample(telemetry.Sample{Angle: 30, Distance: 100})
	s.OnSample(telemetry.Sample{Angle: 31, Distance: 0})

	st := s.Snapshot()
	if st.Angle != 31 {
		t.Errorf("angle = %d, want 31", st.Angle)
	}
	if len(st.Trail) != 2 {
		t.Fatalf("trail length = %d, want 2", len(st.Trail))
	}
	if st.Trail[0].Age != 0 || st.Trail[1].Age != 0 {
		t.Errorf("new trail points must start at age 0: %+v", st.Trail)
	}
}

func TestTrailDecay(t *testing.T) {
	ttl := 5
	s := New(Config{CanvasSize: 20, TrailTTLFrames: ttl})
	s.OnSample(telemetry.Sample{Angle: 10, Distance: 50})

	// One frame later the point is present but faded.
	s.Advance()
	st := s.Snapshot()
	if len(st.Trail) != 1 {
		t.Fatalf("trail length after one frame = %d, want 1", len(st.Trail))
	}
	if got := s.Opacity(st.Trail[0]); got >= 1 || got <= 0 {
		t.Errorf("opacity after one frame = %v, want within (0,1)", got)
	}

	// New arrivals do not rejuvenate old points.
	s.OnSample(telemetry.Sample{Angle: 11, Distance: 60})

	for i := 1; i < ttl; i++ {
		s.Advance()
	}
	st = s.Snapshot()
	for _, p := range st.Trail {
		if p.Angle == 10 {
			t.Errorf("point from frame 0 still present after %d frames", ttl)
		}
	}
}

func TestAdvanceOnEmptyTrail(t *testing.T) {
	s := New(DefaultConfig())
	s.Advance() // must not panic
	if got := len(s.Snapshot().Trail); got != 0 {
		t.Errorf("trail length = %d, want 0", got)
	}
}

func TestColorRamp(t *testing.T) {
	r, g, b := Color(0)
	if r != 255 || g != 0 || b != 0 {
		t.Errorf("Color(0) = (%d,%d,%d), want pure red", r, g, b)
	}
	r, g, b = Color(400)
	if r != 0 || g != 255 || b != 0 {
		t.Errorf("Color(400) = (%d,%d,%d), want pure green", r, g, b)
	}
	r, g, _ = Color(200)
	if r == 0 || g == 0 {
		t.Errorf("Color(200) = (%d,%d,_), want a mix", r, g)
	}
	// Out-of-domain distances clamp instead of wrapping.
	r, g, _ = Color(9999)
	if r != 0 || g != 255 {
		t.Errorf("Color(9999) = (%d,%d,_), want clamped to far green", r, g)
	}
}

func TestFeedEndToEnd(t *testing.T) {
	s := New(DefaultConfig())
	lines := make(chan string, 4)
	lines <- "A:0 D:100"
	lines <- "A:1 D:0"
	close(lines)

	if err := s.Feed(context.Background(), lines); err != nil {
		t.Fatalf("feed: %v", err)
	}

	st := s.Snapshot()
	if len(st.Trail) != 2 {
		t.Errorf("trail length = %d, want 2", len(st.Trail))
	}
	if st.Angle != 1 {
		t.Errorf("angle = %d, want 1", st.Angle)
	}
	if st.Samples != 2 {
		t.Errorf("samples = %d, want 2", st.Samples)
	}
}

func TestFeedSkipsBadLines(t *testing.T) {
	s := New(DefaultConfig())
	lines := make(chan string, 5)
	lines <- "A:0 D:100"
	lines <- "garbage"
	lines <- "A:200 D:50"
	lines <- "A:2 D:75"
	close(lines)

	if err := s.Feed(context.Background(), lines); err != nil {
		t.Fatalf("feed: %v", err)
	}

	st := s.Snapshot()
	if len(st.Trail) != 2 {
		t.Errorf("trail length = %d, want 2 (bad lines skipped)", len(st.Trail))
	}
	if st.Malformed != 1 {
		t.Errorf("malformed count = %d, want 1", st.Malformed)
	}
	if st.OutOfArc != 1 {
		t.Errorf("out of range count = %d, want 1", st.OutOfArc)
	}
	if st.Angle != 2 {
		t.Errorf("angle = %d, want 2", st.Angle)
	}
}

func TestFrameClockBoundsTrail(t *testing.T) {
	s := New(Config{CanvasSize: 40, TrailTTLFrames: 2})
	s.OnSample(telemetry.Sample{Angle: 90, Distance: 100})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.RunFrameClock(ctx, 1000)
	}()

	// With no display driving Advance, the clock alone must age the point
	// past its horizon.
	deadline := time.After(2 * time.Second)
	for len(s.Snapshot().Trail) != 0 {
		select {
		case <-deadline:
			t.Fatalf("trail still holds %d points after horizon", len(s.Snapshot().Trail))
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("frame clock did not stop on cancel")
	}
}

func TestFeedStopsOnCancel(t *testing.T) {
	s := New(DefaultConfig())
	lines := make(chan string)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Feed(ctx, lines) }()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("feed returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not stop on cancel")
	}
}
