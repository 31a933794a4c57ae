package sweepstats

import (
	"math"
	"testing"

	"github.com/fieldscan/sonarscope/internal/telemetry"
)

func TestCollectorSummarizesLeg(t *testing.T) {
	c := NewCollector()

	// An ascending leg ending at the 180 boundary.
	c.Observe(telemetry.Sample{Angle: 178, Distance: 100})
	c.Observe(telemetry.Sample{Angle: 179, Distance: 0})
	c.Observe(telemetry.Sample{Angle: 180, Distance: 300})

	sum, ok := c.Latest()
	if !ok {
		t.Fatal("expected a completed summary")
	}
	if sum.Samples != 3 {
		t.Errorf("samples = %d, want 3", sum.Samples)
	}
	if sum.Detections != 2 {
		t.Errorf("detections = %d, want 2", sum.Detections)
	}
	if math.Abs(sum.DetectionRatio-2.0/3.0) > 1e-9 {
		t.Errorf("detection ratio = %v", sum.DetectionRatio)
	}
	if sum.MinCM != 100 || sum.MaxCM != 300 {
		t.Errorf("min/max = %d/%d, want 100/300", sum.MinCM, sum.MaxCM)
	}
	if math.Abs(sum.MeanCM-200) > 1e-9 {
		t.Errorf("mean = %v, want 200", sum.MeanCM)
	}
	if sum.StdDevCM <= 0 {
		t.Errorf("stddev = %v, want positive", sum.StdDevCM)
	}
}

func TestCollectorNoDetections(t *testing.T) {
	c := NewCollector()
	c.Observe(telemetry.Sample{Angle: 179, Distance: 0})
	c.Observe(telemetry.Sample{Angle: 180, Distance: 0})

	sum, ok := c.Latest()
	if !ok {
		t.Fatal("expected a completed summary")
	}
	if sum.Detections != 0 || sum.DetectionRatio != 0 {
		t.Errorf("expected empty detections, got %+v", sum)
	}
	if sum.MeanCM != 0 || sum.StdDevCM != 0 {
		t.Errorf("expected zero stats, got %+v", sum)
	}
}

func TestCollectorTracksLegs(t *testing.T) {
	c := NewCollector()
	if _, ok := c.Latest(); ok {
		t.Fatal("fresh collector should have no summary")
	}

	c.Observe(telemetry.Sample{Angle: 180, Distance: 50})
	c.Observe(telemetry.Sample{Angle: 179, Distance: 60})
	c.Observe(telemetry.Sample{Angle: 0, Distance: 70})

	if got := c.Completed(); got != 2 {
		t.Errorf("completed legs = %d, want 2", got)
	}
	sum, _ := c.Latest()
	if sum.Samples != 2 {
		t.Errorf("latest leg samples = %d, want 2", sum.Samples)
	}
}

func TestSingleDetectionHasZeroSpread(t *testing.T) {
	c := NewCollector()
	c.Observe(telemetry.Sample{Angle: 0, Distance: 42})
	sum, ok := c.Latest()
	if !ok {
		t.Fatal("expected a summary")
	}
	if sum.StdDevCM != 0 {
		t.Errorf("stddev of single detection = %v, want 0", sum.StdDevCM)
	}
	if sum.MeanCM != 42 {
		t.Errorf("mean = %v, want 42", sum.MeanCM)
	}
}
