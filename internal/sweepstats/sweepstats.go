// Package sweepstats summarizes completed sweep legs: range statistics over
// the detections and the detection ratio. Summaries are published to the
// monitoring HTTP surface; nothing here persists across restarts.
package sweepstats

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/fieldscan/sonarscope/internal/telemetry"
)

// Summary describes one completed sweep leg.
type Summary struct {
	Samples        int       `json:"samples"`
	Detections     int       `json:"detections"`
	DetectionRatio float64   `json:"detection_ratio"`
	MinCM          int       `json:"min_cm"`
	MaxCM          int       `json:"max_cm"`
	MeanCM         float64   `json:"mean_cm"`
	StdDevCM       float64   `json:"stddev_cm"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Collector accumulates samples and finalizes a Summary each time the sweep
// reaches an arc boundary. Safe for one observer goroutine plus concurrent
// Latest readers.
type Collector struct {
	mu        sync.Mutex
	distances []int
	latest    *Summary
	completed uint64
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Observe adds one sample. Reaching angle 0 or 180 closes the current leg.
func (c *Collector) Observe(s telemetry.Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.distances = append(c.distances, s.Distance)
	if s.Angle == 0 || s.Angle == telemetry.MaxAngle {
		c.finalizeLocked()
	}
}

func (c *Collector) finalizeLocked() {
	if len(c.distances) == 0 {
		return
	}

	sum := Summary{
		Samples:     len(c.distances),
		CompletedAt: time.Now(),
	}

	var detected []float64
	for _, d := range c.distances {
		if d == 0 {
			continue
		}
		if sum.Detections == 0 || d < sum.MinCM {
			sum.MinCM = d
		}
		if d > sum.MaxCM {
			sum.MaxCM = d
		}
		sum.Detections++
		detected = append(detected, float64(d))
	}
	sum.DetectionRatio = float64(sum.Detections) / float64(sum.Samples)
	if len(detected) > 0 {
		sum.MeanCM = stat.Mean(detected, nil)
	}
	if len(detected) > 1 {
		sum.StdDevCM = stat.StdDev(detected, nil)
	}

	c.latest = &sum
	c.completed++
	c.distances = c.distances[:0]
}

// Latest returns the most recently completed leg summary.
func (c *Collector) Latest() (Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return Summary{}, false
	}
	return *c.latest, true
}

// Completed returns how many legs have been summarized.
func (c *Collector) Completed() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}
