package scope

import (
	"context"
	"errors"
	"time"

	"github.com/fieldscan/sonarscope/internal/monitoring"
	"github.com/fieldscan/sonarscope/internal/telemetry"
)

// Feed consumes telemetry lines until ctx is cancelled or the channel
// closes. Rejected lines are counted and logged, then skipped; one bad frame
// never halts the stream. Samples are applied in arrival order.
func (s *Scope) Feed(ctx context.Context, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			sample, err := telemetry.Decode(line)
			if err != nil {
				s.recordParseError(err)
				monitoring.Logf("dropping telemetry line: %v", err)
				continue
			}
			s.OnSample(sample)
			if hook := s.sampleHook(); hook != nil {
				hook(sample)
			}
		}
	}
}

// RunFrameClock ages the trail at the given frame rate until ctx is
// cancelled. A display loop normally drives Advance once per redraw; when
// nothing is rendering, this keeps the trail bounded in its place.
func (s *Scope) RunFrameClock(ctx context.Context, frameRateHz int) {
	if frameRateHz <= 0 {
		frameRateHz = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(frameRateHz))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Advance()
		}
	}
}

// SetSampleHook registers a callback invoked for every accepted sample fed
// through Feed. Pass nil to clear it.
func (s *Scope) SetSampleHook(fn func(telemetry.Sample)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSample = fn
}

func (s *Scope) sampleHook() func(telemetry.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onSample
}

func (s *Scope) recordParseError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if errors.Is(err, telemetry.ErrOutOfRange) {
		s.outOfArc++
		return
	}
	s.malformed++
}
