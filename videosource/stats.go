package videosource

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// FrameStats counts frames a worker accepted into its slot and frames
// dropped, meaning overwritten before any reader saw them, with per second
// rates refreshed by a ticker.
type FrameStats struct {
	mu                sync.Mutex
	acceptedTotal     int
	acceptedPerSecond int
	droppedTotal      int
	droppedPerSecond  int
	acceptedTmp       int
	droppedTmp        int
	fpsTick           *clock.Ticker
	done              chan struct{}
	once              sync.Once
}

// StatsSnapshot is a point in time copy of the counters
type StatsSnapshot struct {
	AcceptedTotal     int
	AcceptedPerSecond int
	DroppedTotal      int
	DroppedPerSecond  int
}

// NewFrameStats creates a new FrameStats and starts its rate ticker
func NewFrameStats() *FrameStats {
	return newFrameStatsWithClock(clock.New())
}

// newFrameStatsWithClock lets tests drive the rollover from a mock clock
func newFrameStatsWithClock(clk clock.Clock) *FrameStats {
	f := &FrameStats{
		fpsTick: clk.Ticker(time.Second),
		done:    make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-f.fpsTick.C:
				f.mu.Lock()
				f.acceptedPerSecond = f.acceptedTmp
				f.acceptedTmp = 0
				f.droppedPerSecond = f.droppedTmp
				f.droppedTmp = 0
				f.mu.Unlock()
			case <-f.done:
				return
			}
		}
	}()
	return f
}

// AddAccepted counts one frame put into the slot
func (f *FrameStats) AddAccepted() {
	f.mu.Lock()
	f.acceptedTotal++
	f.acceptedTmp++
	f.mu.Unlock()
}

// AddDropped counts one frame overwritten unread
func (f *FrameStats) AddDropped() {
	f.mu.Lock()
	f.droppedTotal++
	f.droppedTmp++
	f.mu.Unlock()
}

// Snapshot returns a copy of the current counters
func (f *FrameStats) Snapshot() StatsSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return StatsSnapshot{
		AcceptedTotal:     f.acceptedTotal,
		AcceptedPerSecond: f.acceptedPerSecond,
		DroppedTotal:      f.droppedTotal,
		DroppedPerSecond:  f.droppedPerSecond,
	}
}

// Cleanup stops the rate ticker
func (f *FrameStats) Cleanup() {
	f.once.Do(func() {
		f.fpsTick.Stop()
		close(f.done)
		f.mu.Lock()
		f.acceptedPerSecond = 0
		f.droppedPerSecond = 0
		f.mu.Unlock()
	})
}
