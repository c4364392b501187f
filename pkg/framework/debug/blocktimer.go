package debug

import (
	"fmt"
	"slices"
	"time"
)

// BlockTimer records how long each processed block took against the
// real-time budget of the block. It keeps the last N durations in a fixed
// window, so Record never allocates. A BlockTimer is owned by one
// goroutine; read Stats after processing stops.
type BlockTimer struct {
	window  []time.Duration
	next    int
	filled  bool
	count   uint64
	total   time.Duration
	min     time.Duration
	max     time.Duration
	overrun uint64
}

// BlockStats summarizes the recorded blocks.
type BlockStats struct {
	Count    uint64
	Mean     time.Duration
	Min      time.Duration
	Max      time.Duration
	P99      time.Duration
	Overruns uint64
}

// NewBlockTimer keeps the last window durations for percentile stats.
func NewBlockTimer(window int) *BlockTimer {
	if window < 1 {
		window = 1024
	}
	return &BlockTimer{window: make([]time.Duration, window)}
}

// Budget returns the wall time available to a block of n samples.
func Budget(n int, sampleRate float64) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(n) * float64(time.Second) / sampleRate)
}

// Record stores one block duration; a duration above budget is an overrun.
func (t *BlockTimer) Record(elapsed, budget time.Duration) {
	if t.count == 0 || elapsed < t.min {
		t.min = elapsed
	}
	if elapsed > t.max {
		t.max = elapsed
	}
	if budget > 0 && elapsed > budget {
		t.overrun++
	}
	t.count++
	t.total += elapsed

	t.window[t.next] = elapsed
	t.next++
	if t.next == len(t.window) {
		t.next = 0
		t.filled = true
	}
}

// Stats computes the summary. It allocates and belongs on the control side.
func (t *BlockTimer) Stats() BlockStats {
	if t.count == 0 {
		return BlockStats{}
	}
	n := t.next
	if t.filled {
		n = len(t.window)
	}
	sorted := slices.Clone(t.window[:n])
	slices.Sort(sorted)

	return BlockStats{
		Count:    t.count,
		Mean:     t.total / time.Duration(t.count),
		Min:      t.min,
		Max:      t.max,
		P99:      sorted[(len(sorted)*99)/100],
		Overruns: t.overrun,
	}
}

// Reset clears all recorded blocks.
func (t *BlockTimer) Reset() {
	*t = BlockTimer{window: t.window}
}

func (s BlockStats) String() string {
	return fmt.Sprintf("blocks=%d mean=%v min=%v max=%v p99=%v overruns=%d",
		s.Count, s.Mean, s.Min, s.Max, s.P99, s.Overruns)
}
