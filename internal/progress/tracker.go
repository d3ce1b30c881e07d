// Package progress provides debounced progress accounting and memory-bounded
// result batching for a streaming search.
package progress

import "time"

// DefaultInterval is the minimum time between progress emissions.
const DefaultInterval = 500 * time.Millisecond

// Tracker keeps monotonic counters for one search: distinct files seen
// (detected by path change between observations) and cumulative matches,
// plus elapsed time since Reset. Emission is debounced by wall clock,
// independent of how fast observations arrive. Not safe for concurrent use;
// it is owned by the worker goroutine.
type Tracker struct {
	interval time.Duration
	now      func() time.Time

	started  time.Time
	lastEmit time.Time
	lastPath string
	files    int
	matches  int
}

// NewTracker creates a tracker; interval <= 0 uses DefaultInterval.
func NewTracker(interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Tracker{interval: interval, now: time.Now}
}

// Reset starts the clock and zeroes all counters. Called exactly once per search.
func (t *Tracker) Reset() {
	t.started = t.now()
	t.lastEmit = time.Time{}
	t.lastPath = ""
	t.files = 0
	t.matches = 0
}

// Observe records matchCount new matches in path. A path different from the
// previous observation counts as a newly seen file.
func (t *Tracker) Observe(path string, matchCount int) {
	if path != t.lastPath {
		t.lastPath = path
		t.files++
	}
	t.matches += matchCount
}

// ShouldEmit reports whether enough time has passed since the last emission;
// when true the emission window restarts.
func (t *Tracker) ShouldEmit() bool {
	now := t.now()
	if !t.lastEmit.IsZero() && now.Sub(t.lastEmit) < t.interval {
		return false
	}
	t.lastEmit = now
	return true
}

// Files returns the distinct-file counter.
func (t *Tracker) Files() int { return t.files }

// Matches returns the cumulative match counter.
func (t *Tracker) Matches() int { return t.matches }

// Elapsed returns time since Reset.
func (t *Tracker) Elapsed() time.Duration {
	if t.started.IsZero() {
		return 0
	}
	return t.now().Sub(t.started)
}
