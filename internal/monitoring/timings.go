package monitoring

import (
	"sort"
	"sync"
	"time"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/timeutil"
)

// DefaultSlowThreshold is the duration above which a timed call is logged.
const DefaultSlowThreshold = 100 * time.Millisecond

// Stat is the accumulated wall time of one named operation.
type Stat struct {
	Name  string        `json:"name"`
	Total time.Duration `json:"total"`
	Calls int           `json:"calls"`
}

// Timings accumulates per-operation wall time. It is safe for concurrent
// use and owned by whoever creates it; nothing is recorded globally.
type Timings struct {
	// SlowThreshold overrides DefaultSlowThreshold when positive.
	SlowThreshold time.Duration

	clock timeutil.Clock
	mu    sync.Mutex
	stats map[string]*Stat
}

// NewTimings creates a Timings that reads time from clock. A nil clock
// uses the real clock.
func NewTimings(clock timeutil.Clock) *Timings {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Timings{clock: clock, stats: make(map[string]*Stat)}
}

func (t *Timings) slowThreshold() time.Duration {
	if t.SlowThreshold > 0 {
		return t.SlowThreshold
	}
	return DefaultSlowThreshold
}

// Record adds one call of duration d to the named operation and logs it
// when it exceeds the slow threshold.
func (t *Timings) Record(name string, d time.Duration) {
	t.mu.Lock()
	s, ok := t.stats[name]
	if !ok {
		s = &Stat{Name: name}
		t.stats[name] = s
	}
	s.Total += d
	s.Calls++
	total := s.Total
	t.mu.Unlock()

	if d > t.slowThreshold() {
		Logf("%s took %.3fs (total %.3fs)", name, d.Seconds(), total.Seconds())
	}
}

// Get returns the accumulated stat for name.
func (t *Timings) Get(name string) (Stat, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.stats[name]
	if !ok {
		return Stat{}, false
	}
	return *s, true
}

// Snapshot returns every stat sorted by name.
func (t *Timings) Snapshot() []Stat {
	t.mu.Lock()
	out := make([]Stat, 0, len(t.stats))
	for _, s := range t.stats {
		out = append(out, *s)
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Timed runs fn and records its duration under name. A nil Timings runs
// fn untimed.
func Timed[T any](name string, timings *Timings, fn func() (T, error)) (T, error) {
	if timings == nil {
		return fn()
	}
	start := timings.clock.Now()
	v, err := fn()
	timings.Record(name, timings.clock.Since(start))
	return v, err
}

// TimedSegmenter wraps a segmenter and records every Segment call under
// "segment.<method>".
type TimedSegmenter struct {
	gaze.Segmenter
	Timings *Timings
}

// Segment delegates to the wrapped segmenter.
func (s TimedSegmenter) Segment(samples []gaze.Sample) (*gaze.Result, error) {
	return Timed("segment."+string(s.Method()), s.Timings, func() (*gaze.Result, error) {
		return s.Segmenter.Segment(samples)
	})
}
