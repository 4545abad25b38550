// Package clock provides the monotonic time sources the simulation reads
// instead of wall-clock timestamps. Times are durations since an epoch chosen
// by the source.
package clock

import (
	"sync"
	"time"
)

// Source reports the current simulation time.
type Source interface {
	Now() time.Duration
}

// Manual is a Source that only moves when told to. It drives fixed-step
// simulation and deterministic tests.
type Manual struct {
	mu  sync.RWMutex
	now time.Duration
}

// NewManual creates a manual clock starting at start.
func NewManual(start time.Duration) *Manual {
	return &Manual{now: start}
}

// Now returns the current time.
func (m *Manual) Now() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Advance moves the clock forward by d. Negative steps are ignored so the
// clock never runs backwards.
func (m *Manual) Advance(d time.Duration) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d > 0 {
		m.now += d
	}
	return m.now
}

// Set jumps to t. Used by tests to simulate clock anomalies.
func (m *Manual) Set(t time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Wall is a Source backed by the process monotonic clock.
type Wall struct {
	start time.Time
}

// NewWall creates a wall clock whose epoch is the moment of creation.
func NewWall() *Wall {
	return &Wall{start: time.Now()}
}

// Now returns the time elapsed since the clock was created.
func (w *Wall) Now() time.Duration {
	return time.Since(w.start)
}

// Elapsed returns now-since, clamped to zero when the source reports a time
// before since.
func Elapsed(src Source, since time.Duration) time.Duration {
	d := src.Now() - since
	if d < 0 {
		return 0
	}
	return d
}
