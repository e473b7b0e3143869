package ui

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// LatencyTracker keeps a bounded ring of durations for percentile estimates.
type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	count   int
	idx     int
}

func NewLatencyTracker(size int) *LatencyTracker {
	if size <= 0 {
		size = 256
	}
	return &LatencyTracker{samples: make([]time.Duration, size)}
}

func (t *LatencyTracker) Observe(d time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.samples[t.idx] = d
	t.idx = (t.idx + 1) % len(t.samples)
	if t.count < len(t.samples) {
		t.count++
	}
	t.mu.Unlock()
}

type LatencySnapshot struct {
	P50 time.Duration
	P99 time.Duration
	N   int
}

func (t *LatencyTracker) Snapshot() LatencySnapshot {
	if t == nil {
		return LatencySnapshot{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.count == 0 {
		return LatencySnapshot{}
	}
	values := make([]time.Duration, t.count)
	copy(values, t.samples[:t.count])
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	p50 := values[t.count/2]
	p99 := values[int(float64(t.count-1)*0.99)]
	return LatencySnapshot{P50: p50, P99: p99, N: t.count}
}

// Metrics tracks inspector counters and latency distributions.
type Metrics struct {
	renderLatency *LatencyTracker
	frameDelay    *LatencyTracker
	drained       atomic.Uint64
	frames        atomic.Uint64
	toggles       atomic.Uint64
}

func NewMetrics() *Metrics {
	return &Metrics{
		renderLatency: NewLatencyTracker(512),
		frameDelay:    NewLatencyTracker(512),
	}
}

// ObserveRender records how long one pane draw took.
func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.renderLatency.Observe(d)
}

// ObserveFrameDelay records the wait between queuing a frame and running it.
func (m *Metrics) ObserveFrameDelay(d time.Duration) {
	if m == nil {
		return
	}
	m.frameDelay.Observe(d)
	m.frames.Add(1)
}

// Drained counts records moved from the channel into the collector.
func (m *Metrics) Drained(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.drained.Add(uint64(n))
}

func (m *Metrics) Toggle() {
	if m == nil {
		return
	}
	m.toggles.Add(1)
}

func (m *Metrics) RenderSnapshot() LatencySnapshot {
	if m == nil {
		return LatencySnapshot{}
	}
	return m.renderLatency.Snapshot()
}

func (m *Metrics) FrameDelaySnapshot() LatencySnapshot {
	if m == nil {
		return LatencySnapshot{}
	}
	return m.frameDelay.Snapshot()
}

func (m *Metrics) DrainedTotal() uint64 {
	if m == nil {
		return 0
	}
	return m.drained.Load()
}

func (m *Metrics) Frames() uint64 {
	if m == nil {
		return 0
	}
	return m.frames.Load()
}

func (m *Metrics) Toggles() uint64 {
	if m == nil {
		return 0
	}
	return m.toggles.Load()
}
