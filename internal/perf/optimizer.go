// Package perf tracks frame timings and advises the detection loop on
// when to process or skip frames.
package perf

import (
	"fmt"
	"math/rand"
	"runtime"
	"runtime/debug"
	"sort"
	"sync"
	"time"
)

// Buffer bounds for the timing windows.
const (
	// FPSWindowSize is how many frame timestamps back the FPS estimate looks.
	FPSWindowSize = 30
	// LatencyWindowSize is how many latency samples back percentiles look.
	LatencyWindowSize = 100
)

// DefaultHeapLimitMB is the coarse heap ceiling used by the memory check.
const DefaultHeapLimitMB = 512

// Stats is a read-only snapshot of the optimizer's counters.
type Stats struct {
	CurrentFPS   float64 `json:"currentFps"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`
	P50LatencyMs float64 `json:"p50LatencyMs"`
	P95LatencyMs float64 `json:"p95LatencyMs"`
	P99LatencyMs float64 `json:"p99LatencyMs"`
	Samples      int     `json:"samples"`
	MemoryOK     bool    `json:"memoryOk"`
}

// Optimizer decides, independent of pose semantics, whether the next frame
// should be processed. It rate-limits attempts to a maximum FPS and thins
// frames probabilistically when throughput falls below the acceptable
// minimum, so load sheds gradually instead of cutting off.
type Optimizer struct {
	mu          sync.Mutex
	minFPS      float64
	maxFPS      float64
	heapLimitMB uint64
	timestamps  []time.Time
	latencies   []float64
	lastAllowed time.Time
	started     bool
	rng         *rand.Rand
	nowFn       func() time.Time
}

// NewOptimizer creates an Optimizer with the given throughput bounds.
// minFPS is the lowest acceptable processing rate before thinning begins;
// maxFPS caps how often frames are attempted at all.
func NewOptimizer(minFPS, maxFPS float64) *Optimizer {
	if minFPS <= 0 {
		minFPS = 10
	}
	if maxFPS < minFPS {
		maxFPS = minFPS
	}
	return &Optimizer{
		minFPS:      minFPS,
		maxFPS:      maxFPS,
		heapLimitMB: DefaultHeapLimitMB,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		nowFn:       time.Now,
	}
}

// ShouldProcessFrame reports whether the caller should attempt the current
// frame. The very first call always returns true.
func (o *Optimizer) ShouldProcessFrame() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.nowFn()

	if !o.started {
		o.started = true
		o.lastAllowed = now
		return true
	}

	// Hard rate limit against the configured maximum.
	if now.Sub(o.lastAllowed) < time.Duration(float64(time.Second)/o.maxFPS) {
		return false
	}

	fps := o.currentFPS()
	if fps == 0 || fps >= o.minFPS {
		o.lastAllowed = now
		return true
	}

	// Below the acceptable minimum: drop with probability 1 - fps/minFPS.
	if o.rng.Float64() < 1-fps/o.minFPS {
		return false
	}

	o.lastAllowed = now
	return true
}

// RecordFrameProcessed records one processed frame and its latency.
func (o *Optimizer) RecordFrameProcessed(latencyMs float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.timestamps = append(o.timestamps, o.nowFn())
	if len(o.timestamps) > FPSWindowSize {
		o.timestamps = o.timestamps[len(o.timestamps)-FPSWindowSize:]
	}

	o.latencies = append(o.latencies, latencyMs)
	if len(o.latencies) > LatencyWindowSize {
		o.latencies = o.latencies[len(o.latencies)-LatencyWindowSize:]
	}
}

// CurrentFPS derives throughput from the timestamp span of the FPS window.
// Returns 0 with fewer than two samples.
func (o *Optimizer) CurrentFPS() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.currentFPS()
}

func (o *Optimizer) currentFPS() float64 {
	n := len(o.timestamps)
	if n < 2 {
		return 0
	}
	span := o.timestamps[n-1].Sub(o.timestamps[0]).Seconds()
	if span <= 0 {
		return 0
	}
	return float64(n-1) / span
}

// AverageLatency returns the mean latency over the window, in ms.
func (o *Optimizer) AverageLatency() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.latencies) == 0 {
		return 0
	}
	var sum float64
	for _, l := range o.latencies {
		sum += l
	}
	return sum / float64(len(o.latencies))
}

// LatencyPercentile returns the p-th percentile latency in ms over the
// window, computed on a sorted copy. Returns 0 with no samples.
func (o *Optimizer) LatencyPercentile(p float64) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.latencyPercentile(p)
}

func (o *Optimizer) latencyPercentile(p float64) float64 {
	n := len(o.latencies)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, o.latencies)
	sort.Float64s(sorted)

	idx := int(p / 100 * float64(n-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// MemoryWithinLimits reports whether the heap is under the coarse ceiling.
func (o *Optimizer) MemoryWithinLimits() bool {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	o.mu.Lock()
	limit := o.heapLimitMB
	o.mu.Unlock()

	return ms.HeapAlloc < limit*1024*1024
}

// OptimizeMemory forces a collection and returns freed pages to the OS.
// Callers should invoke this on sustained pressure, not per frame.
func (o *Optimizer) OptimizeMemory() {
	runtime.GC()
	debug.FreeOSMemory()
}

// SetHeapLimitMB overrides the heap ceiling used by MemoryWithinLimits.
func (o *Optimizer) SetHeapLimitMB(mb uint64) {
	if mb == 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.heapLimitMB = mb
}

// Recommendations returns plain-language advisories derived from current
// statistics. Informational only; nothing here is auto-applied.
func (o *Optimizer) Recommendations() []string {
	memOK := o.MemoryWithinLimits()

	o.mu.Lock()
	defer o.mu.Unlock()

	var recs []string

	fps := o.currentFPS()
	if fps > 0 && fps < o.minFPS {
		recs = append(recs, fmt.Sprintf("frame rate %.1f below minimum %.1f; consider pre-computed mode", fps, o.minFPS))
	}

	if p95 := o.latencyPercentile(95); p95 > 100 {
		recs = append(recs, fmt.Sprintf("p95 inference latency %.0fms exceeds the 100ms frame budget", p95))
	}

	if !memOK {
		recs = append(recs, fmt.Sprintf("heap above %dMB limit; schedule memory optimization", o.heapLimitMB))
	}

	return recs
}

// Stats returns a snapshot of the optimizer's statistics.
func (o *Optimizer) Stats() Stats {
	memOK := o.MemoryWithinLimits()

	o.mu.Lock()
	defer o.mu.Unlock()

	var avg float64
	if len(o.latencies) > 0 {
		var sum float64
		for _, l := range o.latencies {
			sum += l
		}
		avg = sum / float64(len(o.latencies))
	}

	return Stats{
		CurrentFPS:   o.currentFPS(),
		AvgLatencyMs: avg,
		P50LatencyMs: o.latencyPercentile(50),
		P95LatencyMs: o.latencyPercentile(95),
		P99LatencyMs: o.latencyPercentile(99),
		Samples:      len(o.latencies),
		MemoryOK:     memOK,
	}
}
