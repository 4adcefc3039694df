package perf

import (
	"math/rand"
	"testing"
	"time"
)

// fakeClock lets tests drive the optimizer's notion of time.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestOptimizer(minFPS, maxFPS float64) (*Optimizer, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	o := NewOptimizer(minFPS, maxFPS)
	o.nowFn = func() time.Time { return clock.now }
	o.rng = rand.New(rand.NewSource(1))
	return o, clock
}

// feed records frames at a fixed interval, simulating a steady throughput.
func feed(o *Optimizer, clock *fakeClock, frames int, interval time.Duration, latencyMs float64) {
	for i := 0; i < frames; i++ {
		clock.advance(interval)
		o.RecordFrameProcessed(latencyMs)
	}
}

func TestShouldProcessFrame_FirstCallAlwaysTrue(t *testing.T) {
	o, _ := newTestOptimizer(15, 30)

	if !o.ShouldProcessFrame() {
		t.Error("first call must return true")
	}
}

func TestShouldProcessFrame_RateLimitedToMaxFPS(t *testing.T) {
	o, clock := newTestOptimizer(15, 30)

	o.ShouldProcessFrame()

	// 1ms later is far above 30 FPS; must be rejected.
	clock.advance(time.Millisecond)
	if o.ShouldProcessFrame() {
		t.Error("call within the max-FPS interval should be rejected")
	}

	// After a full interval it is allowed again.
	clock.advance(100 * time.Millisecond)
	if !o.ShouldProcessFrame() {
		t.Error("call after the max-FPS interval should be allowed")
	}
}

func TestCurrentFPS(t *testing.T) {
	o, clock := newTestOptimizer(15, 30)

	if fps := o.CurrentFPS(); fps != 0 {
		t.Errorf("expected 0 FPS with no samples, got %f", fps)
	}

	o.RecordFrameProcessed(10)
	if fps := o.CurrentFPS(); fps != 0 {
		t.Errorf("expected 0 FPS with one sample, got %f", fps)
	}

	// 10 more frames at 50ms apart = 20 FPS.
	feed(o, clock, 10, 50*time.Millisecond, 10)
	fps := o.CurrentFPS()
	if fps < 19.5 || fps > 20.5 {
		t.Errorf("expected ~20 FPS, got %f", fps)
	}
}

func TestCurrentFPS_WindowBounded(t *testing.T) {
	o, clock := newTestOptimizer(15, 30)

	// A long slow stretch followed by a fast stretch longer than the
	// window: only the fast stretch should remain.
	feed(o, clock, 50, time.Second, 10)
	feed(o, clock, FPSWindowSize+5, 20*time.Millisecond, 10)

	fps := o.CurrentFPS()
	if fps < 45 || fps > 55 {
		t.Errorf("expected ~50 FPS from the retained window, got %f", fps)
	}
}

func TestAdaptiveSampling_Monotonicity(t *testing.T) {
	trueRate := func(interval time.Duration) float64 {
		o, clock := newTestOptimizer(15, 30)
		// Establish a throughput history at the given frame interval.
		feed(o, clock, FPSWindowSize, interval, 10)

		allowed := 0
		const calls = 1000
		for i := 0; i < calls; i++ {
			// Keep the recorded throughput steady while sampling; each
			// step clears the max-FPS limiter so only thinning decides.
			clock.advance(interval)
			o.RecordFrameProcessed(10)
			if o.ShouldProcessFrame() {
				allowed++
			}
		}
		return float64(allowed) / calls
	}

	fastRate := trueRate(40 * time.Millisecond)  // ~25 FPS, above minimum
	slowRate := trueRate(250 * time.Millisecond) // ~4 FPS, below minimum

	if fastRate <= slowRate {
		t.Errorf("true-rate above minimum (%f) should exceed true-rate below minimum (%f)", fastRate, slowRate)
	}
	if fastRate != 1.0 {
		t.Errorf("healthy throughput should never thin frames, got rate %f", fastRate)
	}
}

func TestLatencyPercentiles(t *testing.T) {
	o, clock := newTestOptimizer(15, 30)

	// Latencies 1..100ms.
	for i := 1; i <= 100; i++ {
		clock.advance(10 * time.Millisecond)
		o.RecordFrameProcessed(float64(i))
	}

	if p50 := o.LatencyPercentile(50); p50 < 49 || p50 > 52 {
		t.Errorf("p50: expected ~50, got %f", p50)
	}
	if p95 := o.LatencyPercentile(95); p95 < 94 || p95 > 97 {
		t.Errorf("p95: expected ~95, got %f", p95)
	}
	if p99 := o.LatencyPercentile(99); p99 < 98 || p99 > 100 {
		t.Errorf("p99: expected ~99, got %f", p99)
	}

	if avg := o.AverageLatency(); avg != 50.5 {
		t.Errorf("average: expected 50.5, got %f", avg)
	}
}

func TestLatencyWindow_Bounded(t *testing.T) {
	o, clock := newTestOptimizer(15, 30)

	// Old large latencies must be evicted once the window overflows.
	feed(o, clock, 50, 10*time.Millisecond, 500)
	feed(o, clock, LatencyWindowSize, 10*time.Millisecond, 10)

	if avg := o.AverageLatency(); avg != 10 {
		t.Errorf("expected only recent samples retained, got average %f", avg)
	}
}

func TestLatencyPercentile_Empty(t *testing.T) {
	o, _ := newTestOptimizer(15, 30)

	if p := o.LatencyPercentile(95); p != 0 {
		t.Errorf("expected 0 with no samples, got %f", p)
	}
	if avg := o.AverageLatency(); avg != 0 {
		t.Errorf("expected 0 average with no samples, got %f", avg)
	}
}

func TestRecommendations_LowFPS(t *testing.T) {
	o, clock := newTestOptimizer(15, 30)

	// ~4 FPS, well below the minimum of 15.
	feed(o, clock, 20, 250*time.Millisecond, 120)

	recs := o.Recommendations()
	if len(recs) == 0 {
		t.Fatal("expected advisories for a struggling session")
	}
}

func TestRecommendations_Healthy(t *testing.T) {
	o, clock := newTestOptimizer(15, 30)

	feed(o, clock, 20, 40*time.Millisecond, 20)

	for _, r := range o.Recommendations() {
		t.Errorf("unexpected advisory for healthy session: %s", r)
	}
}

func TestStats_Snapshot(t *testing.T) {
	o, clock := newTestOptimizer(15, 30)
	feed(o, clock, 10, 50*time.Millisecond, 30)

	stats := o.Stats()
	if stats.Samples != 10 {
		t.Errorf("expected 10 samples, got %d", stats.Samples)
	}
	if stats.AvgLatencyMs != 30 {
		t.Errorf("expected average 30ms, got %f", stats.AvgLatencyMs)
	}
	if stats.CurrentFPS < 19.5 || stats.CurrentFPS > 20.5 {
		t.Errorf("expected ~20 FPS, got %f", stats.CurrentFPS)
	}
}
