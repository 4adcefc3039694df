// Package detect unifies the two pose sources behind one query surface:
// live inference through the pose adapter and precomputed reference
// tracks. It owns the failure accounting that drives mode fallback.
package detect

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/natya/internal/mode"
	"github.com/ayusman/natya/internal/perf"
	"github.com/ayusman/natya/internal/pose"
	"github.com/ayusman/natya/internal/track"
)

// DefaultInferTimeout is the per-frame budget for live inference.
const DefaultInferTimeout = 200 * time.Millisecond

// TrackSource supplies precomputed reference angles. Implementations wrap
// lookup failures in track.ErrNotFound.
type TrackSource interface {
	Lookup(trackID string, frameIndex int) (pose.JointAngleSet, error)
}

// Config holds the orchestrator's tunables.
type Config struct {
	// ModelPath identifies the pose model handed to the adapter.
	ModelPath string
	// AccelerationHint is passed through to the adapter. Best-effort.
	AccelerationHint string
	// InferTimeout bounds a single live inference. Zero means
	// DefaultInferTimeout.
	InferTimeout time.Duration
}

// Orchestrator answers pose queries in the currently effective detection
// mode, falling back from live inference to reference data when the
// failure ceiling is reached or when a frame carries fallback data.
type Orchestrator struct {
	cfg       Config
	manager   *mode.Manager
	adapter   pose.Adapter
	tracks    TrackSource
	optimizer *perf.Optimizer

	mu          sync.Mutex
	modelLoaded bool
	engaged     bool
}

// NewOrchestrator wires the orchestrator's collaborators. The optimizer
// may be nil when no throughput accounting is wanted.
func NewOrchestrator(cfg Config, manager *mode.Manager, adapter pose.Adapter, tracks TrackSource, optimizer *perf.Optimizer) *Orchestrator {
	if cfg.InferTimeout <= 0 {
		cfg.InferTimeout = DefaultInferTimeout
	}
	return &Orchestrator{
		cfg:       cfg,
		manager:   manager,
		adapter:   adapter,
		tracks:    tracks,
		optimizer: optimizer,
	}
}

// Initialize brings up the mode manager and, when the effective mode calls
// for live inference, loads the model. A model load failure degrades to
// the pre-computed path instead of failing startup; override, when not
// empty, is applied as if the user had selected it.
func (o *Orchestrator) Initialize(override mode.Mode) error {
	if err := o.manager.Initialize(); err != nil {
		return err
	}

	if override != "" {
		if err := o.manager.SetMode(override); err != nil {
			return err
		}
	}

	if o.manager.EffectiveMode() != mode.RealTime {
		return nil
	}

	if err := o.ensureModelLoaded(); err != nil {
		o.manager.TriggerFallback("model load failed: " + err.Error())
	}
	return nil
}

// DetectPose answers one pose query according to the input's shape and the
// effective detection mode.
func (o *Orchestrator) DetectPose(ctx context.Context, in Input) (*pose.Result, error) {
	if in.kind == inputTrack {
		return o.trackResult(in.trackID, in.frameIndex)
	}

	if o.manager.EffectiveMode() == mode.PreComputed {
		if in.hasFallback {
			return o.trackResult(in.trackID, in.frameIndex)
		}
		return nil, &Error{Kind: KindModelNotLoaded, Err: errors.New("live inference unavailable in pre-computed mode")}
	}

	if err := o.ensureModelLoaded(); err != nil {
		if in.hasFallback {
			return o.trackResult(in.trackID, in.frameIndex)
		}
		return nil, &Error{Kind: KindModelNotLoaded, Err: err}
	}

	inferCtx, cancel := context.WithTimeout(ctx, o.cfg.InferTimeout)
	defer cancel()

	inf, err := o.adapter.Infer(inferCtx, in.frame)
	if err != nil {
		return o.handleInferError(ctx, in, err)
	}

	if o.optimizer != nil {
		o.optimizer.RecordFrameProcessed(inf.LatencyMs)
	}
	o.mu.Lock()
	o.engaged = true
	o.mu.Unlock()

	return &pose.Result{
		Angles:     pose.ComputeAngles(inf.Keypoints),
		Confidence: meanConfidence(inf.Keypoints),
		Provenance: pose.ProvenanceRealTime,
	}, nil
}

func (o *Orchestrator) handleInferError(ctx context.Context, in Input, err error) (*pose.Result, error) {
	// A canceled session is teardown, not an inference failure.
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, ctx.Err()
	}

	kind := KindInferenceFailed
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}

	o.manager.RecordFailure()
	logrus.WithError(err).WithFields(logrus.Fields{
		"kind":     kind,
		"failures": o.manager.FailureCount(),
	}).Warn("live inference failed")

	if in.hasFallback {
		return o.trackResult(in.trackID, in.frameIndex)
	}
	return nil, &Error{Kind: kind, Err: err}
}

func (o *Orchestrator) trackResult(trackID string, frameIndex int) (*pose.Result, error) {
	angles, err := o.tracks.Lookup(trackID, frameIndex)
	if err != nil {
		if errors.Is(err, track.ErrNotFound) {
			// Missing reference data is an asset defect; it never counts
			// toward the fallback window.
			return nil, &Error{Kind: KindFrameNotFound, TrackID: trackID, FrameIndex: frameIndex, Err: err}
		}
		return nil, err
	}

	return &pose.Result{
		Angles:     angles,
		Confidence: 1.0,
		Provenance: pose.ProvenancePreComputed,
	}, nil
}

// SetMode applies and persists a user mode selection. Switching toward
// live inference loads the model lazily; a load failure degrades back to
// the pre-computed path without unwinding the persisted preference.
func (o *Orchestrator) SetMode(m mode.Mode) error {
	if err := o.manager.SetMode(m); err != nil {
		return err
	}

	if o.manager.EffectiveMode() == mode.RealTime {
		if err := o.ensureModelLoaded(); err != nil {
			o.manager.TriggerFallback("model load failed: " + err.Error())
		} else {
			o.manager.ResetFailures()
		}
	}
	return nil
}

// CurrentMode returns the selected mode, which may be Auto.
func (o *Orchestrator) CurrentMode() mode.Mode {
	return o.manager.CurrentMode()
}

// EffectiveMode returns the concrete mode queries will execute in.
func (o *Orchestrator) EffectiveMode() mode.Mode {
	return o.manager.EffectiveMode()
}

// PerformanceMetrics returns a snapshot of live-inference statistics, or
// nil before the first successful inference.
func (o *Orchestrator) PerformanceMetrics() *perf.Stats {
	o.mu.Lock()
	engaged := o.engaged
	o.mu.Unlock()

	if !engaged || o.optimizer == nil {
		return nil
	}
	stats := o.optimizer.Stats()
	return &stats
}

// Close releases the inference backend.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.modelLoaded {
		return nil
	}
	o.modelLoaded = false
	return o.adapter.Close()
}

func (o *Orchestrator) ensureModelLoaded() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.modelLoaded {
		return nil
	}

	if err := o.adapter.Load(o.cfg.ModelPath); err != nil {
		return err
	}
	if o.cfg.AccelerationHint != "" {
		if err := o.adapter.ConfigureAcceleration(o.cfg.AccelerationHint); err != nil {
			logrus.WithError(err).WithField("hint", o.cfg.AccelerationHint).Warn("acceleration unavailable, running unaccelerated")
		}
	}

	o.modelLoaded = true
	return nil
}

func meanConfidence(kps pose.Keypoints) float64 {
	var sum float64
	for _, kp := range kps {
		sum += kp.Confidence
	}
	return sum / float64(len(kps))
}
