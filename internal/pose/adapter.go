package pose

import (
	"context"
	"time"

	"gocv.io/x/gocv"
)

// Inference is the raw output of one inference call.
type Inference struct {
	Keypoints Keypoints
	LatencyMs float64
}

// Adapter wraps an opaque pose inference backend.
type Adapter interface {
	// Load prepares the backend with the given model identifier.
	Load(model string) error

	// ConfigureAcceleration applies a platform acceleration hint.
	// Best-effort: a failure must not abort initialization, the backend
	// simply runs unaccelerated.
	ConfigureAcceleration(hint string) error

	// Infer runs pose detection on a single frame. It honors ctx
	// cancellation and deadlines; a result arriving after ctx is done is
	// discarded, never attributed to a later call.
	Infer(ctx context.Context, frame *gocv.Mat) (*Inference, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Config holds configuration options for inference backends.
type Config struct {
	// MinConfidence is the minimum keypoint confidence the backend should
	// report (0.0-1.0). Keypoints below it still arrive but will be
	// rejected by the angle engine.
	MinConfidence float64

	// AccelerationHint names the preferred execution delegate
	// ("gpu", "nnapi", "coreml", "cpu").
	AccelerationHint string

	// IdleShutdown is how long the backend may sit unused before its
	// process is stopped. Zero disables idle shutdown.
	IdleShutdown time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinConfidence:    0.3,
		AccelerationHint: "cpu",
		IdleShutdown:     30 * time.Second,
	}
}
