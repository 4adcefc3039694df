package pose

import (
	"context"
	"sync"

	"gocv.io/x/gocv"
)

// MockAdapter is a test implementation of the Adapter interface.
// It allows tests to control the inference results.
type MockAdapter struct {
	mu        sync.Mutex
	keypoints Keypoints
	err       error
	latencyMs float64
	loaded    bool
	loadErr   error
	calls     int
}

// NewMockAdapter creates a new MockAdapter instance.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{latencyMs: 10}
}

// SetKeypoints sets the keypoints that will be returned by Infer.
func (m *MockAdapter) SetKeypoints(kps Keypoints) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keypoints = kps
}

// SetError sets the error that will be returned by Infer.
func (m *MockAdapter) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetLatency sets the latency reported with successful inferences.
func (m *MockAdapter) SetLatency(ms float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencyMs = ms
}

// SetLoadError makes Load fail with the given error.
func (m *MockAdapter) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// Calls returns how many times Infer has been invoked.
func (m *MockAdapter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Load marks the adapter as loaded, or fails if a load error was set.
func (m *MockAdapter) Load(model string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return m.loadErr
	}
	m.loaded = true
	return nil
}

// ConfigureAcceleration is a no-op for the mock adapter.
func (m *MockAdapter) ConfigureAcceleration(hint string) error {
	return nil
}

// Infer returns the pre-configured keypoints or error.
func (m *MockAdapter) Infer(ctx context.Context, frame *gocv.Mat) (*Inference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &Inference{Keypoints: m.keypoints, LatencyMs: m.latencyMs}, nil
}

// Close is a no-op for the mock adapter.
func (m *MockAdapter) Close() error {
	return nil
}

// StandingKeypoints returns a preset Keypoints for a performer standing
// upright with arms hanging straight down. All confidences are high.
func StandingKeypoints() Keypoints {
	var kps Keypoints
	set := func(i int, x, y float64) {
		kps[i] = Keypoint{X: x, Y: y, Confidence: 0.95}
	}

	set(Nose, 0.50, 0.10)
	set(LeftEye, 0.48, 0.09)
	set(RightEye, 0.52, 0.09)
	set(LeftEar, 0.46, 0.10)
	set(RightEar, 0.54, 0.10)

	// Arms straight down along the torso.
	set(LeftShoulder, 0.42, 0.25)
	set(RightShoulder, 0.58, 0.25)
	set(LeftElbow, 0.41, 0.40)
	set(RightElbow, 0.59, 0.40)
	set(LeftWrist, 0.40, 0.55)
	set(RightWrist, 0.60, 0.55)

	// Legs straight.
	set(LeftHip, 0.45, 0.55)
	set(RightHip, 0.55, 0.55)
	set(LeftKnee, 0.45, 0.75)
	set(RightKnee, 0.55, 0.75)
	set(LeftAnkle, 0.45, 0.95)
	set(RightAnkle, 0.55, 0.95)

	return kps
}

// ArmsBentKeypoints returns a preset Keypoints with both elbows bent to
// roughly a right angle, legs straight.
func ArmsBentKeypoints() Keypoints {
	kps := StandingKeypoints()

	// Forearms horizontal: wrist level with the elbow.
	kps[LeftWrist] = Keypoint{X: 0.26, Y: 0.40, Confidence: 0.95}
	kps[RightWrist] = Keypoint{X: 0.74, Y: 0.40, Confidence: 0.95}

	return kps
}

// OccludedKeypoints returns StandingKeypoints with the named keypoints
// dropped below the confidence threshold.
func OccludedKeypoints(names ...string) Keypoints {
	kps := StandingKeypoints()
	for _, name := range names {
		if i, ok := KeypointIndex(name); ok {
			kps[i].Confidence = 0.2
		}
	}
	return kps
}
