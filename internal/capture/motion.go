package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Frame-differencing parameters.
const (
	// GaussianBlurSize is the noise-reduction kernel size.
	GaussianBlurSize = 21
	// DiffThreshold is the per-pixel binary threshold on the frame diff.
	DiffThreshold = 25
	// DefaultIdleAfter is how many consecutive still frames mark the
	// performer as idle. A single still frame between moves is normal.
	DefaultIdleAfter = 30
)

// MotionDetector gates scoring on performer activity. It compares
// consecutive frames by blurred grayscale differencing and tracks a
// still-frame streak so brief pauses between moves do not pause the game.
type MotionDetector struct {
	mu          sync.Mutex
	threshold   float64
	idleAfter   int
	stillStreak int
	prevGray    gocv.Mat
	initialized bool
}

// NewMotionDetector creates a detector. threshold is the percentage of
// pixels that must change between frames to count as movement.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		idleAfter: DefaultIdleAfter,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares frame against the previous one. Returns whether
// movement was seen and the percentage of pixels that changed. The first
// frame establishes the baseline and reports no movement.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !m.initialized {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	nonZero := gocv.CountNonZero(thresh)
	totalPixels := thresh.Rows() * thresh.Cols()
	changePercent := float64(nonZero) / float64(totalPixels) * 100.0

	blurred.CopyTo(&m.prevGray)

	moving := changePercent > m.threshold
	if moving {
		m.stillStreak = 0
	} else {
		m.stillStreak++
	}

	return moving, changePercent
}

// Idle reports whether the still-frame streak has reached the idle mark.
func (m *MotionDetector) Idle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized && m.stillStreak >= m.idleAfter
}

// SetIdleAfter overrides the still-frame streak length that marks idle.
// Non-positive values are ignored.
func (m *MotionDetector) SetIdleAfter(frames int) {
	if frames <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idleAfter = frames
}

// SetThreshold changes the movement threshold, in percent of changed
// pixels. Non-positive values are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// Reset clears the baseline and the still streak for a new session.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

// Close releases the detector's resources.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *MotionDetector) resetLocked() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
	m.stillStreak = 0
}
