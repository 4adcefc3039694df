package detect

import "gocv.io/x/gocv"

// inputKind tags the two request shapes so handling is exhaustive by
// construction instead of sniffing fields.
type inputKind int

const (
	inputCamera inputKind = iota
	inputTrack
)

// Input is a tagged pose request: either a live camera frame or a
// precomputed track frame. Camera inputs may additionally carry a track
// position so a failed inference can fall back for that frame.
type Input struct {
	kind        inputKind
	frame       *gocv.Mat
	trackID     string
	frameIndex  int
	hasFallback bool
}

// CameraInput requests live inference on a frame. With no fallback data,
// an inference failure propagates to the caller.
func CameraInput(frame *gocv.Mat) Input {
	return Input{kind: inputCamera, frame: frame}
}

// CameraInputWithFallback requests live inference on a frame, degrading
// transparently to the given track frame if inference fails.
func CameraInputWithFallback(frame *gocv.Mat, trackID string, frameIndex int) Input {
	return Input{
		kind:        inputCamera,
		frame:       frame,
		trackID:     trackID,
		frameIndex:  frameIndex,
		hasFallback: true,
	}
}

// TrackInput requests a precomputed reference frame.
func TrackInput(trackID string, frameIndex int) Input {
	return Input{kind: inputTrack, trackID: trackID, frameIndex: frameIndex}
}
