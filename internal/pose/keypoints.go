// Package pose provides body keypoint types, the joint-angle engine, and
// the inference adapter boundary for the Natya motion-matching engine.
package pose

// Body keypoint indices following the COCO 17-point convention used by the
// pose preprocessing pipeline.
const (
	Nose          = 0
	LeftEye       = 1
	RightEye      = 2
	LeftEar       = 3
	RightEar      = 4
	LeftShoulder  = 5
	RightShoulder = 6
	LeftElbow     = 7
	RightElbow    = 8
	LeftWrist     = 9
	RightWrist    = 10
	LeftHip       = 11
	RightHip      = 12
	LeftKnee      = 13
	RightKnee     = 14
	LeftAnkle     = 15
	RightAnkle    = 16
	NumKeypoints  = 17
)

// KeypointNames maps keypoint indices to the names used in the reference
// track asset format.
var KeypointNames = [NumKeypoints]string{
	"nose", "leftEye", "rightEye", "leftEar", "rightEar",
	"leftShoulder", "rightShoulder", "leftElbow", "rightElbow",
	"leftWrist", "rightWrist", "leftHip", "rightHip",
	"leftKnee", "rightKnee", "leftAnkle", "rightAnkle",
}

// Keypoint represents a single detected body-joint position.
// X and Y are normalized to [0, 1]; Confidence is the detector's score in [0, 1].
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Keypoints holds one keypoint per tracked body location.
type Keypoints [NumKeypoints]Keypoint

// KeypointIndex returns the index for a keypoint name from the asset
// format, or false if the name is unknown.
func KeypointIndex(name string) (int, bool) {
	for i, n := range KeypointNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Provenance indicates which pose source produced a Result.
type Provenance string

const (
	// ProvenanceRealTime marks a result produced by live inference.
	ProvenanceRealTime Provenance = "real_time"
	// ProvenancePreComputed marks a result taken from the reference track.
	ProvenancePreComputed Provenance = "pre_computed"
)

// Result is a pose query answer: the joint angles, the source's confidence,
// and the provenance tag. A Result is immutable once returned.
type Result struct {
	Angles     JointAngleSet `json:"angles"`
	Confidence float64       `json:"confidence"`
	Provenance Provenance    `json:"provenance"`
}
