package pose

import (
	"encoding/json"
	"math"
)

// Joint identifies a named joint angle tracked per frame.
type Joint int

// Tracked joint angles. Elbow duplicates arm and leg duplicates thigh;
// the asset format carries both names for the same measurement.
const (
	JointLeftArm Joint = iota
	JointRightArm
	JointLeftElbow
	JointRightElbow
	JointLeftThigh
	JointRightThigh
	JointLeftLeg
	JointRightLeg
	NumJoints
)

// JointNames maps joints to the names used in the reference track asset
// format and in score breakdowns.
var JointNames = [NumJoints]string{
	"leftArm", "rightArm", "leftElbow", "rightElbow",
	"leftThigh", "rightThigh", "leftLeg", "rightLeg",
}

// ComparisonJoints is the curated subset used for scoring. Duplicate
// measurements (elbow mirrors arm, leg mirrors thigh) are counted once.
var ComparisonJoints = []Joint{JointLeftArm, JointRightArm, JointLeftThigh, JointRightThigh}

// JointIndex returns the joint for a name from the asset format, or false
// if the name is unknown.
func JointIndex(name string) (Joint, bool) {
	for i, n := range JointNames {
		if n == name {
			return Joint(i), true
		}
	}
	return 0, false
}

// String returns the asset-format name of the joint.
func (j Joint) String() string {
	if j < 0 || j >= NumJoints {
		return "unknown"
	}
	return JointNames[j]
}

// JointAngleSet holds one angle in degrees per tracked joint.
// An angle of exactly 0 is the reserved sentinel Undetermined, meaning the
// angle could not be measured; consumers must not treat it as a true 0°.
type JointAngleSet [NumJoints]float64

// Undetermined is the sentinel angle value for joints whose keypoints were
// missing or below the confidence threshold.
const Undetermined = 0.0

// MinKeypointConfidence is the confidence below which a keypoint cannot
// contribute to an angle.
const MinKeypointConfidence = 0.5

// MarshalJSON encodes the set as a name→degrees object, matching the
// reference track asset format.
func (s JointAngleSet) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, NumJoints)
	for j := Joint(0); j < NumJoints; j++ {
		m[JointNames[j]] = s[j]
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes a name→degrees object. Unknown names are ignored
// and absent joints stay at the sentinel.
func (s *JointAngleSet) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*s = FromAngleMap(m)
	return nil
}

// FromAngleMap builds a JointAngleSet from a name→degrees map, ignoring
// unknown names. Absent joints stay at the sentinel.
func FromAngleMap(m map[string]float64) JointAngleSet {
	var s JointAngleSet
	for name, deg := range m {
		if j, ok := JointIndex(name); ok {
			s[j] = deg
		}
	}
	return s
}

// ComputeAngles converts detected keypoints into the tracked joint angles.
// For each joint triple (proximal, vertex, distal), the angle is the
// unsigned angle at the vertex between the two limb vectors, in degrees in
// [0, 180]. If any keypoint of the triple has confidence below
// MinKeypointConfidence, the joint is set to the sentinel.
//
// The function is pure and deterministic: identical keypoints always yield
// a field-identical JointAngleSet regardless of the caller. Cross-mode
// score comparability depends on this.
func ComputeAngles(kps Keypoints) JointAngleSet {
	var s JointAngleSet
	s[JointLeftArm] = vertexAngle(kps[LeftShoulder], kps[LeftElbow], kps[LeftWrist])
	s[JointRightArm] = vertexAngle(kps[RightShoulder], kps[RightElbow], kps[RightWrist])
	s[JointLeftThigh] = vertexAngle(kps[LeftHip], kps[LeftKnee], kps[LeftAnkle])
	s[JointRightThigh] = vertexAngle(kps[RightHip], kps[RightKnee], kps[RightAnkle])

	// Duplicate entries carried by the asset format.
	s[JointLeftElbow] = s[JointLeftArm]
	s[JointRightElbow] = s[JointRightArm]
	s[JointLeftLeg] = s[JointLeftThigh]
	s[JointRightLeg] = s[JointRightThigh]
	return s
}

// vertexAngle computes the unsigned angle at the vertex keypoint between
// the vectors toward the proximal and distal keypoints, in degrees.
// Returns the sentinel if any keypoint is below the confidence threshold.
func vertexAngle(proximal, vertex, distal Keypoint) float64 {
	if proximal.Confidence < MinKeypointConfidence ||
		vertex.Confidence < MinKeypointConfidence ||
		distal.Confidence < MinKeypointConfidence {
		return Undetermined
	}

	v1x := proximal.X - vertex.X
	v1y := proximal.Y - vertex.Y
	v2x := distal.X - vertex.X
	v2y := distal.Y - vertex.Y

	// Small epsilon in the denominator guards degenerate (coincident) points.
	dot := v1x*v2x + v1y*v2y
	norm := math.Sqrt(v1x*v1x+v1y*v1y)*math.Sqrt(v2x*v2x+v2y*v2y) + 1e-6

	cos := dot / norm
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}

	return math.Acos(cos) * 180 / math.Pi
}
