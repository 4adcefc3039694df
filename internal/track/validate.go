package track

import (
	"fmt"

	"github.com/ayusman/natya/internal/pose"
)

// Validate checks a track asset for the defects the preprocessing pipeline
// can produce, returning one message per problem. An empty result means
// the track is playable.
func Validate(t *Track) []string {
	var issues []string

	if t.SongID == "" {
		issues = append(issues, "missing songId")
	}
	if t.FPS <= 0 {
		issues = append(issues, fmt.Sprintf("invalid fps %v", t.FPS))
	}
	if len(t.Frames) == 0 {
		issues = append(issues, "track has no frames")
	}
	if t.TotalFrames != len(t.Frames) {
		issues = append(issues, fmt.Sprintf("totalFrames %d does not match %d frames present", t.TotalFrames, len(t.Frames)))
	}

	for i, f := range t.Frames {
		if f.FrameNumber != i {
			issues = append(issues, fmt.Sprintf("frame %d carries frameNumber %d", i, f.FrameNumber))
		}
		if f.Keypoints == nil {
			issues = append(issues, fmt.Sprintf("frame %d has no keypoints", i))
		}
		if f.Angles == nil {
			issues = append(issues, fmt.Sprintf("frame %d has no angles", i))
		}

		for name, kp := range f.Keypoints {
			if _, ok := pose.KeypointIndex(name); !ok {
				issues = append(issues, fmt.Sprintf("frame %d: unknown keypoint %q", i, name))
				continue
			}
			if kp.X < 0 || kp.X > 1 || kp.Y < 0 || kp.Y > 1 {
				issues = append(issues, fmt.Sprintf("frame %d: keypoint %s outside [0,1]", i, name))
			}
			if kp.Confidence < 0 || kp.Confidence > 1 {
				issues = append(issues, fmt.Sprintf("frame %d: keypoint %s confidence outside [0,1]", i, name))
			}
		}

		for name, deg := range f.Angles {
			if _, ok := pose.JointIndex(name); !ok {
				issues = append(issues, fmt.Sprintf("frame %d: unknown angle %q", i, name))
				continue
			}
			if deg < 0 || deg > 180 {
				issues = append(issues, fmt.Sprintf("frame %d: angle %s=%.1f outside [0,180]", i, name, deg))
			}
		}
	}

	return issues
}
