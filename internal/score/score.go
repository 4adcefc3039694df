// Package score compares candidate poses against reference poses and
// aggregates per-frame results into session scores.
package score

import (
	"math"
	"time"

	"github.com/ayusman/natya/internal/pose"
)

// DefaultThreshold is the angle tolerance in degrees within which a
// candidate joint counts as matching the reference.
const DefaultThreshold = 20.0

// maxAngle bounds plausible angle values; anything beyond it is treated
// as malformed input.
const maxAngle = 360.0

// FrameScore is the result of scoring one frame.
type FrameScore struct {
	// Score is the frame score in [0, 100].
	Score float64 `json:"score"`
	// Matches records, per comparison joint, whether it matched.
	Matches map[string]bool `json:"matches"`
	// Timestamp is when the frame was scored.
	Timestamp time.Time `json:"timestamp"`
}

// ScoreFrame compares a candidate joint-angle set against a reference set
// under the given tolerance. Only the comparison joints are scored;
// duplicate measurements are counted once.
//
// Sentinel handling: a reference-side sentinel is a free match (the
// reference had low confidence at this instant, the performer is not
// penalized for an undefined target); a candidate-side sentinel is a
// counted miss (the performer's own pose was unreadable). Whether the
// reference-side free pass is scoring leniency or over-generous is an open
// game-design question; the shipped behavior is preserved here.
//
// Malformed numerics (NaN, out of range) count as misses. The function
// never panics and never returns NaN; with nothing to compare the score
// is 0.
func ScoreFrame(candidate, reference pose.JointAngleSet, threshold float64) FrameScore {
	if math.IsNaN(threshold) || threshold <= 0 {
		threshold = DefaultThreshold
	}

	matches := make(map[string]bool, len(pose.ComparisonJoints))
	matched := 0
	total := 0

	for _, j := range pose.ComparisonJoints {
		ref := reference[j]
		cand := candidate[j]
		total++

		var ok bool
		switch {
		case ref == pose.Undetermined:
			ok = true
		case cand == pose.Undetermined:
			ok = false
		case !validAngle(ref) || !validAngle(cand):
			ok = false
		default:
			ok = math.Abs(cand-ref) <= threshold
		}

		matches[j.String()] = ok
		if ok {
			matched++
		}
	}

	fs := FrameScore{Matches: matches, Timestamp: time.Now()}
	if total > 0 {
		fs.Score = 100 * float64(matched) / float64(total)
	}
	return fs
}

func validAngle(deg float64) bool {
	return !math.IsNaN(deg) && deg >= 0 && deg <= maxAngle
}
