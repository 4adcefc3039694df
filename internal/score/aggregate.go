package score

import "github.com/ayusman/natya/internal/pose"

// AggregateFinal returns the arithmetic mean of the frame scores.
// An empty input yields 0.
func AggregateFinal(frameScores []float64) float64 {
	if len(frameScores) == 0 {
		return 0
	}

	var sum float64
	for _, s := range frameScores {
		sum += s
	}
	return sum / float64(len(frameScores))
}

// WeightedAggregate returns a linear-weighted mean where frame i
// (1-indexed) has weight i, so later frames count more. This rewards
// sustained improvement within a session. An empty input yields 0.
func WeightedAggregate(frameScores []float64) float64 {
	if len(frameScores) == 0 {
		return 0
	}

	var sum, weights float64
	for i, s := range frameScores {
		w := float64(i + 1)
		sum += s * w
		weights += w
	}
	return sum / weights
}

// BreakdownByJoint returns, per comparison joint, the percentage of frames
// in which it matched. An empty input yields an all-zero map.
func BreakdownByJoint(frames []FrameScore) map[string]float64 {
	breakdown := make(map[string]float64, len(pose.ComparisonJoints))
	for _, j := range pose.ComparisonJoints {
		breakdown[j.String()] = 0
	}

	if len(frames) == 0 {
		return breakdown
	}

	for _, f := range frames {
		for _, j := range pose.ComparisonJoints {
			if f.Matches[j.String()] {
				breakdown[j.String()]++
			}
		}
	}

	for name := range breakdown {
		breakdown[name] = 100 * breakdown[name] / float64(len(frames))
	}
	return breakdown
}
