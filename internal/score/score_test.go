package score

import (
	"math"
	"testing"

	"github.com/ayusman/natya/internal/pose"
)

// angleSet builds a JointAngleSet with every comparison joint at deg.
func angleSet(deg float64) pose.JointAngleSet {
	var s pose.JointAngleSet
	for _, j := range pose.ComparisonJoints {
		s[j] = deg
	}
	return s
}

func TestScoreFrame_WithinThreshold(t *testing.T) {
	candidate := angleSet(140)
	reference := angleSet(145)

	fs := ScoreFrame(candidate, reference, 20)

	// |140 - 145| = 5 <= 20 on every joint.
	if fs.Score != 100 {
		t.Errorf("expected score 100, got %f", fs.Score)
	}
	for _, j := range pose.ComparisonJoints {
		if !fs.Matches[j.String()] {
			t.Errorf("joint %s should match", j)
		}
	}
}

func TestScoreFrame_OutsideThreshold(t *testing.T) {
	candidate := angleSet(100)
	reference := angleSet(145)

	fs := ScoreFrame(candidate, reference, 20)

	if fs.Score != 0 {
		t.Errorf("expected score 0, got %f", fs.Score)
	}
}

func TestScoreFrame_ReferenceSentinelIsFreeMatch(t *testing.T) {
	candidate := angleSet(90)
	var reference pose.JointAngleSet // all sentinel

	fs := ScoreFrame(candidate, reference, 20)

	// Free pass on every joint, still counted in the total.
	if fs.Score != 100 {
		t.Errorf("expected score 100 for all-sentinel reference, got %f", fs.Score)
	}
	if len(fs.Matches) != len(pose.ComparisonJoints) {
		t.Errorf("expected %d entries, got %d", len(pose.ComparisonJoints), len(fs.Matches))
	}
}

func TestScoreFrame_CandidateSentinelIsCountedMiss(t *testing.T) {
	var candidate pose.JointAngleSet // performer unreadable
	reference := angleSet(145)

	fs := ScoreFrame(candidate, reference, 20)

	if fs.Score != 0 {
		t.Errorf("expected score 0 for all-sentinel candidate, got %f", fs.Score)
	}
	for _, j := range pose.ComparisonJoints {
		if fs.Matches[j.String()] {
			t.Errorf("joint %s should not match", j)
		}
	}
}

func TestScoreFrame_MixedJoints(t *testing.T) {
	reference := angleSet(145)
	candidate := angleSet(140)
	candidate[pose.JointLeftThigh] = 90
	candidate[pose.JointRightThigh] = 90

	fs := ScoreFrame(candidate, reference, 20)

	// Arms match, thighs do not: 2 of 4.
	if fs.Score != 50 {
		t.Errorf("expected score 50, got %f", fs.Score)
	}
}

func TestScoreFrame_MalformedNumerics(t *testing.T) {
	reference := angleSet(145)
	candidate := angleSet(140)
	candidate[pose.JointLeftArm] = math.NaN()
	candidate[pose.JointRightArm] = 720 // out of range

	fs := ScoreFrame(candidate, reference, 20)

	if math.IsNaN(fs.Score) {
		t.Fatal("score must never be NaN")
	}
	if fs.Score != 50 {
		t.Errorf("expected malformed joints to miss (score 50), got %f", fs.Score)
	}
}

func TestScoreFrame_BadThresholdFallsBackToDefault(t *testing.T) {
	candidate := angleSet(140)
	reference := angleSet(145)

	for _, threshold := range []float64{0, -5, math.NaN()} {
		fs := ScoreFrame(candidate, reference, threshold)
		if fs.Score != 100 {
			t.Errorf("threshold %f: expected default tolerance to apply, got %f", threshold, fs.Score)
		}
	}
}

func TestScoreFrame_Bounds(t *testing.T) {
	inputs := []pose.JointAngleSet{
		angleSet(0), angleSet(180), angleSet(90), angleSet(math.NaN()),
	}
	for _, cand := range inputs {
		for _, ref := range inputs {
			fs := ScoreFrame(cand, ref, 20)
			if math.IsNaN(fs.Score) || fs.Score < 0 || fs.Score > 100 {
				t.Errorf("score %f out of [0, 100]", fs.Score)
			}
		}
	}
}

func TestScoreFrame_ProvenanceIndependence(t *testing.T) {
	// The same angle set scored twice must produce identical results;
	// nothing about the pose source may leak into scoring.
	angles := angleSet(120)
	angles[pose.JointLeftThigh] = 60
	reference := angleSet(125)

	asRealTime := ScoreFrame(angles, reference, 20)
	asPreComputed := ScoreFrame(angles, reference, 20)

	if asRealTime.Score != asPreComputed.Score {
		t.Errorf("scores differ: %f != %f", asRealTime.Score, asPreComputed.Score)
	}
	for name, ok := range asRealTime.Matches {
		if asPreComputed.Matches[name] != ok {
			t.Errorf("joint %s match differs between identical inputs", name)
		}
	}
}
