package track

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/natya/internal/pose"
)

func loadDemo(t *testing.T) *Track {
	t.Helper()
	tr, err := LoadFile(filepath.Join("testdata", "demo.json"))
	if err != nil {
		t.Fatalf("load demo track: %v", err)
	}
	return tr
}

func TestLoadFile(t *testing.T) {
	tr := loadDemo(t)

	if tr.SongID != "demo" {
		t.Errorf("expected songId demo, got %q", tr.SongID)
	}
	if tr.FPS != 2 {
		t.Errorf("expected fps 2, got %f", tr.FPS)
	}
	if len(tr.Frames) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(tr.Frames))
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join("testdata", "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTrack_AngleSet(t *testing.T) {
	tr := loadDemo(t)

	angles, err := tr.AngleSet(1)
	if err != nil {
		t.Fatalf("angle set: %v", err)
	}
	if angles[pose.JointLeftArm] != 92 {
		t.Errorf("expected leftArm 92, got %f", angles[pose.JointLeftArm])
	}
	if angles[pose.JointRightThigh] != 175 {
		t.Errorf("expected rightThigh 175, got %f", angles[pose.JointRightThigh])
	}
}

func TestTrack_AngleSet_SentinelFrame(t *testing.T) {
	tr := loadDemo(t)

	angles, err := tr.AngleSet(2)
	if err != nil {
		t.Fatalf("angle set: %v", err)
	}
	for _, j := range pose.ComparisonJoints {
		if angles[j] != pose.Undetermined {
			t.Errorf("joint %s: expected sentinel, got %f", j, angles[j])
		}
	}
}

func TestTrack_AngleSet_OutOfRange(t *testing.T) {
	tr := loadDemo(t)

	for _, idx := range []int{-1, 4, 1000} {
		_, err := tr.AngleSet(idx)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("frame %d: expected ErrNotFound, got %v", idx, err)
		}
	}
}

func TestTrack_FrameForElapsed(t *testing.T) {
	tr := loadDemo(t) // 2 FPS, 4 frames

	cases := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 0},
		{400 * time.Millisecond, 0},
		{time.Second, 2},
		{1500 * time.Millisecond, 3},
		{time.Minute, 3}, // clamped to the last frame
	}

	for _, tc := range cases {
		if got := tr.FrameForElapsed(tc.elapsed); got != tc.want {
			t.Errorf("elapsed %s: expected frame %d, got %d", tc.elapsed, tc.want, got)
		}
	}
}

func TestTrack_Done(t *testing.T) {
	tr := loadDemo(t)

	if tr.Done(time.Second) {
		t.Error("track should not be done mid-way")
	}
	if !tr.Done(3 * time.Second) {
		t.Error("track should be done past its duration")
	}
}

func TestLibrary_Lookup(t *testing.T) {
	lib := NewLibrary()
	if err := lib.LoadDir("testdata"); err != nil {
		t.Fatalf("load dir: %v", err)
	}

	angles, err := lib.Lookup("demo", 0)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if angles[pose.JointLeftArm] != 170 {
		t.Errorf("expected leftArm 170, got %f", angles[pose.JointLeftArm])
	}
}

func TestLibrary_LookupMissingTrack(t *testing.T) {
	lib := NewLibrary()

	_, err := lib.Lookup("ghost", 0)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLibrary_Summaries(t *testing.T) {
	lib := NewLibrary()
	lib.Add(&Track{SongID: "b", FPS: 30, TotalFrames: 60})
	lib.Add(&Track{SongID: "a", FPS: 30, TotalFrames: 30})

	sums := lib.Summaries()
	if len(sums) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(sums))
	}
	if sums[0].SongID != "a" || sums[1].SongID != "b" {
		t.Errorf("summaries not sorted: %v", sums)
	}
	if sums[0].Duration != 1 {
		t.Errorf("expected 1s duration, got %f", sums[0].Duration)
	}
}

func TestValidate_CleanTrack(t *testing.T) {
	tr := loadDemo(t)

	if issues := Validate(tr); len(issues) != 0 {
		t.Errorf("expected no issues, got %v", issues)
	}
}

func TestValidate_Defects(t *testing.T) {
	tr := &Track{
		SongID:      "",
		FPS:         0,
		TotalFrames: 5,
		Frames: []Frame{
			{
				FrameNumber: 7,
				Keypoints: map[string]pose.Keypoint{
					"tail": {X: 0.5, Y: 0.5, Confidence: 0.9},
					"nose": {X: 1.5, Y: 0.5, Confidence: 0.9},
				},
				Angles: map[string]float64{
					"neck":    90,
					"leftArm": 270,
				},
			},
		},
	}

	issues := Validate(tr)

	expectContains := []string{
		"missing songId",
		"invalid fps",
		"totalFrames",
		"frameNumber",
		`unknown keypoint "tail"`,
		"outside [0,1]",
		`unknown angle "neck"`,
		"outside [0,180]",
	}
	for _, want := range expectContains {
		found := false
		for _, issue := range issues {
			if strings.Contains(issue, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected an issue containing %q, got %v", want, issues)
		}
	}
}
