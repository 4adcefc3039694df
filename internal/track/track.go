// Package track loads and serves precomputed reference choreography
// tracks: per-frame keypoints and joint angles produced offline by the
// pose preprocessing pipeline.
package track

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/natya/internal/pose"
)

// ErrNotFound is returned when a requested track or frame does not exist.
// This indicates missing reference assets, not a runtime condition.
var ErrNotFound = errors.New("not found")

// Frame is one precomputed choreography frame.
type Frame struct {
	FrameNumber int                      `json:"frameNumber"`
	Timestamp   float64                  `json:"timestamp"`
	Keypoints   map[string]pose.Keypoint `json:"keypoints"`
	Angles      map[string]float64       `json:"angles"`
}

// Track is a full reference choreography for one song.
type Track struct {
	SongID      string  `json:"songId"`
	FPS         float64 `json:"fps"`
	TotalFrames int     `json:"totalFrames"`
	Frames      []Frame `json:"frames"`
}

// Summary describes a loaded track without its frame data.
type Summary struct {
	SongID      string  `json:"songId"`
	FPS         float64 `json:"fps"`
	TotalFrames int     `json:"totalFrames"`
	Duration    float64 `json:"durationSeconds"`
}

// Summary returns the track's summary.
func (t *Track) Summary() Summary {
	s := Summary{SongID: t.SongID, FPS: t.FPS, TotalFrames: t.TotalFrames}
	if t.FPS > 0 {
		s.Duration = float64(t.TotalFrames) / t.FPS
	}
	return s
}

// AngleSet returns the joint angles for a frame index.
func (t *Track) AngleSet(frameIndex int) (pose.JointAngleSet, error) {
	if frameIndex < 0 || frameIndex >= len(t.Frames) {
		return pose.JointAngleSet{}, fmt.Errorf("frame %d of track %s: %w", frameIndex, t.SongID, ErrNotFound)
	}
	return pose.FromAngleMap(t.Frames[frameIndex].Angles), nil
}

// FrameForElapsed maps elapsed playback time to a frame index, clamped to
// the track's last frame.
func (t *Track) FrameForElapsed(elapsed time.Duration) int {
	if t.FPS <= 0 || len(t.Frames) == 0 {
		return 0
	}
	idx := int(elapsed.Seconds() * t.FPS)
	if idx >= len(t.Frames) {
		idx = len(t.Frames) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// Done reports whether elapsed playback time has passed the end of the track.
func (t *Track) Done(elapsed time.Duration) bool {
	if t.FPS <= 0 {
		return true
	}
	return elapsed.Seconds()*t.FPS >= float64(len(t.Frames))
}
