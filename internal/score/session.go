package score

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session accumulates frame scores for one play-through of a track.
// Frames are appended in order; the log is discarded with the session
// after Finish produces the aggregates.
type Session struct {
	id        string
	trackID   string
	startedAt time.Time
	frames    []FrameScore
	mu        sync.Mutex
}

// Result is the aggregate outcome of a finished session.
type Result struct {
	ID         string             `json:"id"`
	TrackID    string             `json:"trackId"`
	Final      float64            `json:"final"`
	Weighted   float64            `json:"weighted"`
	Breakdown  map[string]float64 `json:"breakdown"`
	FrameCount int                `json:"frameCount"`
	StartedAt  time.Time          `json:"startedAt"`
	Duration   time.Duration      `json:"duration"`
}

// NewSession creates a session for the given track.
func NewSession(trackID string) *Session {
	return &Session{
		id:        uuid.NewString(),
		trackID:   trackID,
		startedAt: time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// TrackID returns the track this session is scored against.
func (s *Session) TrackID() string {
	return s.trackID
}

// Append adds a frame score to the session log.
func (s *Session) Append(fs FrameScore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, fs)
}

// FrameCount returns the number of scored frames so far.
func (s *Session) FrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Frames returns a copy of the frame log.
func (s *Session) Frames() []FrameScore {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FrameScore, len(s.frames))
	copy(out, s.frames)
	return out
}

// Finish computes the session aggregates. The session should not be
// appended to afterwards.
func (s *Session) Finish() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	scores := make([]float64, len(s.frames))
	for i, f := range s.frames {
		scores[i] = f.Score
	}

	return &Result{
		ID:         s.id,
		TrackID:    s.trackID,
		Final:      AggregateFinal(scores),
		Weighted:   WeightedAggregate(scores),
		Breakdown:  BreakdownByJoint(s.frames),
		FrameCount: len(s.frames),
		StartedAt:  s.startedAt,
		Duration:   time.Since(s.startedAt),
	}
}
