// Package game runs play sessions: it drives the capture loop against a
// reference track, scores each frame through the detection orchestrator,
// and persists the finished session.
package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/natya/internal/capture"
	"github.com/ayusman/natya/internal/detect"
	"github.com/ayusman/natya/internal/perf"
	"github.com/ayusman/natya/internal/score"
	"github.com/ayusman/natya/internal/track"
)

// Loop rate bounds. The loop ticks at the track's FPS clamped into this
// range so malformed assets cannot spin or stall the game.
const (
	MinLoopFPS = 1
	MaxLoopFPS = 30
)

// ErrSessionActive is returned when starting a session while one runs.
var ErrSessionActive = errors.New("a session is already active")

// ErrNoSession is returned when stopping with no session running.
var ErrNoSession = errors.New("no active session")

// Update is a per-frame notification emitted while a session runs.
type Update struct {
	SessionID  string           `json:"sessionId"`
	TrackID    string           `json:"trackId"`
	FrameIndex int              `json:"frameIndex"`
	Frame      score.FrameScore `json:"frame"`
	Provenance string           `json:"provenance"`
	Moving     bool             `json:"moving"`
}

// SessionSink persists finished sessions.
type SessionSink interface {
	Save(*score.Result) error
}

// Config holds game tunables.
type Config struct {
	// ScoreThreshold is the per-joint angle tolerance in degrees.
	ScoreThreshold float64
	// MotionThreshold is the percent of changed pixels counted as movement.
	MotionThreshold float64
}

// Game owns the play loop. One session runs at a time.
type Game struct {
	cfg       Config
	camera    capture.Camera
	motion    *capture.MotionDetector
	orch      *detect.Orchestrator
	library   *track.Library
	optimizer *perf.Optimizer
	sink      SessionSink
	onFrame   func(Update)
	onResult  func(*score.Result)

	mu        sync.Mutex
	session   *score.Session
	current   *track.Track
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates a Game. optimizer and sink may be nil: without an optimizer
// every frame is attempted, without a sink finished sessions are not
// persisted.
func New(cfg Config, camera capture.Camera, orch *detect.Orchestrator, library *track.Library, optimizer *perf.Optimizer, sink SessionSink) *Game {
	if cfg.ScoreThreshold <= 0 {
		cfg.ScoreThreshold = score.DefaultThreshold
	}
	if cfg.MotionThreshold <= 0 {
		cfg.MotionThreshold = 1.0
	}

	return &Game{
		cfg:       cfg,
		camera:    camera,
		motion:    capture.NewMotionDetector(cfg.MotionThreshold),
		orch:      orch,
		library:   library,
		optimizer: optimizer,
		sink:      sink,
	}
}

// OnFrame registers a callback invoked for every scored frame. Must be set
// before StartSession.
func (g *Game) OnFrame(fn func(Update)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onFrame = fn
}

// OnResult registers a callback invoked when a session finishes on its
// own (the track ran out). Must be set before StartSession.
func (g *Game) OnResult(fn func(*score.Result)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onResult = fn
}

// StartSession begins scoring against the given track.
func (g *Game) StartSession(trackID string) error {
	t, err := g.library.Get(trackID)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session != nil {
		return ErrSessionActive
	}

	if err := g.camera.Open(); err != nil {
		return err
	}

	g.motion.Reset()
	g.session = score.NewSession(trackID)
	g.current = t
	g.startedAt = time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.done = make(chan struct{})
	go g.run(ctx)

	logrus.WithFields(logrus.Fields{
		"session": g.session.ID(),
		"track":   trackID,
		"mode":    g.orch.EffectiveMode(),
	}).Info("session started")

	return nil
}

// StopSession ends the running session early and returns its result. The
// result is persisted like a natural finish.
func (g *Game) StopSession() (*score.Result, error) {
	g.mu.Lock()
	if g.session == nil {
		g.mu.Unlock()
		return nil, ErrNoSession
	}
	cancel := g.cancel
	done := g.done
	g.mu.Unlock()

	cancel()
	<-done

	return g.finish()
}

// Active reports whether a session is currently running.
func (g *Game) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session != nil
}

// Session returns the running session, or nil.
func (g *Game) Session() *score.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// Close stops any running session and releases the motion detector.
func (g *Game) Close() {
	if g.Active() {
		if _, err := g.StopSession(); err != nil {
			logrus.WithError(err).Warn("stopping session during shutdown")
		}
	}
	g.motion.Close()
}

func (g *Game) run(ctx context.Context) {
	defer close(g.done)

	fps := int(g.current.FPS)
	if fps < MinLoopFPS {
		fps = MinLoopFPS
	}
	if fps > MaxLoopFPS {
		fps = MaxLoopFPS
	}
	g.camera.SetFPS(fps)

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed := time.Since(g.startedAt)
			if g.current.Done(elapsed) {
				go g.finishNatural()
				return
			}
			g.tick(ctx, elapsed)
		}
	}
}

func (g *Game) tick(ctx context.Context, elapsed time.Duration) {
	frame, err := g.camera.ReadFrame()
	if err != nil {
		logrus.WithError(err).Warn("reading frame")
		return
	}
	defer frame.Close()

	moving, _ := g.motion.Detect(frame)
	if g.motion.Idle() {
		// The performer left or froze; hold scoring until they move again.
		g.emit(Update{
			SessionID: g.session.ID(),
			TrackID:   g.session.TrackID(),
			Moving:    false,
		})
		return
	}

	// Adaptive sampling: skipped frames cost nothing but a missed score
	// sample, and the aggregate is a mean so thinning does not bias it.
	if g.optimizer != nil && !g.optimizer.ShouldProcessFrame() {
		return
	}

	frameIdx := g.current.FrameForElapsed(elapsed)

	res, err := g.orch.DetectPose(ctx, detect.CameraInputWithFallback(frame, g.session.TrackID(), frameIdx))
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logrus.WithError(err).WithField("frame", frameIdx).Warn("pose detection failed")
		return
	}

	ref, err := g.current.AngleSet(frameIdx)
	if err != nil {
		logrus.WithError(err).WithField("frame", frameIdx).Warn("reference frame missing")
		return
	}

	fs := score.ScoreFrame(res.Angles, ref, g.cfg.ScoreThreshold)
	g.session.Append(fs)

	g.emit(Update{
		SessionID:  g.session.ID(),
		TrackID:    g.session.TrackID(),
		FrameIndex: frameIdx,
		Frame:      fs,
		Provenance: string(res.Provenance),
		Moving:     moving,
	})
}

func (g *Game) emit(u Update) {
	g.mu.Lock()
	fn := g.onFrame
	g.mu.Unlock()
	if fn != nil {
		fn(u)
	}
}

// finishNatural runs when the track plays out. It goes through the same
// teardown as StopSession and then notifies the result callback.
func (g *Game) finishNatural() {
	res, err := g.finish()
	if err != nil {
		return
	}

	g.mu.Lock()
	fn := g.onResult
	g.mu.Unlock()
	if fn != nil {
		fn(res)
	}
}

func (g *Game) finish() (*score.Result, error) {
	g.mu.Lock()
	session := g.session
	if session == nil {
		g.mu.Unlock()
		return nil, ErrNoSession
	}
	g.session = nil
	g.current = nil
	g.cancel = nil
	g.mu.Unlock()

	if err := g.camera.Close(); err != nil {
		logrus.WithError(err).Warn("closing camera")
	}

	res := session.Finish()

	if g.sink != nil {
		if err := g.sink.Save(res); err != nil {
			logrus.WithError(err).WithField("session", res.ID).Error("persisting session")
		}
	}

	logrus.WithFields(logrus.Fields{
		"session": res.ID,
		"track":   res.TrackID,
		"final":   res.Final,
		"frames":  res.FrameCount,
	}).Info("session finished")

	return res, nil
}
