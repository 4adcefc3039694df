package pose

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// SubprocessAdapter implements Adapter using a Python pose-estimation
// service. Frames go out as length-prefixed JPEG on stdin, keypoints come
// back as one JSON object per line on stdout.
type SubprocessAdapter struct {
	config    Config
	model     string
	hint      string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	waiters   map[uint64]chan subprocessResponse
	nextReq   uint64
	nextResp  uint64
	mu        sync.Mutex
	loaded    bool
	started   bool
	idleTimer *time.Timer
}

type subprocessResponse struct {
	inference *Inference
	err       error
}

// NewSubprocessAdapter creates a new subprocess-backed adapter.
// The service process is started lazily on first inference.
func NewSubprocessAdapter(config Config) *SubprocessAdapter {
	return &SubprocessAdapter{
		config:  config,
		hint:    config.AccelerationHint,
		waiters: make(map[uint64]chan subprocessResponse),
	}
}

// Load records the model path and verifies the pose service script exists.
func (a *SubprocessAdapter) Load(model string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if findPoseScript() == "" {
		return fmt.Errorf("pose_service.py not found")
	}
	if model != "" {
		if _, err := os.Stat(model); err != nil {
			return fmt.Errorf("model %s: %w", model, err)
		}
	}

	a.model = model
	a.loaded = true
	return nil
}

// ConfigureAcceleration records the delegate hint passed to the service.
// Unknown hints are accepted; the service falls back to CPU execution.
func (a *SubprocessAdapter) ConfigureAcceleration(hint string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch hint {
	case "", "cpu", "gpu", "nnapi", "coreml":
		a.hint = hint
		return nil
	default:
		a.hint = "cpu"
		return fmt.Errorf("unknown acceleration hint %q", hint)
	}
}

// Infer sends one frame to the service and waits for its keypoints.
// If ctx expires before the service answers, the call fails and the
// eventual response is discarded by the reader loop.
func (a *SubprocessAdapter) Infer(ctx context.Context, frame *gocv.Mat) (*Inference, error) {
	a.mu.Lock()

	if !a.loaded {
		a.mu.Unlock()
		return nil, fmt.Errorf("model not loaded")
	}
	if err := a.ensureStarted(); err != nil {
		a.mu.Unlock()
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		a.mu.Unlock()
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	data := buf.GetBytes()

	// Write length (4 bytes big-endian) + data.
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := a.stdin.Write(length); err != nil {
		buf.Close()
		a.mu.Unlock()
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := a.stdin.Write(data); err != nil {
		buf.Close()
		a.mu.Unlock()
		return nil, fmt.Errorf("write data: %w", err)
	}
	buf.Close()

	seq, ch := a.registerLocked()
	a.resetIdleTimer()
	a.mu.Unlock()

	select {
	case resp := <-ch:
		return resp.inference, resp.err
	case <-ctx.Done():
		// The service will still answer. Dropping the waiter makes the
		// reader discard that answer; the channel is private to this call,
		// so a response delivered in the same instant the deadline fired
		// can never reach a later call.
		a.abandon(seq)
		return nil, ctx.Err()
	}
}

// registerLocked enqueues a waiter for the next service response.
// Callers must hold mu.
func (a *SubprocessAdapter) registerLocked() (uint64, chan subprocessResponse) {
	seq := a.nextReq
	a.nextReq++
	ch := make(chan subprocessResponse, 1)
	a.waiters[seq] = ch
	return seq, ch
}

// abandon drops a timed-out call's waiter so its late response is
// discarded instead of being paired with a later call.
func (a *SubprocessAdapter) abandon(seq uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.waiters, seq)
}

// deliver pairs a response with its call by position. Responses arrive in
// request order; one whose call already gave up is dropped.
func (a *SubprocessAdapter) deliver(resp subprocessResponse) {
	a.mu.Lock()
	seq := a.nextResp
	a.nextResp++
	ch, ok := a.waiters[seq]
	if ok {
		delete(a.waiters, seq)
	}
	a.mu.Unlock()

	if ok {
		ch <- resp
	}
}

// failWaiters aborts every pending call after the service stream ends.
func (a *SubprocessAdapter) failWaiters(cause error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for seq, ch := range a.waiters {
		delete(a.waiters, seq)
		ch <- subprocessResponse{err: fmt.Errorf("pose service exited: %w", cause)}
	}
}

// Close shuts down the service process.
func (a *SubprocessAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.shutdown()
}

func (a *SubprocessAdapter) ensureStarted() error {
	if a.started {
		return nil
	}

	scriptPath := findPoseScript()
	if scriptPath == "" {
		return fmt.Errorf("pose_service.py not found")
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	args := []string{scriptPath}
	if a.model != "" {
		args = append(args, "--model", a.model)
	}
	if a.hint != "" {
		args = append(args, "--delegate", a.hint)
	}

	cmd := exec.Command(pythonPath, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	a.cmd = cmd
	a.stdin = stdin
	a.started = true

	go a.readLoop(bufio.NewReader(stdout))

	logrus.WithFields(logrus.Fields{
		"python":   pythonPath,
		"delegate": a.hint,
	}).Info("pose service started")

	return nil
}

// readLoop consumes service responses in order, pairing each with the
// call that sent the matching frame.
func (a *SubprocessAdapter) readLoop(r *bufio.Reader) {
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			a.failWaiters(err)
			return
		}
		a.deliver(parsePoseResponse(line))
	}
}

func parsePoseResponse(line string) subprocessResponse {
	var payload struct {
		Keypoints map[string]Keypoint `json:"keypoints"`
		LatencyMs float64             `json:"latencyMs"`
		Error     string              `json:"error"`
	}
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		return subprocessResponse{err: fmt.Errorf("parse response: %w", err)}
	}
	if payload.Error != "" {
		return subprocessResponse{err: fmt.Errorf("pose service: %s", payload.Error)}
	}

	inf := &Inference{LatencyMs: payload.LatencyMs}
	for name, kp := range payload.Keypoints {
		if i, ok := KeypointIndex(name); ok {
			inf.Keypoints[i] = kp
		}
	}
	return subprocessResponse{inference: inf}
}

func (a *SubprocessAdapter) shutdown() error {
	if !a.started {
		return nil
	}

	if a.idleTimer != nil {
		a.idleTimer.Stop()
		a.idleTimer = nil
	}

	if a.stdin != nil {
		a.stdin.Close()
	}

	err := a.cmd.Wait()
	a.started = false
	a.cmd = nil
	a.stdin = nil

	return err
}

func (a *SubprocessAdapter) resetIdleTimer() {
	if a.config.IdleShutdown <= 0 {
		return
	}
	if a.idleTimer != nil {
		a.idleTimer.Stop()
	}
	a.idleTimer = time.AfterFunc(a.config.IdleShutdown, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.shutdown()
	})
}

func findPoseScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/pose_service.py",
		"../scripts/pose_service.py",
		filepath.Join(execDir, "scripts/pose_service.py"),
		filepath.Join(os.Getenv("HOME"), ".natya/scripts/pose_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment
// near the executable or under ~/.natya.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".natya/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
