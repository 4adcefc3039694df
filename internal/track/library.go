package track

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/natya/internal/pose"
)

// Library holds loaded reference tracks, keyed by song ID.
type Library struct {
	mu     sync.RWMutex
	tracks map[string]*Track
}

// NewLibrary creates an empty Library.
func NewLibrary() *Library {
	return &Library{tracks: make(map[string]*Track)}
}

// LoadFile parses one track asset.
func LoadFile(path string) (*Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read track %s: %w", path, err)
	}

	var t Track
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse track %s: %w", path, err)
	}

	if t.SongID == "" {
		t.SongID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return &t, nil
}

// LoadDir loads every .json track in dir into the library. Files that fail
// to parse are skipped with a warning; the directory itself must exist.
func (l *Library) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read tracks dir: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		t, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			logrus.WithError(err).WithField("file", entry.Name()).Warn("skipping unreadable track")
			continue
		}

		l.Add(t)
		loaded++
	}

	logrus.WithFields(logrus.Fields{"dir": dir, "tracks": loaded}).Info("reference tracks loaded")
	return nil
}

// Add registers a track, replacing any previous track with the same ID.
func (l *Library) Add(t *Track) {
	if t == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tracks[t.SongID] = t
}

// Get returns a track by ID.
func (l *Library) Get(trackID string) (*Track, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.tracks[trackID]
	if !ok {
		return nil, fmt.Errorf("track %s: %w", trackID, ErrNotFound)
	}
	return t, nil
}

// Lookup returns the reference joint angles for a frame of a track.
func (l *Library) Lookup(trackID string, frameIndex int) (pose.JointAngleSet, error) {
	t, err := l.Get(trackID)
	if err != nil {
		return pose.JointAngleSet{}, err
	}
	return t.AngleSet(frameIndex)
}

// FrameForElapsed maps elapsed session time to a frame index of a track.
func (l *Library) FrameForElapsed(trackID string, elapsed time.Duration) (int, error) {
	t, err := l.Get(trackID)
	if err != nil {
		return 0, err
	}
	return t.FrameForElapsed(elapsed), nil
}

// Summaries lists the loaded tracks sorted by song ID.
func (l *Library) Summaries() []Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Summary, 0, len(l.tracks))
	for _, t := range l.tracks {
		out = append(out, t.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SongID < out[j].SongID })
	return out
}
