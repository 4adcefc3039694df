package mode

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Fallback policy constants.
const (
	// FailureWindow is the trailing interval over which inference failures
	// are counted.
	FailureWindow = 60 * time.Second
	// FailureCeiling is the in-window failure count that triggers fallback.
	FailureCeiling = 10
)

// PrefKeyMode is the key under which the user's mode preference persists.
const PrefKeyMode = "detection_mode"

// Capability thresholds for the real-time recommendation.
const (
	minRealTimeYear     = 2020
	minRealTimeMemoryGB = 4
)

// Prefs is the persistence collaborator. Get reports ok=false when the key
// has never been set.
type Prefs interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Manager owns the detection-mode state machine. The failure window and
// capability snapshot are owned exclusively by the manager; nothing
// mutates them except through its methods.
type Manager struct {
	mu          sync.Mutex
	prefs       Prefs
	probe       Probe
	caps        Capabilities
	current     Mode
	failures    []time.Time
	initialized bool
	nowFn       func() time.Time
}

// NewManager creates a Manager with the given collaborators.
func NewManager(prefs Prefs, probe Probe) *Manager {
	return &Manager{
		prefs:   prefs,
		probe:   probe,
		current: Auto,
		nowFn:   time.Now,
	}
}

// Initialize computes device capabilities once and loads the persisted
// mode preference, defaulting to Auto when none exists.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	if m.probe != nil {
		caps, err := m.probe.Probe()
		if err != nil {
			// Unknown platform: keep zero capabilities, which the
			// heuristic resolves to the pre-computed recommendation.
			logrus.WithError(err).Warn("capability probe failed, assuming conservative device")
		} else {
			m.caps = caps
		}
	}

	m.current = Auto
	if m.prefs != nil {
		value, ok, err := m.prefs.Get(PrefKeyMode)
		if err != nil {
			return fmt.Errorf("load mode preference: %w", err)
		}
		if ok {
			if parsed, err := Parse(value); err == nil {
				m.current = parsed
			} else {
				logrus.WithField("value", value).Warn("ignoring invalid persisted mode")
			}
		}
	}

	m.initialized = true

	logrus.WithFields(logrus.Fields{
		"mode":      m.current,
		"platform":  m.caps.Platform,
		"year":      m.caps.Year,
		"memory_gb": m.caps.MemoryGB,
	}).Info("detection mode manager initialized")

	return nil
}

// DetectOptimalMode applies the capability heuristic: recent enough and
// enough memory recommends real time, everything else pre-computed. This
// is intentionally conservative, not a benchmark.
func (m *Manager) DetectOptimalMode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detectOptimalMode()
}

func (m *Manager) detectOptimalMode() Mode {
	if m.caps.Year >= minRealTimeYear && m.caps.MemoryGB >= minRealTimeMemoryGB {
		return RealTime
	}
	return PreComputed
}

// CurrentMode returns the current mode, which may be Auto.
func (m *Manager) CurrentMode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// EffectiveMode resolves the current mode to a concrete execution mode.
// Auto never escapes this method.
func (m *Manager) EffectiveMode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == Auto {
		return m.detectOptimalMode()
	}
	return m.current
}

// SetMode sets the current mode and persists it. This is the only path
// that writes the preference; automatic fallback never persists.
func (m *Manager) SetMode(mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid detection mode %q", mode)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = mode
	if m.prefs != nil {
		if err := m.prefs.Set(PrefKeyMode, string(mode)); err != nil {
			return fmt.Errorf("persist mode preference: %w", err)
		}
	}

	logrus.WithField("mode", mode).Info("detection mode set")
	return nil
}

// RecordFailure appends a failure at the current time, purges entries
// older than the window, and triggers fallback once the ceiling is hit.
func (m *Manager) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFn()
	m.purgeLocked(now)
	m.failures = append(m.failures, now)

	if len(m.failures) >= FailureCeiling {
		m.triggerFallbackLocked(fmt.Sprintf("%d inference failures within %s", len(m.failures), FailureWindow))
	}
}

// FailureCount returns the number of failures currently inside the window.
func (m *Manager) FailureCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeLocked(m.nowFn())
	return len(m.failures)
}

// ResetFailures clears the failure window, e.g. after a successful model
// reload or app foregrounding.
func (m *Manager) ResetFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = nil
}

// TriggerFallback forces the pre-computed path for this process only.
// The change is deliberately not persisted: a transient degradation must
// not become a permanent user setting.
func (m *Manager) TriggerFallback(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggerFallbackLocked(reason)
}

func (m *Manager) triggerFallbackLocked(reason string) {
	if m.current != RealTime && m.current != Auto {
		return
	}

	m.current = PreComputed
	m.failures = nil

	logrus.WithFields(logrus.Fields{
		"reason": reason,
		"mode":   m.current,
	}).Warn("fell back to pre-computed detection")
}

// SupportsRealTime reports whether the device could run real-time
// inference at all, independent of the currently selected mode.
func (m *Manager) SupportsRealTime() bool {
	return m.DetectOptimalMode() == RealTime
}

// Capabilities returns a read-only snapshot of the device capabilities.
func (m *Manager) Capabilities() Capabilities {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.caps
}

func (m *Manager) purgeLocked(now time.Time) {
	cutoff := now.Add(-FailureWindow)
	kept := m.failures[:0]
	for _, t := range m.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	m.failures = kept
}
