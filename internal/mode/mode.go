// Package mode owns detection-mode arbitration: the AUTO / REAL_TIME /
// PRE_COMPUTED state machine, the device capability heuristic, and the
// failure-windowed fallback policy.
package mode

import "fmt"

// Mode is a detection mode.
type Mode string

const (
	// Auto defers the choice to the device capability heuristic. Auto is a
	// policy marker, never an execution mode: EffectiveMode always resolves
	// it to RealTime or PreComputed.
	Auto Mode = "auto"
	// RealTime runs live inference on camera frames.
	RealTime Mode = "real_time"
	// PreComputed serves poses from the reference track.
	PreComputed Mode = "pre_computed"
)

// Parse converts a stored string into a Mode.
func Parse(s string) (Mode, error) {
	switch Mode(s) {
	case Auto, RealTime, PreComputed:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown detection mode %q", s)
	}
}

// Valid reports whether m is one of the three modes.
func (m Mode) Valid() bool {
	return m == Auto || m == RealTime || m == PreComputed
}
