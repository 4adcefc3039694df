package detect

import (
	"errors"
	"fmt"
)

// Kind is a closed enumeration of detection error categories, so callers
// can branch on the failure class instead of matching message text.
type Kind int

const (
	// KindModelNotLoaded: the real-time path was requested but no model is
	// available to serve it.
	KindModelNotLoaded Kind = iota
	// KindFrameNotFound: the requested reference frame does not exist.
	// A data-integrity failure — missing assets, not a runtime condition —
	// and therefore never counted toward the fallback window.
	KindFrameNotFound
	// KindInferenceFailed: the inference backend failed on this frame.
	KindInferenceFailed
	// KindTimeout: the inference backend did not answer within the frame
	// budget. The late result, if any, is discarded.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindModelNotLoaded:
		return "model_not_loaded"
	case KindFrameNotFound:
		return "frame_not_found"
	case KindInferenceFailed:
		return "inference_failed"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is a detection failure carrying its kind and, where relevant, the
// frame it concerns.
type Error struct {
	Kind       Kind
	TrackID    string
	FrameIndex int
	Err        error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.TrackID != "" {
		msg = fmt.Sprintf("%s (track %s, frame %d)", msg, e.TrackID, e.FrameIndex)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a detection Error of the given kind.
func IsKind(err error, k Kind) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	return de.Kind == k
}
