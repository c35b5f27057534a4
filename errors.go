package vectortile

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Every error returned by the public API wraps
// exactly one of these, so callers can classify failures with
// errors.Is without parsing messages.
var (
	// ErrInvalidArgument reports a range, type, or enum violation at
	// the API boundary.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrCorruptInput reports malformed PBF or compression framing.
	ErrCorruptInput = errors.New("corrupt input")
	// ErrUnsupportedVersion reports a layer version above 2 met while
	// upgrading. Without the upgrade flag, layers of any version are
	// kept as they are.
	ErrUnsupportedVersion = errors.New("unsupported layer version")
	// ErrProjection reports an unreachable reprojection failure; it
	// exists for defensive checks only.
	ErrProjection = errors.New("projection error")
	// ErrGeometry reports a clipping, simplification, or validity
	// failure the caller asked to be fatal.
	ErrGeometry = errors.New("geometry error")
	// ErrIO reports image decode or raster format failures.
	ErrIO = errors.New("io error")
)

// CompositeError wraps the failure of one source tile during a
// composite. The target tile is untouched when it is returned.
type CompositeError struct {
	// Source is the index of the failing source tile.
	Source int
	// Err is the underlying codec or geometry error.
	Err error
}

func (e *CompositeError) Error() string {
	return fmt.Sprintf("composite: source tile %d: %v", e.Source, e.Err)
}

func (e *CompositeError) Unwrap() error { return e.Err }

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func corruptf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrCorruptInput, fmt.Sprintf(format, args...))
}
