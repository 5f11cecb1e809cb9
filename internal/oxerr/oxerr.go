// Package oxerr defines the sentinel errors callers of the core packages
// test against with errors.Is. Failures that don't fit one of these kinds
// (I/O, codec, internal invariant breaks) are returned as plain wrapped
// errors instead of being forced into a taxonomy nobody checks for.
package oxerr

import "errors"

var (
	// ErrNotFound means no clip matches the requested name or id.
	ErrNotFound = errors.New("oxygen: not found")

	// ErrConflict means a save or rename collided with an existing name.
	ErrConflict = errors.New("oxygen: name conflict")

	// ErrInvalidArgument means a caller-supplied argument violates a
	// documented precondition (bad export path, non-empty export-all
	// target, invalid UTF-8 path, and so on).
	ErrInvalidArgument = errors.New("oxygen: invalid argument")

	// ErrDeviceUnavailable means no default input/output device exists,
	// or the device reported a sample format this engine can't handle.
	ErrDeviceUnavailable = errors.New("oxygen: audio device unavailable")
)
