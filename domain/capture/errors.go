package capture

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

var (
	// ErrNoFrame means the source had nothing new within its timeout.
	ErrNoFrame = errors.New("capture: no new frame")
	// ErrDeviceLost means native capture resources became invalid, for
	// example after a display mode change. The engine reinitializes them.
	ErrDeviceLost = errors.New("capture: device lost")
	// ErrUnsupported means this capture method cannot run on the current
	// display or adapter.
	ErrUnsupported = errors.New("capture: unsupported on this display")
	// ErrNotStarted is returned by Stop before Start.
	ErrNotStarted = errors.New("capture: not started")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("capture: already started")
	// ErrInvalidRegion means the requested region is empty.
	ErrInvalidRegion = errors.New("capture: invalid region")
	// ErrStopped is returned by Start on an engine that was already stopped.
	ErrStopped = errors.New("capture: stopped")
)

// Kind groups capture failures by how they are handled.
type Kind int

const (
	KindUnknown Kind = iota
	// KindTransient failures are retried or recovered silently.
	KindTransient
	// KindConfiguration failures end the session.
	KindConfiguration
	// KindIO failures stop the writer; written data stays valid.
	KindIO
	// KindInvariant failures are internal format violations.
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindConfiguration:
		return "configuration"
	case KindIO:
		return "io"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// invariant is implemented by errors that report a broken format invariant,
// such as *cache.InvariantError.
type invariant interface{ Invariant() bool }

// Classify maps err onto a Kind.
func Classify(err error) Kind {
	var pathErr *fs.PathError
	var errno syscall.Errno
	var inv invariant
	var ce *Error
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &ce):
		return ce.Kind
	case errors.As(err, &inv) && inv.Invariant():
		return KindInvariant
	case errors.Is(err, ErrNoFrame), errors.Is(err, ErrDeviceLost):
		return KindTransient
	case errors.Is(err, ErrUnsupported), errors.Is(err, ErrInvalidRegion):
		return KindConfiguration
	case errors.As(err, &pathErr), errors.As(err, &errno):
		return KindIO
	default:
		return KindUnknown
	}
}

// Error wraps a failure reported through OnError with its Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("capture %s error: %v", e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }
