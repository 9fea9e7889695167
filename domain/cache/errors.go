package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrStreamOffset marks a violated header/payload offset relation. It is
	// a defect, never retried.
	ErrStreamOffset = errors.New("cache: stream offset mismatch")
	// ErrSignature means a properties file is not a cached project.
	ErrSignature = errors.New("cache: bad signature")
	// ErrVersion means a cache file uses an unknown format version.
	ErrVersion = errors.New("cache: unsupported version")
	// ErrCorrupt means a cache file does not match its declared structure.
	ErrCorrupt = errors.New("cache: corrupt file")
)

// InvariantError reports where an offset invariant broke.
type InvariantError struct {
	Path     string
	What     string
	Expected uint64
	Actual   uint64
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("cache: %s in %s: expected offset %d, got %d", e.What, e.Path, e.Expected, e.Actual)
}

func (e *InvariantError) Unwrap() error { return ErrStreamOffset }

// Invariant marks e as a format defect for error classification.
func (e *InvariantError) Invariant() bool { return true }
