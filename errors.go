package kvdb

import (
	"errors"
	"fmt"
)

// Kind classifies the failure behind an [Error] into the taxonomy the store
// distinguishes: callers branch on Kind rather than parsing messages.
type Kind uint8

const (
	// KindIO marks any underlying filesystem failure.
	KindIO Kind = iota
	// KindInvalidName marks a directory path that collides with a file, or
	// an existing directory that is missing METADATA when it was expected.
	KindInvalidName
	// KindCorruption marks a malformed on-disk index entry.
	KindCorruption
	// KindBackgroundFlush marks a failure of the background flush worker,
	// including a panic recovered at shutdown.
	KindBackgroundFlush
	// KindSyncPoison marks an engine whose internal coordination state was
	// left inconsistent by an earlier panic, so it refuses further writes.
	KindSyncPoison
	// KindSend marks an unexpected failure signaling shutdown to the
	// background worker.
	KindSend
)

// String renders the Kind's taxonomy name.
func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindInvalidName:
		return "invalid_name"
	case KindCorruption:
		return "corruption"
	case KindBackgroundFlush:
		return "background_flush"
	case KindSyncPoison:
		return "sync_poison"
	case KindSend:
		return "send"
	default:
		return "unknown"
	}
}

// Sentinel errors, classifiable with errors.Is, one per [Kind]. Every
// [Error] returned by this package wraps one of these so callers can match
// on either the sentinel or [Error.Kind].
var (
	ErrIO              = errors.New("kvdb: io error")
	ErrInvalidName     = errors.New("kvdb: invalid directory name")
	ErrCorruption      = errors.New("kvdb: corrupt generation data")
	ErrBackgroundFlush = errors.New("kvdb: background flush failed")
	ErrSyncPoison      = errors.New("kvdb: engine poisoned by prior panic")
	ErrSend            = errors.New("kvdb: shutdown signal failed")

	// ErrClosed is returned by any operation attempted on an engine that has
	// already been closed.
	ErrClosed = errors.New("kvdb: engine closed")
)

func sentinelFor(k Kind) error {
	switch k {
	case KindIO:
		return ErrIO
	case KindInvalidName:
		return ErrInvalidName
	case KindCorruption:
		return ErrCorruption
	case KindBackgroundFlush:
		return ErrBackgroundFlush
	case KindSyncPoison:
		return ErrSyncPoison
	case KindSend:
		return ErrSend
	default:
		return ErrIO
	}
}

// Error is the error type returned by the public kvdb API; the one
// exception is [ErrClosed], which is returned unwrapped.
//
// Error carries enough structured context (directory, generation id) to
// diagnose a failure without parsing the message, and wraps both a taxonomy
// [Kind] and the underlying cause.
//
// Use [errors.Is] against the package's Err* sentinels, or [errors.As]
// and [Error.Kind], to classify a failure:
//
//	var kErr *kvdb.Error
//	if errors.As(err, &kErr) && kErr.Kind() == kvdb.KindCorruption {
//	    // rebuild from a known-good generation
//	}
type Error struct {
	kind Kind

	// Dir is the store directory the failing operation was scoped to, when
	// known.
	Dir string

	// Generation is the generation id involved, when the failure is
	// specific to one generation (e.g. a corrupt index). Negative when not
	// applicable.
	Generation int64

	// Err is the underlying cause.
	Err error
}

// newError builds an *Error for kind, wrapping err, with Generation unset.
func newError(kind Kind, dir string, err error) *Error {
	return &Error{kind: kind, Dir: dir, Generation: -1, Err: err}
}

// withGeneration attaches a generation id to e and returns e for chaining.
func (e *Error) withGeneration(id uint64) *Error {
	e.Generation = int64(id) //nolint:gosec
	return e
}

// Kind reports the taxonomy-level classification of the failure.
func (e *Error) Kind() Kind {
	if e == nil {
		return KindIO
	}

	return e.kind
}

// Error implements the error interface: "<cause> (dir=X generation=Y)".
func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	cause := ""
	if e.Err != nil {
		cause = e.Err.Error()
	}

	suffix := e.suffix()
	if suffix == "" {
		return cause
	}

	if cause == "" {
		return suffix
	}

	return cause + " " + suffix
}

func (e *Error) suffix() string {
	switch {
	case e.Dir != "" && e.Generation >= 0:
		return fmt.Sprintf("(dir=%s generation=%d)", e.Dir, e.Generation)
	case e.Dir != "":
		return fmt.Sprintf("(dir=%s)", e.Dir)
	case e.Generation >= 0:
		return fmt.Sprintf("(generation=%d)", e.Generation)
	default:
		return ""
	}
}

// Unwrap returns the underlying cause, then the Kind's sentinel, so that
// errors.Is matches both the specific cause and the taxonomy sentinel.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}

	return []error{e.Err, sentinelFor(e.kind)}
}
