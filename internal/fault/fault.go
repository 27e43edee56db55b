// Package fault defines the error taxonomy of an aggregation run.
//
// Every error produced by the engine wraps exactly one class sentinel
// (ErrIO, ErrFormat, ErrResource) so callers can classify it with errors.Is.
package fault

import (
	"errors"
	"fmt"
	"os"
)

// Class sentinels.
var (
	ErrIO       = errors.New("i/o fault")
	ErrFormat   = errors.New("format fault")
	ErrResource = errors.New("resource fault")
)

// Format faults.
var (
	ErrMissingSeparator    = fmt.Errorf("%w: missing ';' separator", ErrFormat)
	ErrMissingNewline      = fmt.Errorf("%w: missing newline", ErrFormat)
	ErrEmptyKey            = fmt.Errorf("%w: empty key", ErrFormat)
	ErrMalformedValue      = fmt.Errorf("%w: malformed value", ErrFormat)
	ErrUnknownKey          = fmt.Errorf("%w: key not in catalog", ErrFormat)
	ErrKeyCollision        = fmt.Errorf("%w: distinct keys share a hash", ErrFormat)
	ErrDuplicateCatalogKey = fmt.Errorf("%w: duplicate catalog key", ErrFormat)
)

// Resource faults.
var (
	ErrWorkerCount = fmt.Errorf("%w: unusable worker count", ErrResource)
)

// ErrMismatch reports that a verification pass disagreed with the engine.
var ErrMismatch = errors.New("verification mismatch")

// Code is a coarse error class used for logging and exit statuses.
type Code string

const (
	CodeOK       Code = "ok"
	CodeUnknown  Code = "unknown"
	CodeIO       Code = "io"
	CodeFormat   Code = "format"
	CodeResource Code = "resource"
	CodeMismatch Code = "mismatch"
)

// Classify maps err to its Code. Errors that wrap no class sentinel but are
// *os.PathError are treated as I/O faults.
func Classify(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrIO):
		return CodeIO
	case errors.Is(err, ErrFormat):
		return CodeFormat
	case errors.Is(err, ErrResource):
		return CodeResource
	case errors.Is(err, ErrMismatch):
		return CodeMismatch
	}
	var perr *os.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}

// ExitStatus is the process exit status for c.
func (c Code) ExitStatus() int {
	switch c {
	case CodeOK:
		return 0
	case CodeIO:
		return 2
	case CodeFormat:
		return 3
	case CodeResource:
		return 4
	case CodeMismatch:
		return 5
	default:
		return 1
	}
}

// IO wraps err as an I/O fault about path.
func IO(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrIO, op, path, err)
}

// At annotates a format fault with the byte offset it was detected at.
func At(offset int, err error) error {
	return fmt.Errorf("offset %d: %w", offset, err)
}
