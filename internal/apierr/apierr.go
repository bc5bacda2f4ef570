// Package apierr defines the typed error kinds shared by the catalog, player
// and worker layers so that a single HTTP-facing translation can map any of
// them to the right status code without string-sniffing error messages.
package apierr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the purposes of HTTP status mapping.
type Kind int

const (
	// KindBadInput covers malformed bodies, mutually exclusive fields both
	// set, and missing required fields.
	KindBadInput Kind = iota
	// KindUnknownID covers a referenced id that is not present in the catalog.
	KindUnknownID
	// KindConflict covers queue operations attempted while the stream player
	// is current, and play-from-queue index/trackid mismatches.
	KindConflict
	// KindInternalCorruption covers artwork blobs with unrecognized magic and
	// other store integrity violations.
	KindInternalCorruption
)

func (k Kind) String() string {
	switch k {
	case KindBadInput:
		return "BadInput"
	case KindUnknownID:
		return "UnknownId"
	case KindConflict:
		return "Conflict"
	case KindInternalCorruption:
		return "InternalCorruption"
	default:
		return "Unknown"
	}
}

// Error is a typed error carrying a Kind plus a human-readable message. HTTP
// adapters translate it directly; nothing at the store layer swallows it.
type Error struct {
	Kind    Kind
	Message string
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.wrapped }

// Is lets errors.Is(err, apierr.BadInput) work against a bare Kind sentinel
// without requiring callers to construct an *Error to compare against.
func (e *Error) Is(target error) bool {
	var k *kindSentinel
	if errors.As(target, &k) {
		return e.Kind == k.kind
	}
	return false
}

// kindSentinel is an error value that only carries a Kind, used as the
// comparison target for errors.Is(err, apierr.BadInput) etc.
type kindSentinel struct{ kind Kind }

func (s *kindSentinel) Error() string { return s.kind.String() }

// Sentinels usable with errors.Is.
var (
	BadInput            error = &kindSentinel{KindBadInput}
	UnknownID           error = &kindSentinel{KindUnknownID}
	Conflict            error = &kindSentinel{KindConflict}
	InternalCorruption  error = &kindSentinel{KindInternalCorruption}
)

// New constructs a typed Error with no wrapped cause.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs a typed Error with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs a typed Error that wraps cause, preserving it for
// errors.Unwrap / errors.Is chains.
func Wrap(kind Kind, message string, cause error) error {
	return &Error{Kind: kind, Message: message, wrapped: cause}
}

// KindOf extracts the Kind from err, defaulting to KindInternalCorruption
// when err is not one of ours (a programmer error we'd rather surface as a
// 500 than silently misclassify).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternalCorruption
}
