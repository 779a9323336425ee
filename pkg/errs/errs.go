// Package errs defines the error taxonomy shared by all services.
//
// Every failure that crosses a service boundary is one of the kinds below.
// The HTTP layer owns the single translation point from kind to status code
// (httputil.WriteAppError); services never write HTTP responses themselves.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a service error.
type Kind int

const (
	// KindInternal is an unexpected store or runtime failure.
	KindInternal Kind = iota
	// KindUnauthenticated means no, invalid, or expired credential, or a
	// deactivated account.
	KindUnauthenticated
	// KindForbidden means a role or ownership check failed.
	KindForbidden
	// KindValidation means malformed input; Details carries one message per
	// violated field.
	KindValidation
	// KindReferenceNotFound means a referenced foreign entity does not exist.
	KindReferenceNotFound
	// KindNotFound means the requested entity itself does not exist.
	KindNotFound
	// KindConflict means a uniqueness violation or a delete blocked by
	// dependent records.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindReferenceNotFound:
		return "reference_not_found"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified service error. Message is safe to show to clients;
// Err (if set) is the underlying cause and is for logs only.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error. The message is client-facing; err is
// retained for logging only.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Unauthenticated creates a KindUnauthenticated error.
func Unauthenticated(message string) *Error { return New(KindUnauthenticated, message) }

// Forbidden creates a KindForbidden error.
func Forbidden(message string) *Error { return New(KindForbidden, message) }

// Validation creates a KindValidation error carrying per-field messages.
func Validation(details []string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Details: details}
}

// ReferenceNotFound names the foreign reference that could not be resolved.
func ReferenceNotFound(reference string) *Error {
	return Newf(KindReferenceNotFound, "%s not found", reference)
}

// NotFound names the entity that does not exist.
func NotFound(entity string) *Error {
	return Newf(KindNotFound, "%s not found", entity)
}

// Conflict creates a KindConflict error.
func Conflict(message string) *Error { return New(KindConflict, message) }

// Internal wraps an unexpected failure. The client-facing message is fixed so
// internal detail never leaks.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: err}
}

// KindOf extracts the kind from err, defaulting to KindInternal for
// unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is a classified error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
