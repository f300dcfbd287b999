package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies failures by how the pipeline must react to them
type Kind string

const (
	// KindPermanentItem marks an item that can never succeed: no extractor
	// for its URL, disabled module, malformed record. Logged and skipped.
	KindPermanentItem Kind = "permanent_item"

	// KindTransientRemote marks a rate-limit rejection. The only kind the
	// retry controller backs off and retries.
	KindTransientRemote Kind = "transient_remote"

	// KindRemoteProtocol marks remote failures that are neither permanent
	// nor rate limiting: HTTP errors, truncated payloads, missing records.
	KindRemoteProtocol Kind = "remote_protocol"

	// KindLocalIO marks filesystem failures on our side: write, mkdir,
	// hard link.
	KindLocalIO Kind = "local_io"

	// KindSequenceAdvance marks a failure while advancing an item
	// sequence, as opposed to processing one of its items.
	KindSequenceAdvance Kind = "sequence_advance"

	// KindConfig marks invalid configuration detected at startup.
	KindConfig Kind = "config"

	// KindUnknown is reported for errors that carry no classification.
	KindUnknown Kind = "unknown"
)

// Error is a classified pipeline error with an optional HTTP status code
// and wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Code    int   // HTTP status code when one applies, else 0
	Err     error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Code)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a classified error with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Wrapf classifies an underlying error with a formatted message
func Wrapf(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithCode creates a classified error carrying an HTTP status code
func WithCode(kind Kind, code int, message string) *Error {
	return &Error{Kind: kind, Message: message, Code: code}
}

// KindOf extracts the classification from an error chain.
// Unclassified errors report KindUnknown; nil reports the empty kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether the error chain carries the given classification
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsRetryable reports whether the error should be retried with backoff.
// Only rate-limit rejections qualify; every other kind either can never
// succeed or should fail fast.
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransientRemote
}

// IsNotFound reports whether the error chain carries an HTTP 404
func IsNotFound(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code == 404
	}
	return false
}
