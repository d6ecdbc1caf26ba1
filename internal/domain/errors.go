package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the download pipeline
type ErrorKind string

const (
	KindInvalidLocator    ErrorKind = "invalid_locator"
	KindEngineUnavailable ErrorKind = "engine_unavailable"
	KindResolutionFailed  ErrorKind = "resolution_failed"
	KindNoFormats         ErrorKind = "no_formats"
	KindNoSuitableFormat  ErrorKind = "no_suitable_format"
	KindTransferFailed    ErrorKind = "transfer_failed"
	KindPostProcessFailed ErrorKind = "postprocess_failed"
	KindUserStopped       ErrorKind = "user_stopped" // normal terminal outcome, not a failure
)

// Sentinels for errors.Is matching. They match any *Error of the same kind.
var (
	ErrInvalidLocator    = &Error{Kind: KindInvalidLocator}
	ErrEngineUnavailable = &Error{Kind: KindEngineUnavailable}
	ErrResolutionFailed  = &Error{Kind: KindResolutionFailed}
	ErrNoFormats         = &Error{Kind: KindNoFormats}
	ErrNoSuitableFormat  = &Error{Kind: KindNoSuitableFormat}
	ErrTransferFailed    = &Error{Kind: KindTransferFailed}
	ErrPostProcessFailed = &Error{Kind: KindPostProcessFailed}
	ErrUserStopped       = &Error{Kind: KindUserStopped}
)

// ErrRunActive is returned when a run is started while another one is in flight
var ErrRunActive = errors.New("a run is already active, stop it first")

// Error is a classified pipeline error carrying a human-readable reason
type Error struct {
	Kind   ErrorKind
	Item   string // locator or item id the error is scoped to, empty for run-level errors
	Reason string
	Err    error
}

// NewError creates a classified error
func NewError(kind ErrorKind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// Error implements error
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Item != "" {
		msg += " (" + e.Item + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality so sentinels match any error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// WithItem returns a copy of the error scoped to an item
func (e *Error) WithItem(item string) *Error {
	cp := *e
	cp.Item = item
	return &cp
}

// ReasonText returns the human readable reason, falling back to the cause
func (e *Error) ReasonText() string {
	switch {
	case e.Reason != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	case e.Reason != "":
		return e.Reason
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

// KindOf extracts the error kind, empty when err is not classified
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// AsError returns err as *Error, classifying unknown errors with the fallback kind
func AsError(err error, fallback ErrorKind) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: fallback, Err: err}
}
