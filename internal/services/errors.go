package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies chat failures for logging. It is never sent to clients.
type ErrorKind string

const (
	ErrorInvalidInput        ErrorKind = "INVALID_INPUT"
	ErrorUpstreamUnavailable ErrorKind = "UPSTREAM_UNAVAILABLE"
	ErrorUpstreamRejected    ErrorKind = "UPSTREAM_REJECTED"
	ErrorInternal            ErrorKind = "INTERNAL_ERROR"
)

type ChatError struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *ChatError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("chat: %s (%s)", e.Kind, e.Reason)
	}
	return fmt.Sprintf("chat: %s (%s): %v", e.Kind, e.Reason, e.Err)
}

func (e *ChatError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newChatError(kind ErrorKind, reason string, err error) *ChatError {
	return &ChatError{Kind: kind, Reason: reason, Err: err}
}

// InvalidInput builds an ErrorInvalidInput error for request validation
// failures detected outside this package.
func InvalidInput(reason string, err error) *ChatError {
	return newChatError(ErrorInvalidInput, reason, err)
}

// KindOf reports the kind of err. Errors that are not a *ChatError are internal.
func KindOf(err error) ErrorKind {
	var chatErr *ChatError
	if errors.As(err, &chatErr) {
		return chatErr.Kind
	}
	return ErrorInternal
}

// ReasonOf reports the short machine reason attached to err, if any.
func ReasonOf(err error) string {
	var chatErr *ChatError
	if errors.As(err, &chatErr) {
		return chatErr.Reason
	}
	return ""
}
