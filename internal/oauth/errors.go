package oauth

import (
	"errors"
	"fmt"
)

// FlowError is a typed failure of a single sign-in attempt. The main
// application session is never touched by a flow error.
type FlowError struct {
	// Type is a stable machine-readable error category.
	Type string
	// Message is a human-readable description.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns a string representation of the flow error.
func (e *FlowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *FlowError) Unwrap() error {
	return e.Cause
}

// Flow error categories.
var (
	// ErrProviderNotConfigured means the provider's client ID is missing from
	// configuration. Nothing is opened when this fires.
	ErrProviderNotConfigured = &FlowError{
		Type:    "config_missing",
		Message: "provider client ID is not configured",
	}

	// ErrPopupBlocked means no secondary browsing context could be opened.
	ErrPopupBlocked = &FlowError{
		Type:    "popup_blocked",
		Message: "could not open a browser window; please allow it and try again",
	}

	// ErrPortInUse means the callback receiver's port is taken.
	ErrPortInUse = &FlowError{
		Type:    "port_in_use",
		Message: "OAuth callback port is already in use",
	}

	// ErrCancelled means the secondary context closed before any message
	// arrived.
	ErrCancelled = &FlowError{
		Type:    "cancelled",
		Message: "login cancelled",
	}

	// ErrCallbackTimeout means the configured wait deadline passed with no
	// terminal event.
	ErrCallbackTimeout = &FlowError{
		Type:    "callback_timeout",
		Message: "timed out waiting for the sign-in to complete",
	}
)

// flowError derives a new error from a category with a cause attached.
func flowError(base *FlowError, cause error) *FlowError {
	return &FlowError{Type: base.Type, Message: base.Message, Cause: cause}
}

// providerError wraps an error parameter reported by the provider itself
// (for example access_denied from the consent screen).
func providerError(reason string) *FlowError {
	return &FlowError{Type: "provider_error", Message: reason}
}

// IsFlowError reports whether err is a FlowError of the given category.
func IsFlowError(err error, base *FlowError) bool {
	var fe *FlowError
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Type == base.Type
}
