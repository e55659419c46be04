// Package errs defines the error taxonomy for the delegated-access core.
// Every downstream failure (OAuth exchange, token refresh, resource call)
// is mapped to exactly one Kind before it crosses a package boundary.
package errs

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failure for callers that need to decide on retry,
// re-authentication, or user messaging.
type Kind string

const (
	// KindInvalidState means the callback state token was unknown, already
	// consumed, or expired.
	KindInvalidState Kind = "invalid_state"
	// KindExchangeFailed means the authorization code could not be exchanged
	// for tokens.
	KindExchangeFailed Kind = "exchange_failed"
	// KindUnauthenticated means no credentials exist for the user.
	KindUnauthenticated Kind = "unauthenticated"
	// KindReauthRequired means the stored credentials were irrecoverably
	// rejected and have been deleted; the user must authorize again.
	KindReauthRequired Kind = "reauth_required"
	// KindRateLimited means the provider throttled the call. RetryAfter
	// carries the provider's reset hint when one was given.
	KindRateLimited Kind = "rate_limited"
	// KindBadRequest means the provider rejected the call as malformed.
	KindBadRequest Kind = "bad_request"
	// KindTransient means a network failure, timeout, or provider 5xx; the
	// caller may retry.
	KindTransient Kind = "transient"
	// KindInternal is a failure inside this service.
	KindInternal Kind = "internal"
)

// Error is the only error type this service surfaces.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// RateLimited returns a rate-limit error carrying the provider's reset
// hint. A zero retryAfter means no hint was supplied.
func RateLimited(retryAfter time.Duration) *Error {
	return &Error{
		Kind:       KindRateLimited,
		Message:    "provider rate limit exceeded",
		RetryAfter: retryAfter,
	}
}

// KindOf extracts the Kind from an error chain. Unclassified errors report
// KindInternal so nothing leaves the core without a classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
