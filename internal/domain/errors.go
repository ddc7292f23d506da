package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy shared across the engine. Callers classify failures with
// errors.Is; layers add context with fmt.Errorf("...: %w", err).
var (
	// ErrConfiguration signals bad or missing provider options. Fatal to
	// the cycle, not to the process.
	ErrConfiguration = errors.New("invalid provider configuration")

	// ErrUnknownProvider signals a provider name with no registration.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrRegistrationConflict signals a duplicate provider registration.
	ErrRegistrationConflict = errors.New("provider already registered")

	// ErrUnsupportedOperation signals a request for a capability the
	// provider does not declare.
	ErrUnsupportedOperation = errors.New("operation not supported by provider")

	// ErrAuthentication signals a provider-side auth failure.
	ErrAuthentication = errors.New("provider authentication failed")

	// ErrRateLimited signals a provider-side rate limit. Retry handling is
	// the caller's concern.
	ErrRateLimited = errors.New("provider rate limit exceeded")

	// ErrProviderUnavailable signals provider maintenance or outage.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrNormalization signals a malformed item. Scoped to one item; the
	// runner's policy decides between skip-and-count and abort.
	ErrNormalization = errors.New("item normalization failed")

	// ErrTransactionFailure signals that a batch write was rolled back.
	ErrTransactionFailure = errors.New("batch transaction failed")

	// ErrCursorRegression signals an advance ordered before the current
	// position without the corrective override.
	ErrCursorRegression = errors.New("cursor regression")

	// ErrInvalidAfterKey signals an undecodable or tampered pagination
	// token. The caller must restart pagination without a token.
	ErrInvalidAfterKey = errors.New("invalid pagination token")

	// ErrUnknownEntity signals a query against an unsupported entity name.
	ErrUnknownEntity = errors.New("unknown query entity")
)

// RateLimitError carries the provider's retry hints alongside
// ErrRateLimited.
type RateLimitError struct {
	RetryAfter time.Duration
	ResetAt    time.Time
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider rate limit exceeded, retry after %s", e.RetryAfter)
	}
	return "provider rate limit exceeded"
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
