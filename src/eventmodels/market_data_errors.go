package eventmodels

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredential means no access token is loaded yet. Expected outside
	// market hours and before first admin setup; callers degrade to cache.
	ErrNoCredential = errors.New("no access token loaded")

	// ErrContractNotFound means the requested contract is absent from the
	// current instrument catalog. A normal outcome, not a fault.
	ErrContractNotFound = errors.New("contract not found in instrument catalog")

	// ErrNoCachedQuote means a live fetch failed and there is no previous
	// quote to fall back on.
	ErrNoCachedQuote = errors.New("no cached quote available")
)

// UpstreamError carries the provider's error envelope for a failed call.
type UpstreamError struct {
	Op         string
	StatusCode int
	ErrorType  string
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.ErrorType != "" {
		return fmt.Sprintf("%s: upstream returned %d (%s): %s", e.Op, e.StatusCode, e.ErrorType, e.Message)
	}

	return fmt.Sprintf("%s: upstream returned %d: %s", e.Op, e.StatusCode, e.Message)
}

// CredentialRejected reports whether the provider refused the access token,
// as opposed to a transient transport or server failure.
func (e *UpstreamError) CredentialRejected() bool {
	return e.ErrorType == "TokenException" || e.StatusCode == 403
}
