// Package apperr defines the error taxonomy shared across Lumen packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateSource = errors.New("source already registered")
	ErrBuiltInSource   = errors.New("built-in source cannot be removed")
	ErrSourceNotFound  = errors.New("source not found")
)

// FetchKind classifies a failed remote listing fetch so callers can route
// the user: corrective input for NotFound, credential entry for
// Unauthorized/RateLimited, plain retry for Transient.
type FetchKind int

const (
	FetchTransient FetchKind = iota
	FetchNotFound
	FetchUnauthorized
	FetchRateLimited
)

// String returns a short label for the kind.
func (k FetchKind) String() string {
	switch k {
	case FetchNotFound:
		return "not_found"
	case FetchUnauthorized:
		return "unauthorized"
	case FetchRateLimited:
		return "rate_limited"
	default:
		return "transient"
	}
}

// FetchError reports a failed remote listing fetch with enough detail to
// distinguish "not found" from auth/quota problems from everything else.
type FetchError struct {
	Kind   FetchKind
	Status int
	Reason string
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("fetch %s (HTTP %d): %s", e.Kind, e.Status, e.Reason)
	}
	return fmt.Sprintf("fetch %s: %s", e.Kind, e.Reason)
}

// IsFetchKind reports whether err is a FetchError of the given kind.
func IsFetchKind(err error, kind FetchKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}
