package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// UpstreamError is a provider-side failure: an error status or a response
// the adapter could not parse. Message carries the provider's own error
// text where the provider supplied one.
type UpstreamError struct {
	Provider ProviderKind
	Status   int
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: upstream returned status %d", e.Provider, e.Status)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}

var ErrUpstream = errors.New("upstream provider error")
