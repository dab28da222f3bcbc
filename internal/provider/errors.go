package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/nekogravitycat/trip-orchestrator/internal/candidate"
)

// ErrorKind is the only detail the orchestrator inspects on a provider failure.
type ErrorKind string

const (
	KindTimeout         ErrorKind = "timeout"
	KindRateLimited     ErrorKind = "rate_limited"
	KindInvalidResponse ErrorKind = "invalid_response"
	KindUnavailable     ErrorKind = "unavailable"
)

type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provider %s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Errorf builds a ProviderError with a formatted cause.
func Errorf(provider string, kind ErrorKind, format string, args ...any) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Classify maps any error returned by a provider call into a ProviderError.
// Existing ProviderErrors are returned unchanged; deadlines become timeouts;
// everything else is unavailable.
func Classify(provider string, err error) *ProviderError {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Provider: provider, Kind: KindTimeout, Err: err}
	}
	return &ProviderError{Provider: provider, Kind: KindUnavailable, Err: err}
}

// KindOf returns the ErrorKind of err, classifying it if needed.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	return Classify("", err).Kind
}

func errNoReserver(kind candidate.Kind) error {
	return fmt.Errorf("no reserver registered for %s", kind)
}
