package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData means the tape for the symbol holds no trades at all.
	ErrNoData = errors.New("no data")
	// ErrNoDataForRange means trades exist but none fall inside the requested window.
	ErrNoDataForRange = errors.New("no data for range")
	// ErrUpstream wraps failures of the trade feed that left the request without an answer.
	ErrUpstream = errors.New("trade feed unavailable")
)

// ValidationError reports a bad or missing query argument.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsNoData reports whether err is one of the benign "nothing to aggregate" outcomes.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData) || errors.Is(err, ErrNoDataForRange)
}
