package vma

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable is returned when the configured path or stream cannot be read.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrInvalidKey is returned by Summarize for an unknown component name.
	ErrInvalidKey = errors.New("invalid key")
)

// SourceError wraps ErrSourceUnavailable with the offending source and cause.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	if e == nil {
		return ErrSourceUnavailable.Error()
	}
	if e.Source != "" {
		return fmt.Sprintf("%s: %s: %v", ErrSourceUnavailable, e.Source, e.Err)
	}
	return fmt.Sprintf("%s: %v", ErrSourceUnavailable, e.Err)
}

func (e *SourceError) Unwrap() []error { return []error{ErrSourceUnavailable, e.Err} }
