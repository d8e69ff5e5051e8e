// Package domain holds the quote entities and the errors shared by every layer.
//
// Errors here describe what went wrong with quotes, days and components, never
// how a transport reports it; adapters map them to HTTP statuses or log fields.
package domain

import (
	"errors"
	"fmt"
)

// Sentinels, matched with errors.Is.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrUnavailable = errors.New("unavailable")

	// ErrEmptyQuoteSet is a validation error: a daemon with no quotes cannot serve.
	ErrEmptyQuoteSet = fmt.Errorf("%w: quote set must contain at least one quote", ErrValidation)

	// ErrClockBeforeEpoch means the day index is undefined for the current instant.
	ErrClockBeforeEpoch = errors.New("clock is before the unix epoch")
)

// NotFoundError names a missing item, e.g. an out-of-range quote index.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return e.Kind + " not found"
	}

	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError returns a *NotFoundError.
func NewNotFoundError(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}

// ValidationError reports a rejected field. Value, when set, is the offending input.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}

	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError returns a *ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithValue returns a *ValidationError carrying the rejected value.
func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// InvalidQuoteError locates the quote that failed validation inside a set.
type InvalidQuoteError struct {
	Index int
	Err   error
}

func (e *InvalidQuoteError) Error() string {
	return fmt.Sprintf("quote %d: %v", e.Index, e.Err)
}

func (e *InvalidQuoteError) Unwrap() error { return e.Err }

// UnavailableError reports a component that cannot serve right now,
// such as an unbound listener or a vanished quotes file.
type UnavailableError struct {
	Component string
	Reason    string
}

func (e *UnavailableError) Error() string {
	if e.Reason == "" {
		return e.Component + " unavailable"
	}

	return fmt.Sprintf("%s unavailable: %s", e.Component, e.Reason)
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

// NewUnavailableError returns an *UnavailableError.
func NewUnavailableError(component, reason string) error {
	return &UnavailableError{Component: component, Reason: reason}
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err wraps ErrValidation.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsUnavailable reports whether err wraps ErrUnavailable.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }
