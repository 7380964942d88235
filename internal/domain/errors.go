// Package domain holds the lesson catalogue types and the errors its
// operations fail with. Adapters map these errors to status codes; nothing in
// here knows about HTTP or SQL.
package domain

import (
	"errors"
	"fmt"
)

// Sentinels matched with errors.Is. Every typed error below unwraps to one.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	// ErrUnavailable means a dependency, in practice the database, did not answer.
	ErrUnavailable = errors.New("unavailable")
)

func IsNotFound(err error) bool    { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool    { return errors.Is(err, ErrConflict) }
func IsValidation(err error) bool  { return errors.Is(err, ErrValidation) }
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

// NotFoundError names the entity that was looked up. ID is empty for lookups
// that are not by key, such as "the latest lesson".
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}

	return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError is a clash with stored rows. Details carries the violated
// constraint when the store reports one.
type ConflictError struct {
	Entity  string
	Reason  string
	Details string
}

func NewConflictError(entity, reason string) error {
	return &ConflictError{Entity: entity, Reason: reason}
}

func NewConflictErrorWithDetails(entity, reason, details string) error {
	return &ConflictError{Entity: entity, Reason: reason, Details: details}
}

func (e *ConflictError) Error() string {
	msg := e.Entity + " conflict: " + e.Reason
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}

	return msg
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// ValidationError is a broken business rule on one field. Field may be empty
// when the rule spans the whole input.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}

	return "validation failed for " + e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UnavailableError names the dependency that could not be reached. Cause, when
// set, stays reachable through errors.Is and errors.As.
type UnavailableError struct {
	Service string
	Reason  string
	Cause   error
}

func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// WrapUnavailable uses the message of cause as the reason.
func WrapUnavailable(service string, cause error) error {
	return &UnavailableError{Service: service, Reason: cause.Error(), Cause: cause}
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("service %q unavailable", e.Service)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

func (e *UnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUnavailable}
	}

	return []error{ErrUnavailable, e.Cause}
}
