// Package services defines the business logic for user and gym registration
// and for route number allocation. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is the kind of every *ValidationError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrGymNotFound indicates that the requested gym does not exist.
	ErrGymNotFound = errors.New("gym not found")

	// ErrRouteNotFound indicates that the requested route does not exist.
	ErrRouteNotFound = errors.New("route not found")

	// ErrUnknownWall is returned when a route names a wall the gym does not have.
	ErrUnknownWall = errors.New("wall does not belong to gym")

	// ErrStoreUnavailable wraps any failure talking to the document store.
	ErrStoreUnavailable = errors.New("document store unavailable")

	// ErrContention is returned when route allocation could not commit after
	// retrying. Callers may retry later.
	ErrContention = errors.New("too much contention allocating route id")
)

// ValidationError describes the first rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalidInput) hold.
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
