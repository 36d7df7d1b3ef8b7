package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnitUnavailable   = errors.New("unit unavailable")
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrLicenseMissing    = errors.New("driver's license not on file")
)

type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Reason)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type TransitionError struct {
	ReservationID string
	From          ReservationStatus
	Action        Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s reservation %s in status %s", e.Action, e.ReservationID, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// Store names a dependent store that a lifecycle transition propagates to.
type Store string

const (
	StoreAvailability Store = "availability"
	StoreLedger       Store = "ledger"
	StorePayment      Store = "payment_record"
	StoreNotification Store = "notification"
)

// PropagationFailure means the reservation write succeeded but a dependent
// store write did not. The reservation status stays authoritative.
type PropagationFailure struct {
	Store         Store
	ReservationID string
	Err           error
}

func (e *PropagationFailure) Error() string {
	return fmt.Sprintf("propagation to %s failed for reservation %s: %v", e.Store, e.ReservationID, e.Err)
}

func (e *PropagationFailure) Unwrap() error {
	return e.Err
}
