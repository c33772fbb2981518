package domain

import (
	"errors"
	"fmt"

	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidTransition matches every *InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrConcurrencyConflict is returned when another writer saved the booking first.
	ErrConcurrencyConflict = sharedDomain.ErrConcurrentModification
	// ErrBookingNotFound is returned for unknown booking ids.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrForbidden is returned when the actor does not own its role on the booking.
	ErrForbidden = errors.New("actor is not a party to this booking")
)

// ValidationError reports malformed input.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError formats a ValidationError.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InvalidTransitionError reports an action that is not legal from the current status.
type InvalidTransitionError struct {
	From   Status
	Action Action
	Role   Role
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a booking in %s as %s", e.Action, e.From, e.Role)
}

// Is lets errors.Is(err, ErrInvalidTransition) match.
func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }
