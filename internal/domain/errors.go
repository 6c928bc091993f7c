package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Builder validation errors
	ErrMsgValidation        = "invalid recipe"
	ErrMsgInvalidID         = "invalid recipe id"
	ErrMsgInvalidResult     = "invalid result item"
	ErrMsgInvalidPattern    = "invalid pattern"
	ErrMsgInvalidIngredient = "invalid ingredient"
	ErrMsgReservedSymbol    = "reserved pattern symbol"
	ErrMsgInvalidAmount     = "invalid ingredient amount"
	ErrMsgInvalidLimit      = "invalid craft limit"
	ErrMsgReservedField     = "reserved custom field"
	ErrMsgMissingIngredient = "missing ingredient mapping"

	// Registry errors
	ErrMsgDuplicateID    = "recipe id already registered"
	ErrMsgRecipeNotFound = "recipe not found"

	// Storage errors
	ErrMsgPersistence = "persistence failure"

	// Service errors
	ErrMsgServiceClosed = "recipe service closed"
	ErrMsgPlayerOffline = "player is offline"

	// Input errors
	ErrMsgInvalidInput = "invalid input"
)

// Common domain errors
// These errors should be used consistently across all layers of the application.
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	// ErrValidation is the category every builder failure belongs to
	ErrValidation = errors.New(ErrMsgValidation)

	ErrInvalidID         = errors.New(ErrMsgInvalidID)
	ErrInvalidResult     = errors.New(ErrMsgInvalidResult)
	ErrInvalidPattern    = errors.New(ErrMsgInvalidPattern)
	ErrInvalidIngredient = errors.New(ErrMsgInvalidIngredient)
	ErrReservedSymbol    = errors.New(ErrMsgReservedSymbol)
	ErrInvalidAmount     = errors.New(ErrMsgInvalidAmount)
	ErrInvalidLimit      = errors.New(ErrMsgInvalidLimit)
	ErrReservedField     = errors.New(ErrMsgReservedField)
	ErrMissingIngredient = errors.New(ErrMsgMissingIngredient)

	// Registry errors
	ErrDuplicateID    = errors.New(ErrMsgDuplicateID)
	ErrRecipeNotFound = errors.New(ErrMsgRecipeNotFound)

	// Storage errors
	ErrPersistence = errors.New(ErrMsgPersistence)

	// Service errors
	ErrServiceClosed = errors.New(ErrMsgServiceClosed)
	ErrPlayerOffline = errors.New(ErrMsgPlayerOffline)

	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)

// ValidationError is a builder failure. errors.Is matches both the specific
// sentinel in Err and ErrValidation.
type ValidationError struct {
	Err error
	Msg string
}

// NewValidationError wraps sentinel with a detail message
func NewValidationError(sentinel error, msg string) *ValidationError {
	return &ValidationError{Err: sentinel, Msg: msg}
}

func (e *ValidationError) Error() string {
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
