package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not permitted in the current state
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidState is returned when a status value is unknown
	ErrInvalidState = errors.New("invalid status")

	// ErrGuardFailed is returned when every guard for a trigger rejects it
	ErrGuardFailed = errors.New("guard condition failed")
)
