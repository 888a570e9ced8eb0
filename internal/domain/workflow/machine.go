package workflow

import "context"

// StateMachine tracks the current status of one expense and validates triggers against it
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger has at least one transition from the current state
	CanFire(trigger Trigger) bool

	// Fire executes the trigger, moving to the target state if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns the triggers configured for the current state, sorted
	PermittedTriggers() []Trigger
}
