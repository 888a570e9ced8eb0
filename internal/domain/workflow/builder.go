package workflow

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc decides whether a configured transition may be taken
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder collects per-state transition rules and builds machines from them
type StateMachineBuilder interface {
	// Configure returns the configuration for the given state
	Configure(state State) StateConfiguration

	// Build creates a machine positioned at the given state
	Build(initialState State) StateMachine
}

// StateConfiguration configures the transitions leaving one state
type StateConfiguration interface {
	// Permit allows a trigger to move to the target state
	Permit(trigger Trigger, toState State) StateConfiguration

	// PermitIf allows a trigger to move to the target state when the guard passes
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration

	// PermitReentry allows a trigger that leaves the state unchanged
	PermitReentry(trigger Trigger) StateConfiguration
}

type transition struct {
	toState State
	guard   GuardFunc
}

type stateConfig struct {
	fromState   State
	transitions map[Trigger][]transition
}

type stateMachineBuilder struct {
	configurations map[State]*stateConfig
}

type stateMachine struct {
	currentState   State
	configurations map[State]*stateConfig
}

// NewBuilder creates an empty state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		configurations: make(map[State]*stateConfig),
	}
}

func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{
			fromState:   state,
			transitions: make(map[Trigger][]transition),
		}
		b.configurations[state] = config
	}

	return config
}

// Build copies the configured rules so later Configure calls do not leak into built machines
func (b *stateMachineBuilder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	configs := make(map[State]*stateConfig, len(b.configurations))
	for state, config := range b.configurations {
		transitions := make(map[Trigger][]transition, len(config.transitions))
		for trigger, ts := range config.transitions {
			transitions[trigger] = append([]transition(nil), ts...)
		}
		configs[state] = &stateConfig{fromState: state, transitions: transitions}
	}

	return &stateMachine{
		currentState:   initialState,
		configurations: configs,
	}
}

func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

func (c *stateConfig) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}

	c.transitions[trigger] = append(c.transitions[trigger], transition{
		toState: toState,
		guard:   guard,
	})

	return c
}

func (c *stateConfig) PermitReentry(trigger Trigger) StateConfiguration {
	return c.PermitIf(trigger, c.fromState, nil)
}

func (m *stateMachine) State() State {
	return m.currentState
}

func (m *stateMachine) CanFire(trigger Trigger) bool {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return false
	}
	// guards need a context, so only the presence of a rule is checked here
	return len(config.transitions[trigger]) > 0
}

func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return fmt.Errorf("%w: cannot fire %s from %s (no configuration)", ErrInvalidTransition, trigger, m.currentState)
	}

	transitions := config.transitions[trigger]
	if len(transitions) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.currentState)
	}

	for _, t := range transitions {
		if t.guard == nil || t.guard(ctx) {
			m.currentState = t.toState
			return nil
		}
	}

	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.currentState)
}

func (m *stateMachine) PermittedTriggers() []Trigger {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.transitions))
	for trigger := range config.transitions {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })

	return triggers
}
