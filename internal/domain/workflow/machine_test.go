package workflow

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type guardKey struct{}

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StateSubmitted, false},
		{StateRevisionRequested, false},
		{StateApproved, true},
		{StateRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsEditable(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, true},
		{StateRevisionRequested, true},
		{StateSubmitted, false},
		{StateApproved, false},
		{StateRejected, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsEditable(); got != tt.expected {
				t.Errorf("State.IsEditable() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseState(t *testing.T) {
	s, err := ParseState("REVISION_REQUESTED")
	if err != nil {
		t.Fatalf("ParseState() error = %v", err)
	}
	if s != StateRevisionRequested {
		t.Errorf("ParseState() = %v, want %v", s, StateRevisionRequested)
	}

	for _, raw := range []string{"", "draft", "PENDING"} {
		if _, err := ParseState(raw); !errors.Is(err, ErrInvalidState) {
			t.Errorf("ParseState(%q) error = %v, want %v", raw, err, ErrInvalidState)
		}
	}
}

func TestBuilder_ConfigureReturnsSameConfig(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(StateDraft)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}
	if config2 := builder.Configure(StateDraft); config != config2 {
		t.Error("Configure() should return same config for same state")
	}
}

func TestBuilder_PanicsOnInvalidStates(t *testing.T) {
	cases := map[string]func(){
		"configure": func() { NewBuilder().Configure(State("INVALID")) },
		"build":     func() { NewBuilder().Build(State("INVALID")) },
		"permit":    func() { NewBuilder().Configure(StateDraft).Permit(TriggerSubmit, State("INVALID")) },
	}

	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("%s should panic on invalid state", name)
				}
			}()
			fn()
		})
	}
}

func TestStateConfiguration_PermitReentry(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).PermitReentry(TriggerEdit)

	machine := builder.Build(StateDraft)
	if err := machine.Fire(context.Background(), TriggerEdit); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine.State() != StateDraft {
		t.Errorf("State after reentry = %v, want %v", machine.State(), StateDraft)
	}
}

func TestStateConfiguration_PermitIf_MultipleTransitions(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSubmitted).
		PermitIf(TriggerApprove, StateApproved, func(ctx context.Context) bool {
			return ctx.Value(guardKey{}).(bool)
		}).
		PermitIf(TriggerApprove, StateRejected, func(ctx context.Context) bool {
			return !ctx.Value(guardKey{}).(bool)
		})

	m1 := builder.Build(StateSubmitted)
	if err := m1.Fire(context.WithValue(context.Background(), guardKey{}, true), TriggerApprove); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if m1.State() != StateApproved {
		t.Errorf("State = %v, want %v", m1.State(), StateApproved)
	}

	m2 := builder.Build(StateSubmitted)
	if err := m2.Fire(context.WithValue(context.Background(), guardKey{}, false), TriggerApprove); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if m2.State() != StateRejected {
		t.Errorf("State = %v, want %v", m2.State(), StateRejected)
	}
}

func TestStateConfiguration_PermitIf_GuardFails(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		PermitIf(TriggerSubmit, StateSubmitted, func(ctx context.Context) bool { return false })

	machine := builder.Build(StateDraft)
	err := machine.Fire(context.Background(), TriggerSubmit)
	if !errors.Is(err, ErrGuardFailed) {
		t.Fatalf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if machine.State() != StateDraft {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateDraft, machine.State())
	}
}

func TestStateMachine_Fire_NoConfiguration(t *testing.T) {
	machine := NewBuilder().Build(StateDraft)

	if err := machine.Fire(context.Background(), TriggerSubmit); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
	if got := machine.PermittedTriggers(); len(got) != 0 {
		t.Errorf("PermittedTriggers() = %v, want none", got)
	}
}

func TestStateMachine_Immutability(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).Permit(TriggerSubmit, StateSubmitted)

	machine := builder.Build(StateDraft)

	builder.Configure(StateDraft).Permit(TriggerApprove, StateApproved)

	if machine.CanFire(TriggerApprove) {
		t.Error("machine built earlier should not see later configuration")
	}
}

func TestExpenseMachine_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		trigger Trigger
		want    State
		wantErr bool
	}{
		{"submit draft", StateDraft, TriggerSubmit, StateSubmitted, false},
		{"resubmit after revision", StateRevisionRequested, TriggerSubmit, StateSubmitted, false},
		{"submit twice", StateSubmitted, TriggerSubmit, StateSubmitted, true},
		{"edit draft", StateDraft, TriggerEdit, StateDraft, false},
		{"edit revision requested", StateRevisionRequested, TriggerEdit, StateRevisionRequested, false},
		{"edit submitted", StateSubmitted, TriggerEdit, StateSubmitted, true},
		{"save revision as draft", StateRevisionRequested, TriggerSaveDraft, StateDraft, false},
		{"request revision", StateSubmitted, TriggerRequestRevision, StateRevisionRequested, false},
		{"request revision on draft", StateDraft, TriggerRequestRevision, StateDraft, true},
		{"approve", StateSubmitted, TriggerApprove, StateApproved, false},
		{"approve draft", StateDraft, TriggerApprove, StateDraft, true},
		{"reject", StateSubmitted, TriggerReject, StateRejected, false},
		{"delete draft", StateDraft, TriggerDelete, StateDraft, false},
		{"delete rejected", StateRejected, TriggerDelete, StateRejected, false},
		{"delete revision requested", StateRevisionRequested, TriggerDelete, StateRevisionRequested, false},
		{"delete submitted", StateSubmitted, TriggerDelete, StateSubmitted, true},
		{"delete approved", StateApproved, TriggerDelete, StateApproved, true},
		{"revise approved", StateApproved, TriggerRequestRevision, StateApproved, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewExpenseMachine(tt.from)
			err := m.Fire(context.Background(), tt.trigger)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("Fire(%s) error = %v, want %v", tt.trigger, err, ErrInvalidTransition)
				}
			} else if err != nil {
				t.Errorf("Fire(%s) failed: %v", tt.trigger, err)
			}
			if m.State() != tt.want {
				t.Errorf("State = %v, want %v", m.State(), tt.want)
			}
		})
	}
}

func TestExpenseMachine_PermittedTriggers(t *testing.T) {
	got := NewExpenseMachine(StateSubmitted).PermittedTriggers()
	want := []Trigger{TriggerApprove, TriggerReject, TriggerRequestRevision}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PermittedTriggers() = %v, want %v", got, want)
	}

	if got := NewExpenseMachine(StateApproved).PermittedTriggers(); len(got) != 0 {
		t.Errorf("approved expense should have no triggers, got %v", got)
	}
}
