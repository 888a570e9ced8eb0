package workflow

// State represents a status in the expense lifecycle
type State string

const (
	StateDraft             State = "DRAFT"
	StateSubmitted         State = "SUBMITTED"
	StateRevisionRequested State = "REVISION_REQUESTED"
	StateApproved          State = "APPROVED"
	StateRejected          State = "REJECTED"
)

var validStates = map[State]bool{
	StateDraft:             true,
	StateSubmitted:         true,
	StateRevisionRequested: true,
	StateApproved:          true,
	StateRejected:          true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

// editableStates are the statuses in which the owner may still change field values
var editableStates = map[State]bool{
	StateDraft:             true,
	StateRevisionRequested: true,
}

// IsTerminal returns true if no status change can leave the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsEditable returns true if the owner may edit or resubmit in this state
func (s State) IsEditable() bool {
	return editableStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known expense status
func (s State) IsValid() bool {
	return validStates[s]
}

// ParseState converts a raw status value into a State
func ParseState(raw string) (State, error) {
	s := State(raw)
	if !s.IsValid() {
		return "", ErrInvalidState
	}
	return s, nil
}
