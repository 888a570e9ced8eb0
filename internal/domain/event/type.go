package event

// Type identifies the type of domain event
type Type string

const (
	TypeExpenseCreated           Type = "expense.created"
	TypeExpenseUpdated           Type = "expense.updated"
	TypeExpenseSubmitted         Type = "expense.submitted"
	TypeExpenseRevisionRequested Type = "expense.revision_requested"
	TypeExpenseApproved          Type = "expense.approved"
	TypeExpenseRejected          Type = "expense.rejected"
	TypeExpenseDeleted           Type = "expense.deleted"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeExpenseCreated,
		TypeExpenseUpdated,
		TypeExpenseSubmitted,
		TypeExpenseRevisionRequested,
		TypeExpenseApproved,
		TypeExpenseRejected,
		TypeExpenseDeleted:
		return true
	default:
		return false
	}
}

// IsReviewOutcome reports whether the event is a reviewer decision on a submitted expense
func (t Type) IsReviewOutcome() bool {
	return t == TypeExpenseRevisionRequested || t == TypeExpenseApproved || t == TypeExpenseRejected
}
