package workflow

// NewExpenseBuilder returns a builder configured with the expense report lifecycle.
//
//	DRAFT ──SUBMIT──▶ SUBMITTED ──APPROVE──▶ APPROVED
//	  ▲                 │    └────REJECT───▶ REJECTED
//	  │            REQUEST_REVISION
//	SAVE_DRAFT          ▼
//	  └──────── REVISION_REQUESTED ──SUBMIT──▶ SUBMITTED
func NewExpenseBuilder() StateMachineBuilder {
	b := NewBuilder()

	b.Configure(StateDraft).
		PermitReentry(TriggerEdit).
		PermitReentry(TriggerSaveDraft).
		PermitReentry(TriggerDelete).
		Permit(TriggerSubmit, StateSubmitted)

	b.Configure(StateRevisionRequested).
		PermitReentry(TriggerEdit).
		PermitReentry(TriggerDelete).
		Permit(TriggerSaveDraft, StateDraft).
		Permit(TriggerSubmit, StateSubmitted)

	b.Configure(StateSubmitted).
		Permit(TriggerRequestRevision, StateRevisionRequested).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	b.Configure(StateRejected).
		PermitReentry(TriggerDelete)

	// APPROVED has no outgoing rules
	b.Configure(StateApproved)

	return b
}

var expenseBuilder = NewExpenseBuilder()

// NewExpenseMachine builds a lifecycle machine positioned at the given status
func NewExpenseMachine(current State) StateMachine {
	return expenseBuilder.Build(current)
}
