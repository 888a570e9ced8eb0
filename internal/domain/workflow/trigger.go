package workflow

// Trigger represents an action that can move an expense between statuses
type Trigger string

const (
	// TriggerEdit changes field values without changing status
	TriggerEdit Trigger = "EDIT"
	// TriggerSaveDraft stores an edited report as DRAFT
	TriggerSaveDraft       Trigger = "SAVE_DRAFT"
	TriggerSubmit          Trigger = "SUBMIT"
	TriggerRequestRevision Trigger = "REQUEST_REVISION"
	TriggerApprove         Trigger = "APPROVE"
	TriggerReject          Trigger = "REJECT"
	// TriggerDelete checks whether the record may be removed
	TriggerDelete Trigger = "DELETE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
