package entity

// Expense status constants
const (
	StatusDraft             = "DRAFT"
	StatusSubmitted         = "SUBMITTED"
	StatusRevisionRequested = "REVISION_REQUESTED"
	StatusApproved          = "APPROVED"
	StatusRejected          = "REJECTED"
)

// User role constants
const (
	RoleEmployee = "EMPLOYEE"
	RoleAdmin    = "ADMIN"
)

// History action constants, one per recorded lifecycle event
const (
	ActionCreated           = "CREATED"
	ActionUpdated           = "UPDATED"
	ActionSubmitted         = "SUBMITTED"
	ActionRevisionRequested = "REVISION_REQUESTED"
	ActionApproved          = "APPROVED"
	ActionRejected          = "REJECTED"
	ActionDeleted           = "DELETED"
)

// DateLayout is the calendar date encoding used for expense dates
const DateLayout = "2006-01-02"

// IsValidRole reports whether role is a known role
func IsValidRole(role string) bool {
	return role == RoleEmployee || role == RoleAdmin
}
