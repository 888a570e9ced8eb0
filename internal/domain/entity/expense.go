package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single expense report owned by one user
type Expense struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"owner_id"`
	Amount          decimal.Decimal `json:"amount"`
	Date            time.Time       `json:"date"`
	Vendor          *string         `json:"vendor,omitempty"`
	Description     *string         `json:"description,omitempty"`
	Category        *string         `json:"category,omitempty"`
	ReceiptImageRef *string         `json:"receipt_image_ref,omitempty"`
	Status          string          `json:"status"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	ApprovedBy      *string         `json:"approved_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DateString returns the expense date as YYYY-MM-DD
func (e *Expense) DateString() string {
	return e.Date.Format(DateLayout)
}

// ExpenseUpdate carries the owner-editable fields of an update; nil means "leave unchanged"
type ExpenseUpdate struct {
	Amount          *decimal.Decimal
	Date            *string
	Vendor          *string
	Description     *string
	Category        *string
	ReceiptImageRef *string
	Status          *string
}

// IsEmpty reports whether the update changes nothing
func (u ExpenseUpdate) IsEmpty() bool {
	return u.Amount == nil && u.Date == nil && u.Vendor == nil && u.Description == nil &&
		u.Category == nil && u.ReceiptImageRef == nil && u.Status == nil
}

// ExpenseWithOwner is the admin projection of an expense joined with its owner
type ExpenseWithOwner struct {
	Expense
	OwnerEmail string `json:"owner_email"`
	OwnerRole  string `json:"owner_role"`
}
