package http

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-desk/internal/application/service"
	"github.com/garyjia/expense-desk/internal/domain/entity"
	"github.com/garyjia/expense-desk/pkg/utils"
)

// Free-text field limits, in runes
const (
	maxVendorLength      = 200
	maxDescriptionLength = 2000
	maxCategoryLength    = 100
	maxReasonLength      = 2000
)

// ExpenseResponse is the wire form of an expense
type ExpenseResponse struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	Amount          json.Number `json:"amount"`
	Date            string      `json:"date"`
	Vendor          *string     `json:"vendor"`
	Description     *string     `json:"description"`
	Category        *string     `json:"category"`
	ReceiptImageRef *string     `json:"receiptImageRef"`
	Status          string      `json:"status"`
	RejectionReason *string     `json:"rejectionReason"`
	ApprovedAt      *time.Time  `json:"approvedAt"`
	ApprovedBy      *string     `json:"approvedBy"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// ExpenseWithOwnerResponse adds the owner projection used by the admin list
type ExpenseWithOwnerResponse struct {
	ExpenseResponse
	User OwnerResponse `json:"user"`
}

// OwnerResponse identifies the owner of an expense
type OwnerResponse struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserResponse is the wire form of a user
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResponse is returned by POST /auth/login
type LoginResponse struct {
	UserResponse
	AccessToken string `json:"accessToken"`
}

// HistoryResponse is one audit trail entry
type HistoryResponse struct {
	ID             int64     `json:"id"`
	ExpenseID      string    `json:"expenseId"`
	ActorID        string    `json:"actorId"`
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Action         string    `json:"action"`
	Note           string    `json:"note,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email string `json:"email" binding:"required"`
	Role  string `json:"role"`
}

// CreateExpenseRequest is the JSON body of POST /expenses
type CreateExpenseRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	Date            string          `json:"date"`
	Vendor          *string         `json:"vendor"`
	Description     *string         `json:"description"`
	Category        *string         `json:"category"`
	ReceiptImageRef *string         `json:"receiptImageRef"`
	Status          string          `json:"status"`
}

// UpdateExpenseRequest is the body of PATCH /expenses/:id; absent fields stay unchanged
type UpdateExpenseRequest struct {
	Amount          *decimal.Decimal `json:"amount"`
	Date            *string          `json:"date"`
	Vendor          *string          `json:"vendor"`
	Description     *string          `json:"description"`
	Category        *string          `json:"category"`
	ReceiptImageRef *string          `json:"receiptImageRef"`
	Status          *string          `json:"status"`
}

// ReasonRequest carries the reviewer's reason for revision or rejection
type ReasonRequest struct {
	Reason string `json:"reason"`
}

func toExpenseResponse(e *entity.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:              e.ID,
		UserID:          e.OwnerID,
		Amount:          json.Number(e.Amount.StringFixed(2)),
		Date:            e.DateString(),
		Vendor:          e.Vendor,
		Description:     e.Description,
		Category:        e.Category,
		ReceiptImageRef: e.ReceiptImageRef,
		Status:          e.Status,
		RejectionReason: e.RejectionReason,
		ApprovedAt:      e.ApprovedAt,
		ApprovedBy:      e.ApprovedBy,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func toExpenseResponses(expenses []*entity.Expense) []ExpenseResponse {
	out := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	return out
}

func toExpenseWithOwnerResponses(rows []*entity.ExpenseWithOwner) []ExpenseWithOwnerResponse {
	out := make([]ExpenseWithOwnerResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, ExpenseWithOwnerResponse{
			ExpenseResponse: toExpenseResponse(&r.Expense),
			User:            OwnerResponse{Email: r.OwnerEmail, Role: r.OwnerRole},
		})
	}
	return out
}

func toUserResponse(u *entity.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Role: u.Role}
}

func toHistoryResponses(entries []*entity.ExpenseHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(entries))
	for _, h := range entries {
		out = append(out, HistoryResponse{
			ID:             h.ID,
			ExpenseID:      h.ExpenseID,
			ActorID:        h.ActorID,
			PreviousStatus: h.PreviousStatus,
			NewStatus:      h.NewStatus,
			Action:         h.Action,
			Note:           h.Note,
			Timestamp:      h.Timestamp,
		})
	}
	return out
}

// clean sanitizes an optional free-text field and rejects it when longer than max runes
func clean(field string, s *string, max int) (*string, error) {
	s = utils.SanitizeOptional(s)
	if s != nil && utils.ExceedsLength(*s, max) {
		return nil, tooLong(field, max)
	}
	return s, nil
}

func tooLong(field string, max int) error {
	return fmt.Errorf("%w: %s exceeds %d characters", service.ErrTextTooLong, field, max)
}

func (r CreateExpenseRequest) sanitized() (CreateExpenseRequest, error) {
	var err error
	if r.Vendor, err = clean("vendor", r.Vendor, maxVendorLength); err != nil {
		return r, err
	}
	if r.Description, err = clean("description", r.Description, maxDescriptionLength); err != nil {
		return r, err
	}
	if r.Category, err = clean("category", r.Category, maxCategoryLength); err != nil {
		return r, err
	}
	r.ReceiptImageRef = utils.SanitizeOptional(r.ReceiptImageRef)
	return r, nil
}

func (r UpdateExpenseRequest) toUpdate() (entity.ExpenseUpdate, error) {
	fields := entity.ExpenseUpdate{
		Amount:          r.Amount,
		Date:            r.Date,
		ReceiptImageRef: utils.SanitizeOptional(r.ReceiptImageRef),
		Status:          r.Status,
	}

	var err error
	if fields.Vendor, err = clean("vendor", r.Vendor, maxVendorLength); err != nil {
		return fields, err
	}
	if fields.Description, err = clean("description", r.Description, maxDescriptionLength); err != nil {
		return fields, err
	}
	if fields.Category, err = clean("category", r.Category, maxCategoryLength); err != nil {
		return fields, err
	}
	return fields, nil
}
