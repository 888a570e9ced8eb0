package service

import (
	"errors"

	"github.com/garyjia/expense-desk/internal/domain/workflow"
)

// Expense workflow errors. Callers match them with errors.Is; the wrapped
// message names the statuses the operation accepts.
var (
	// ErrNotFoundOrUnauthorized hides whether an expense is missing or owned by someone else
	ErrNotFoundOrUnauthorized = errors.New("expense not found or unauthorized")
	ErrNotFound               = errors.New("expense not found")
	ErrInvalidTransition      = workflow.ErrInvalidTransition
	ErrInvalidStatus          = workflow.ErrInvalidState
	ErrMissingReason          = errors.New("reason is required")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrInvalidDate            = errors.New("date must be a calendar date (YYYY-MM-DD)")
	ErrTextTooLong            = errors.New("text field is too long")
)

// Receipt intake errors
var (
	ErrEmptyReceipt       = errors.New("receipt file is empty")
	ErrReceiptTooLarge    = errors.New("receipt file is too large")
	ErrUnsupportedReceipt = errors.New("only jpg, png, webp or pdf receipts are accepted")
	ErrAnalysisFailed     = errors.New("receipt analysis failed")
)

// Account errors
var (
	ErrInvalidEmail    = errors.New("a valid email is required")
	ErrInvalidRole     = errors.New("role must be EMPLOYEE or ADMIN")
	ErrUnauthenticated = errors.New("missing or unknown access token")
)
