package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/domain/entity"
	"github.com/garyjia/expense-desk/internal/domain/event"
	"github.com/garyjia/expense-desk/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ExpenseService owns the expense report lifecycle. Ownership is enforced
// here; reviewer role checks belong to the caller.
type ExpenseService interface {
	Create(ctx context.Context, input CreateExpenseInput) (*entity.Expense, error)
	Get(ctx context.Context, id, actingUserID string) (*entity.Expense, error)
	Update(ctx context.Context, id, actingUserID string, fields entity.ExpenseUpdate) (*entity.Expense, error)
	Submit(ctx context.Context, id, actingUserID string) (*entity.Expense, error)
	RequestRevision(ctx context.Context, id, reviewerID, reason string) (*entity.Expense, error)
	Approve(ctx context.Context, id, approverID string) (*entity.Expense, error)
	Reject(ctx context.Context, id, reviewerID, reason string) (*entity.Expense, error)
	Remove(ctx context.Context, id, actingUserID string) error
	FindAll(ctx context.Context, ownerID string) ([]*entity.Expense, error)
	FindAllGlobal(ctx context.Context) ([]*entity.ExpenseWithOwner, error)
}

// CreateExpenseInput holds the fields of a new expense. An empty Status means DRAFT.
type CreateExpenseInput struct {
	OwnerID         string
	Amount          decimal.Decimal
	Date            string
	Vendor          *string
	Description     *string
	Category        *string
	ReceiptImageRef *string
	Status          string
}

// ExpenseServiceConfig tunes optional behaviour of the expense service
type ExpenseServiceConfig struct {
	// SeedDemoExpenses fills an empty expense list with sample records on first read
	SeedDemoExpenses bool
}

type expenseServiceImpl struct {
	expenseRepo port.ExpenseRepository
	txManager   port.TransactionManager
	publisher   port.EventPublisher
	logger      Logger
	cfg         ExpenseServiceConfig
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	expenseRepo port.ExpenseRepository,
	txManager port.TransactionManager,
	publisher port.EventPublisher,
	logger Logger,
	cfg ExpenseServiceConfig,
) ExpenseService {
	return &expenseServiceImpl{
		expenseRepo: expenseRepo,
		txManager:   txManager,
		publisher:   publisher,
		logger:      logger,
		cfg:         cfg,
	}
}

// Create stores a new expense in DRAFT or SUBMITTED status
func (s *expenseServiceImpl) Create(ctx context.Context, input CreateExpenseInput) (*entity.Expense, error) {
	status := input.Status
	if status == "" {
		status = entity.StatusDraft
	}
	if status != entity.StatusDraft && status != entity.StatusSubmitted {
		return nil, fmt.Errorf("%w: only DRAFT or SUBMITTED status can be set during creation", ErrInvalidStatus)
	}
	if err := validateAmount(input.Amount); err != nil {
		return nil, err
	}
	date, err := parseExpenseDate(input.Date)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expense := &entity.Expense{
		ID:              uuid.NewString(),
		OwnerID:         input.OwnerID,
		Amount:          input.Amount,
		Date:            date,
		Vendor:          input.Vendor,
		Description:     input.Description,
		Category:        input.Category,
		ReceiptImageRef: input.ReceiptImageRef,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		s.logger.Error("Failed to create expense", "error", err, "owner_id", input.OwnerID)
		return nil, fmt.Errorf("create expense: %w", err)
	}

	s.logger.Info("Expense created", "id", expense.ID, "owner_id", expense.OwnerID, "status", expense.Status)
	s.publish(ctx, event.TypeExpenseCreated, expense, expense.OwnerID, "", nil)
	if status == entity.StatusSubmitted {
		s.publish(ctx, event.TypeExpenseSubmitted, expense, expense.OwnerID, entity.StatusDraft, nil)
	}
	return expense, nil
}

// Get returns an expense the acting user owns
func (s *expenseServiceImpl) Get(ctx context.Context, id, actingUserID string) (*entity.Expense, error) {
	return s.loadOwned(ctx, id, actingUserID)
}

// Update changes owner-editable fields while the expense is DRAFT or REVISION_REQUESTED
func (s *expenseServiceImpl) Update(ctx context.Context, id, actingUserID string, fields entity.ExpenseUpdate) (*entity.Expense, error) {
	expense, err := s.loadOwned(ctx, id, actingUserID)
	if err != nil {
		return nil, err
	}

	machine := workflow.NewExpenseMachine(workflow.State(expense.Status))
	if !machine.CanFire(workflow.TriggerEdit) {
		return nil, fmt.Errorf("%w: only expenses in DRAFT or REVISION_REQUESTED status can be updated", ErrInvalidTransition)
	}

	trigger := workflow.TriggerEdit
	if fields.Status != nil {
		switch *fields.Status {
		case entity.StatusDraft:
			trigger = workflow.TriggerSaveDraft
		case entity.StatusSubmitted:
			trigger = workflow.TriggerSubmit
		default:
			return nil, fmt.Errorf("%w: only DRAFT or SUBMITTED status can be set during update", ErrInvalidStatus)
		}
	}

	if fields.Amount != nil {
		if err := validateAmount(*fields.Amount); err != nil {
			return nil, err
		}
	}
	var date *time.Time
	if fields.Date != nil {
		d, err := parseExpenseDate(*fields.Date)
		if err != nil {
			return nil, err
		}
		date = &d
	}

	if err := machine.Fire(ctx, trigger); err != nil {
		return nil, fmt.Errorf("update expense %s: %w", id, err)
	}

	previous := expense.Status
	applyUpdate(expense, fields, date)
	expense.Status = machine.State().String()
	expense.UpdatedAt = time.Now().UTC()

	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		s.logger.Error("Failed to update expense", "error", err, "id", id)
		return nil, fmt.Errorf("update expense: %w", err)
	}

	s.logger.Info("Expense updated", "id", id, "status", expense.Status)
	s.publish(ctx, event.TypeExpenseUpdated, expense, actingUserID, previous, nil)
	if expense.Status == entity.StatusSubmitted {
		s.publish(ctx, event.TypeExpenseSubmitted, expense, actingUserID, previous, nil)
	}
	return expense, nil
}

// Submit sends a DRAFT or REVISION_REQUESTED expense to review. A previous
// rejection reason is kept so the reviewer can see what was asked for.
func (s *expenseServiceImpl) Submit(ctx context.Context, id, actingUserID string) (*entity.Expense, error) {
	expense, err := s.loadOwned(ctx, id, actingUserID)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, expense, workflow.TriggerSubmit, actingUserID,
		"only draft or revision requested expenses can be submitted",
		event.TypeExpenseSubmitted, nil)
}

// RequestRevision sends a SUBMITTED expense back to its owner with a reason
func (s *expenseServiceImpl) RequestRevision(ctx context.Context, id, reviewerID, reason string) (*entity.Expense, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: revision requests need a reason", ErrMissingReason)
	}

	expense, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, expense, workflow.TriggerRequestRevision, reviewerID,
		"only submitted expenses can be sent for revision",
		event.TypeExpenseRevisionRequested,
		func(e *entity.Expense) { e.RejectionReason = &reason })
}

// Approve accepts a SUBMITTED expense and records who approved it
func (s *expenseServiceImpl) Approve(ctx context.Context, id, approverID string) (*entity.Expense, error) {
	expense, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, expense, workflow.TriggerApprove, approverID,
		"only submitted expenses can be approved",
		event.TypeExpenseApproved,
		func(e *entity.Expense) {
			now := time.Now().UTC()
			e.ApprovedAt = &now
			e.ApprovedBy = &approverID
		})
}

// Reject closes a SUBMITTED expense for good
func (s *expenseServiceImpl) Reject(ctx context.Context, id, reviewerID, reason string) (*entity.Expense, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: rejections need a reason", ErrMissingReason)
	}

	expense, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, expense, workflow.TriggerReject, reviewerID,
		"only submitted expenses can be rejected",
		event.TypeExpenseRejected,
		func(e *entity.Expense) { e.RejectionReason = &reason })
}

// Remove deletes a DRAFT, REJECTED or REVISION_REQUESTED expense
func (s *expenseServiceImpl) Remove(ctx context.Context, id, actingUserID string) error {
	expense, err := s.loadOwned(ctx, id, actingUserID)
	if err != nil {
		return err
	}

	machine := workflow.NewExpenseMachine(workflow.State(expense.Status))
	if err := machine.Fire(ctx, workflow.TriggerDelete); err != nil {
		return fmt.Errorf("%w: only draft, rejected or revision requested expenses can be deleted", ErrInvalidTransition)
	}

	if err := s.expenseRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete expense", "error", err, "id", id)
		return fmt.Errorf("delete expense: %w", err)
	}

	s.logger.Info("Expense deleted", "id", id, "owner_id", actingUserID)
	s.publish(ctx, event.TypeExpenseDeleted, expense, actingUserID, expense.Status, nil)
	return nil
}

// FindAll lists the owner's expenses
func (s *expenseServiceImpl) FindAll(ctx context.Context, ownerID string) ([]*entity.Expense, error) {
	expenses, err := s.expenseRepo.FindMany(ctx, port.ExpenseFilter{OwnerID: ownerID})
	if err != nil {
		s.logger.Error("Failed to list expenses", "error", err, "owner_id", ownerID)
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	if len(expenses) == 0 && s.cfg.SeedDemoExpenses {
		return s.seedDemoExpenses(ctx, ownerID)
	}
	return expenses, nil
}

// FindAllGlobal lists every expense with its owner, newest transaction date first
func (s *expenseServiceImpl) FindAllGlobal(ctx context.Context) ([]*entity.ExpenseWithOwner, error) {
	rows, err := s.expenseRepo.FindAllWithOwner(ctx)
	if err != nil {
		s.logger.Error("Failed to list all expenses", "error", err)
		return nil, fmt.Errorf("list all expenses: %w", err)
	}
	return rows, nil
}

// transition fires one trigger, applies mutate, persists, and publishes evtType
func (s *expenseServiceImpl) transition(
	ctx context.Context,
	expense *entity.Expense,
	trigger workflow.Trigger,
	actorID string,
	notAllowed string,
	evtType event.Type,
	mutate func(e *entity.Expense),
) (*entity.Expense, error) {
	machine := workflow.NewExpenseMachine(workflow.State(expense.Status))
	if err := machine.Fire(ctx, trigger); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, notAllowed)
	}

	previous := expense.Status
	expense.Status = machine.State().String()
	expense.UpdatedAt = time.Now().UTC()
	if mutate != nil {
		mutate(expense)
	}

	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		s.logger.Error("Failed to persist transition", "error", err, "id", expense.ID, "trigger", trigger.String())
		return nil, fmt.Errorf("update expense: %w", err)
	}

	s.logger.Info("Expense status changed", "id", expense.ID, "from", previous, "to", expense.Status, "actor", actorID)

	var extra map[string]interface{}
	if expense.RejectionReason != nil && (trigger == workflow.TriggerRequestRevision || trigger == workflow.TriggerReject) {
		extra = map[string]interface{}{event.KeyReason: *expense.RejectionReason}
	}
	s.publish(ctx, evtType, expense, actorID, previous, extra)
	return expense, nil
}

func (s *expenseServiceImpl) load(ctx context.Context, id string) (*entity.Expense, error) {
	expense, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load expense", "error", err, "id", id)
		return nil, fmt.Errorf("get expense: %w", err)
	}
	if expense == nil {
		return nil, ErrNotFound
	}
	return expense, nil
}

// loadOwned collapses "missing" and "owned by someone else" into one error
func (s *expenseServiceImpl) loadOwned(ctx context.Context, id, actingUserID string) (*entity.Expense, error) {
	expense, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load expense", "error", err, "id", id)
		return nil, fmt.Errorf("get expense: %w", err)
	}
	if expense == nil || expense.OwnerID != actingUserID {
		return nil, ErrNotFoundOrUnauthorized
	}
	return expense, nil
}

func (s *expenseServiceImpl) publish(ctx context.Context, evtType event.Type, expense *entity.Expense, actorID, previous string, extra map[string]interface{}) {
	if s.publisher == nil {
		return
	}

	payload := map[string]interface{}{
		event.KeyPreviousStatus: previous,
		event.KeyNewStatus:      expense.Status,
		event.KeyOwnerID:        expense.OwnerID,
		event.KeyAmount:         expense.Amount.StringFixed(2),
	}
	if expense.Vendor != nil {
		payload[event.KeyVendor] = *expense.Vendor
	}
	for k, v := range extra {
		payload[k] = v
	}

	s.publisher.Publish(ctx, event.NewEvent(evtType, expense.ID, actorID, payload))
}

func (s *expenseServiceImpl) seedDemoExpenses(ctx context.Context, ownerID string) ([]*entity.Expense, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	now := time.Now().UTC()
	samples := []struct {
		vendor   string
		amount   string
		category string
		status   string
	}{
		{"Starbucks", "42.50", "Meals", entity.StatusDraft},
		{"Uber", "15.00", "Travel", entity.StatusDraft},
		{"Amazon", "120.99", "Office", entity.StatusSubmitted},
	}

	seeded := make([]*entity.Expense, 0, len(samples))
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, sample := range samples {
			vendor, category := sample.vendor, sample.category
			expense := &entity.Expense{
				ID:        uuid.NewString(),
				OwnerID:   ownerID,
				Amount:    decimal.RequireFromString(sample.amount),
				Date:      today,
				Vendor:    &vendor,
				Category:  &category,
				Status:    sample.status,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.expenseRepo.Create(txCtx, expense); err != nil {
				return fmt.Errorf("seed expense %s: %w", sample.vendor, err)
			}
			seeded = append(seeded, expense)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to seed demo expenses", "error", err, "owner_id", ownerID)
		return nil, err
	}

	s.logger.Info("Seeded demo expenses", "owner_id", ownerID, "count", len(seeded))
	return seeded, nil
}

func applyUpdate(expense *entity.Expense, fields entity.ExpenseUpdate, date *time.Time) {
	if fields.Amount != nil {
		expense.Amount = *fields.Amount
	}
	if date != nil {
		expense.Date = *date
	}
	if fields.Vendor != nil {
		expense.Vendor = fields.Vendor
	}
	if fields.Description != nil {
		expense.Description = fields.Description
	}
	if fields.Category != nil {
		expense.Category = fields.Category
	}
	if fields.ReceiptImageRef != nil {
		expense.ReceiptImageRef = fields.ReceiptImageRef
	}
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, amount.String())
	}
	return nil
}

// parseExpenseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and keeps the calendar date
func parseExpenseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(entity.DateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}
