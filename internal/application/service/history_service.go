package service

import (
	"context"
	"fmt"

	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/domain/entity"
)

// HistoryService exposes the audit trail of an expense
type HistoryService interface {
	// List returns the trail to the expense owner or to an admin
	List(ctx context.Context, expenseID string, viewer *entity.User) ([]*entity.ExpenseHistory, error)
}

type historyServiceImpl struct {
	historyRepo port.HistoryRepository
	expenseRepo port.ExpenseRepository
	logger      Logger
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(historyRepo port.HistoryRepository, expenseRepo port.ExpenseRepository, logger Logger) HistoryService {
	return &historyServiceImpl{
		historyRepo: historyRepo,
		expenseRepo: expenseRepo,
		logger:      logger,
	}
}

func (s *historyServiceImpl) List(ctx context.Context, expenseID string, viewer *entity.User) ([]*entity.ExpenseHistory, error) {
	if viewer == nil {
		return nil, ErrNotFoundOrUnauthorized
	}

	if !viewer.IsAdmin() {
		expense, err := s.expenseRepo.FindByID(ctx, expenseID)
		if err != nil {
			return nil, fmt.Errorf("get expense: %w", err)
		}
		if expense == nil || expense.OwnerID != viewer.ID {
			return nil, ErrNotFoundOrUnauthorized
		}
	}

	entries, err := s.historyRepo.ListByExpenseID(ctx, expenseID)
	if err != nil {
		s.logger.Error("Failed to list history", "error", err, "expense_id", expenseID)
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}
