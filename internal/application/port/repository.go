package port

import (
	"context"

	"github.com/garyjia/expense-desk/internal/domain/entity"
)

// ExpenseFilter narrows FindMany; zero values match everything
type ExpenseFilter struct {
	OwnerID  string
	Statuses []string
}

// ExpenseRepository defines persistence operations for Expense.
// Lookups return nil, nil when the record does not exist.
type ExpenseRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Expense, error)
	FindMany(ctx context.Context, filter ExpenseFilter) ([]*entity.Expense, error)
	// FindAllWithOwner returns every expense joined with its owner, newest transaction date first
	FindAllWithOwner(ctx context.Context) ([]*entity.ExpenseWithOwner, error)
	Create(ctx context.Context, expense *entity.Expense) error
	Update(ctx context.Context, expense *entity.Expense) error
	Delete(ctx context.Context, id string) error
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
	UpdateRole(ctx context.Context, id, role string) error
}

// HistoryRepository defines persistence operations for ExpenseHistory
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.ExpenseHistory) error
	ListByExpenseID(ctx context.Context, expenseID string) ([]*entity.ExpenseHistory, error)
}

// TransactionManager runs fn inside one database transaction carried by ctx
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
