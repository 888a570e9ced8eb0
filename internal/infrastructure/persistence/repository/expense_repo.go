package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/domain/entity"
	"github.com/garyjia/expense-desk/internal/infrastructure/persistence/sqlite"
)

const expenseColumns = `
	e.id, e.owner_id, e.amount, e.expense_date, e.vendor, e.description, e.category,
	e.receipt_image_ref, e.status, e.rejection_reason, e.approved_at, e.approved_by,
	e.created_at, e.updated_at`

// ExpenseRepository implements port.ExpenseRepository on sqlite
type ExpenseRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sqlite.DB, logger *zap.Logger) port.ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

// FindByID retrieves an expense by ID
func (r *ExpenseRepository) FindByID(ctx context.Context, id string) (*entity.Expense, error) {
	query := `SELECT` + expenseColumns + ` FROM expenses e WHERE e.id = ?`

	expense, err := scanExpense(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get expense by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// FindMany lists expenses matching filter, newest transaction date first
func (r *ExpenseRepository) FindMany(ctx context.Context, filter port.ExpenseFilter) ([]*entity.Expense, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.OwnerID != "" {
		where = append(where, "e.owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "e.status IN (?"+strings.Repeat(", ?", len(filter.Statuses)-1)+")")
		for _, s := range filter.Statuses {
			args = append(args, s)
		}
	}

	query := `SELECT` + expenseColumns + ` FROM expenses e`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY e.expense_date DESC, e.created_at DESC"

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.String("owner_id", filter.OwnerID), zap.Error(err))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []*entity.Expense{}
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

// FindAllWithOwner lists every expense with its owner's email and role
func (r *ExpenseRepository) FindAllWithOwner(ctx context.Context) ([]*entity.ExpenseWithOwner, error) {
	query := `SELECT` + expenseColumns + `, COALESCE(u.email, ''), COALESCE(u.role, '')
		FROM expenses e
		LEFT JOIN users u ON u.id = e.owner_id
		ORDER BY e.expense_date DESC, e.created_at DESC`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list all expenses", zap.Error(err))
		return nil, fmt.Errorf("failed to list all expenses: %w", err)
	}
	defer rows.Close()

	result := []*entity.ExpenseWithOwner{}
	for rows.Next() {
		var row entity.ExpenseWithOwner
		if err := scanExpenseInto(rows, &row.Expense, &row.OwnerEmail, &row.OwnerRole); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		result = append(result, &row)
	}
	return result, rows.Err()
}

// Create inserts a new expense
func (r *ExpenseRepository) Create(ctx context.Context, expense *entity.Expense) error {
	query := `
		INSERT INTO expenses (
			id, owner_id, amount, expense_date, vendor, description, category,
			receipt_image_ref, status, rejection_reason, approved_at, approved_by,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		expense.ID,
		expense.OwnerID,
		expense.Amount.String(),
		expense.DateString(),
		nullString(expense.Vendor),
		nullString(expense.Description),
		nullString(expense.Category),
		nullString(expense.ReceiptImageRef),
		expense.Status,
		nullString(expense.RejectionReason),
		nullTime(expense.ApprovedAt),
		nullString(expense.ApprovedBy),
		expense.CreatedAt,
		expense.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.String("id", expense.ID), zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// Update writes every mutable column of one expense
func (r *ExpenseRepository) Update(ctx context.Context, expense *entity.Expense) error {
	query := `
		UPDATE expenses SET
			amount = ?, expense_date = ?, vendor = ?, description = ?, category = ?,
			receipt_image_ref = ?, status = ?, rejection_reason = ?, approved_at = ?,
			approved_by = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		expense.Amount.String(),
		expense.DateString(),
		nullString(expense.Vendor),
		nullString(expense.Description),
		nullString(expense.Category),
		nullString(expense.ReceiptImageRef),
		expense.Status,
		nullString(expense.RejectionReason),
		nullTime(expense.ApprovedAt),
		nullString(expense.ApprovedBy),
		expense.UpdatedAt,
		expense.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update expense", zap.String("id", expense.ID), zap.Error(err))
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return expectOneRow(result, "expense", expense.ID)
}

// Delete removes an expense permanently
func (r *ExpenseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete expense", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return expectOneRow(result, "expense", id)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(row rowScanner) (*entity.Expense, error) {
	var expense entity.Expense
	if err := scanExpenseInto(row, &expense); err != nil {
		return nil, err
	}
	return &expense, nil
}

// scanExpenseInto scans the expense columns followed by any extra destinations
func scanExpenseInto(row rowScanner, expense *entity.Expense, extra ...interface{}) error {
	var date string
	var vendor, description, category, receipt sql.NullString
	var rejectionReason, approvedBy sql.NullString
	var approvedAt sql.NullTime

	dest := []interface{}{
		&expense.ID,
		&expense.OwnerID,
		&expense.Amount,
		&date,
		&vendor,
		&description,
		&category,
		&receipt,
		&expense.Status,
		&rejectionReason,
		&approvedAt,
		&approvedBy,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}

	parsed, err := time.Parse(entity.DateLayout, date)
	if err != nil {
		return fmt.Errorf("invalid expense_date %q: %w", date, err)
	}
	expense.Date = parsed
	expense.Vendor = stringPtr(vendor)
	expense.Description = stringPtr(description)
	expense.Category = stringPtr(category)
	expense.ReceiptImageRef = stringPtr(receipt)
	expense.RejectionReason = stringPtr(rejectionReason)
	expense.ApprovedBy = stringPtr(approvedBy)
	if approvedAt.Valid {
		t := approvedAt.Time
		expense.ApprovedAt = &t
	}
	return nil
}

var _ port.ExpenseRepository = (*ExpenseRepository)(nil)
