package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/domain/entity"
	"github.com/garyjia/expense-desk/internal/infrastructure/persistence/sqlite"
)

// HistoryRepository implements port.HistoryRepository on sqlite
type HistoryRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sqlite.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a history entry
func (r *HistoryRepository) Create(ctx context.Context, history *entity.ExpenseHistory) error {
	query := `
		INSERT INTO expense_history (
			expense_id, actor_id, previous_status, new_status, action, note, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		history.ExpenseID,
		history.ActorID,
		history.PreviousStatus,
		history.NewStatus,
		history.Action,
		history.Note,
		history.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create history", zap.String("expense_id", history.ExpenseID), zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	history.ID = id
	return nil
}

// ListByExpenseID returns an expense's history, oldest first
func (r *HistoryRepository) ListByExpenseID(ctx context.Context, expenseID string) ([]*entity.ExpenseHistory, error) {
	query := `
		SELECT id, expense_id, actor_id, previous_status, new_status, action, note, created_at
		FROM expense_history
		WHERE expense_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, expenseID)
	if err != nil {
		r.logger.Error("Failed to list history", zap.String("expense_id", expenseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := []*entity.ExpenseHistory{}
	for rows.Next() {
		var h entity.ExpenseHistory
		if err := rows.Scan(
			&h.ID,
			&h.ExpenseID,
			&h.ActorID,
			&h.PreviousStatus,
			&h.NewStatus,
			&h.Action,
			&h.Note,
			&h.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		entries = append(entries, &h)
	}
	return entries, rows.Err()
}

var _ port.HistoryRepository = (*HistoryRepository)(nil)
