package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/expense-desk/internal/application/port"
	"github.com/garyjia/expense-desk/internal/domain/entity"
	"github.com/garyjia/expense-desk/internal/infrastructure/persistence/sqlite"
)

// UserRepository implements port.UserRepository on sqlite
type UserRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlite.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT id, email, role, created_at FROM users WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT id, email, role, created_at FROM users WHERE email = ?`, email)
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx,
		`INSERT INTO users (id, email, role, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, user.Role, user.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateRole changes a user's role
func (r *UserRepository) UpdateRole(ctx context.Context, id, role string) error {
	result, err := r.db.Executor(ctx).ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		r.logger.Error("Failed to update user role", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update user role: %w", err)
	}
	return expectOneRow(result, "user", id)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*entity.User, error) {
	var user entity.User
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Role,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Any("key", arg), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
