package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/coursebot/pkg/models"
)

// UserRepository handles database operations for users
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// GetByID returns a user by internal ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := DB.Rebind("SELECT id, telegram_id, username, first_name, created_at FROM users WHERE id = ?")
	if err := DB.GetContext(ctx, &user, query, id); err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}

// GetByTelegramID returns a user by Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	query := DB.Rebind("SELECT id, telegram_id, username, first_name, created_at FROM users WHERE telegram_id = ?")
	if err := DB.GetContext(ctx, &user, query, telegramID); err != nil {
		return nil, fmt.Errorf("failed to get user by telegram id %d: %w", telegramID, err)
	}
	return &user, nil
}

// GetOrCreate returns the user for a Telegram identity, creating the row on
// first contact. The second return value reports whether the user was created.
func (r *UserRepository) GetOrCreate(ctx context.Context, telegramID int64, username, firstName string) (*models.User, bool, error) {
	user, err := r.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	query := DB.Rebind("INSERT INTO users (telegram_id, username, first_name) VALUES (?, ?, ?)")
	if _, err := DB.ExecContext(ctx, query, telegramID, username, firstName); err != nil {
		return nil, false, fmt.Errorf("failed to create user: %v", err)
	}

	user, err = r.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// Count returns the total number of registered users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := DB.GetContext(ctx, &count, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("failed to count users: %v", err)
	}
	return count, nil
}
