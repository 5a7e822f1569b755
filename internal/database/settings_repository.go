package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SettingsRepository handles database operations for bot settings
type SettingsRepository struct{}

// NewSettingsRepository creates a new repository instance
func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

// Get returns the value for key, or "" if the key is not set
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	query := DB.Rebind("SELECT value FROM bot_settings WHERE key = ?")
	err := DB.GetContext(ctx, &value, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %q: %v", key, err)
	}
	return value, nil
}

// Set inserts or replaces a setting value
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	var query string
	if DB.DriverName() == "postgres" {
		query = "INSERT INTO bot_settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value"
	} else {
		query = "INSERT INTO bot_settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value"
	}
	if _, err := DB.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set setting %q: %v", key, err)
	}
	return nil
}
