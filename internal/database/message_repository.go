package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/example/coursebot/pkg/models"
)

// MessageRepository handles database operations for bot message templates
type MessageRepository struct{}

// NewMessageRepository creates a new repository instance
func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

// GetBySlug returns the template with the given slug, or nil if absent
func (r *MessageRepository) GetBySlug(ctx context.Context, slug string) (*models.BotMessage, error) {
	var msg models.BotMessage
	query := DB.Rebind("SELECT id, slug, text, description FROM bot_messages WHERE slug = ?")
	err := DB.GetContext(ctx, &msg, query, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message %q: %v", slug, err)
	}
	return &msg, nil
}

// Upsert inserts or replaces the template text for a slug
func (r *MessageRepository) Upsert(ctx context.Context, slug, text, description string) error {
	var query string
	if DB.DriverName() == "postgres" {
		query = "INSERT INTO bot_messages (slug, text, description) VALUES ($1, $2, $3) ON CONFLICT (slug) DO UPDATE SET text = EXCLUDED.text, description = EXCLUDED.description"
	} else {
		query = "INSERT INTO bot_messages (slug, text, description) VALUES (?, ?, ?) ON CONFLICT (slug) DO UPDATE SET text = excluded.text, description = excluded.description"
	}
	if _, err := DB.ExecContext(ctx, query, slug, text, description); err != nil {
		return fmt.Errorf("failed to upsert message %q: %v", slug, err)
	}
	return nil
}

// MessageCache is a read-through cache over MessageRepository. A missing
// slug falls back to the supplied default text, so the bot keeps working
// on an empty bot_messages table.
type MessageCache struct {
	repo *MessageRepository

	mu    sync.RWMutex
	texts map[string]string
}

// NewMessageCache creates a cache over the given repository
func NewMessageCache(repo *MessageRepository) *MessageCache {
	return &MessageCache{
		repo:  repo,
		texts: make(map[string]string),
	}
}

// Text returns the template text for slug, loading it from the database on
// first use. If no row exists the default is returned (and not cached, so a
// later admin edit takes effect).
func (c *MessageCache) Text(ctx context.Context, slug, def string) string {
	c.mu.RLock()
	text, ok := c.texts[slug]
	c.mu.RUnlock()
	if ok {
		return text
	}

	msg, err := c.repo.GetBySlug(ctx, slug)
	if err != nil || msg == nil {
		return def
	}

	c.mu.Lock()
	c.texts[slug] = msg.Text
	c.mu.Unlock()
	return msg.Text
}

// Set writes the template through to the database and refreshes the cache
func (c *MessageCache) Set(ctx context.Context, slug, text, description string) error {
	if err := c.repo.Upsert(ctx, slug, text, description); err != nil {
		return err
	}
	c.mu.Lock()
	c.texts[slug] = text
	c.mu.Unlock()
	return nil
}

// Invalidate drops a cached entry so the next read hits the database
func (c *MessageCache) Invalidate(slug string) {
	c.mu.Lock()
	delete(c.texts, slug)
	c.mu.Unlock()
}
