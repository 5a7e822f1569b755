package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/coursebot/pkg/models"
)

// FAQRepository handles database operations for FAQ items
type FAQRepository struct{}

// NewFAQRepository creates a new repository instance
func NewFAQRepository() *FAQRepository {
	return &FAQRepository{}
}

// GetVisible returns visible FAQ items in display order
func (r *FAQRepository) GetVisible(ctx context.Context) ([]models.FAQItem, error) {
	var items []models.FAQItem
	query := "SELECT id, question, answer, sort_order, is_visible FROM faq_items WHERE is_visible = true ORDER BY sort_order, id"
	if err := DB.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("failed to get FAQ items: %v", err)
	}
	return items, nil
}

// GetByID returns a single FAQ item, or nil if it does not exist
func (r *FAQRepository) GetByID(ctx context.Context, id int64) (*models.FAQItem, error) {
	var item models.FAQItem
	query := DB.Rebind("SELECT id, question, answer, sort_order, is_visible FROM faq_items WHERE id = ?")
	err := DB.GetContext(ctx, &item, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get FAQ item %d: %v", id, err)
	}
	return &item, nil
}
