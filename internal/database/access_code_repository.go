package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/coursebot/pkg/models"
)

// ErrCodeAlreadyClaimed is returned when an atomic claim loses to a
// concurrent (or earlier) claim by another user
var ErrCodeAlreadyClaimed = errors.New("access code already claimed")

// AccessCodeRepository handles database operations for access codes
type AccessCodeRepository struct{}

// NewAccessCodeRepository creates a new repository instance
func NewAccessCodeRepository() *AccessCodeRepository {
	return &AccessCodeRepository{}
}

// FindByCode returns the access code with its unlocked course IDs, or nil
// if no such code exists
func (r *AccessCodeRepository) FindByCode(ctx context.Context, code string) (*models.AccessCode, error) {
	var ac models.AccessCode
	query := DB.Rebind("SELECT id, code, is_active, activated_by, created_at FROM access_codes WHERE code = ?")
	err := DB.GetContext(ctx, &ac, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find access code: %v", err)
	}

	coursesQuery := DB.Rebind("SELECT course_id FROM access_code_courses WHERE code_id = ? ORDER BY course_id")
	if err := DB.SelectContext(ctx, &ac.CourseIDs, coursesQuery, ac.ID); err != nil {
		return nil, fmt.Errorf("failed to load code courses: %v", err)
	}
	return &ac, nil
}

// Claim binds an unclaimed code to a user. The update is a compare-and-set
// on activated_by IS NULL, so exactly one of two concurrent claimants wins;
// the loser gets ErrCodeAlreadyClaimed.
func (r *AccessCodeRepository) Claim(ctx context.Context, codeID, userID int64) error {
	query := DB.Rebind("UPDATE access_codes SET activated_by = ? WHERE id = ? AND activated_by IS NULL")
	result, err := DB.ExecContext(ctx, query, userID, codeID)
	if err != nil {
		return fmt.Errorf("failed to claim access code %d: %v", codeID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %v", err)
	}
	if rows == 0 {
		return ErrCodeAlreadyClaimed
	}
	return nil
}

// Create inserts a new active access code unlocking the given courses
func (r *AccessCodeRepository) Create(ctx context.Context, code string, courseIDs []int64) (int64, error) {
	var codeID int64
	if DB.DriverName() == "postgres" {
		err := DB.QueryRowContext(ctx,
			"INSERT INTO access_codes (code, is_active) VALUES ($1, true) RETURNING id", code).Scan(&codeID)
		if err != nil {
			return 0, fmt.Errorf("failed to create access code: %v", err)
		}
	} else {
		result, err := DB.ExecContext(ctx, "INSERT INTO access_codes (code, is_active) VALUES (?, true)", code)
		if err != nil {
			return 0, fmt.Errorf("failed to create access code: %v", err)
		}
		codeID, err = result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to read code id: %v", err)
		}
	}

	link := DB.Rebind("INSERT INTO access_code_courses (code_id, course_id) VALUES (?, ?)")
	for _, courseID := range courseIDs {
		if _, err := DB.ExecContext(ctx, link, codeID, courseID); err != nil {
			return 0, fmt.Errorf("failed to link course %d to code: %v", courseID, err)
		}
	}
	return codeID, nil
}
