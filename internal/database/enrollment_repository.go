package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/coursebot/pkg/models"
)

// EnrollmentRepository handles database operations for enrollments
type EnrollmentRepository struct{}

// NewEnrollmentRepository creates a new repository instance
func NewEnrollmentRepository() *EnrollmentRepository {
	return &EnrollmentRepository{}
}

const enrollmentColumns = "id, user_id, course_id, start_date, current_day, is_active"

// GetActive returns all active enrollments across all users
func (r *EnrollmentRepository) GetActive(ctx context.Context) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	query := "SELECT " + enrollmentColumns + " FROM enrollments WHERE is_active = true ORDER BY id"
	if err := DB.SelectContext(ctx, &enrollments, query); err != nil {
		return nil, fmt.Errorf("failed to get active enrollments: %v", err)
	}
	return enrollments, nil
}

// GetActiveByUser returns a user's active enrollments
func (r *EnrollmentRepository) GetActiveByUser(ctx context.Context, userID int64) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	query := DB.Rebind("SELECT " + enrollmentColumns + " FROM enrollments WHERE user_id = ? AND is_active = true ORDER BY id")
	if err := DB.SelectContext(ctx, &enrollments, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get enrollments for user %d: %v", userID, err)
	}
	return enrollments, nil
}

// getByUserAndCourse returns the enrollment row for a (user, course) pair
func (r *EnrollmentRepository) getByUserAndCourse(ctx context.Context, userID, courseID int64) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	query := DB.Rebind("SELECT " + enrollmentColumns + " FROM enrollments WHERE user_id = ? AND course_id = ?")
	if err := DB.GetContext(ctx, &enrollment, query, userID, courseID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// CreateOrReactivate enrolls a user into a course. If a deactivated
// enrollment exists it is reactivated with a fresh start date and the user's
// progress in the course is reset; an existing active enrollment is returned
// as-is so re-activation is an idempotent no-op for the caller to detect via
// the second return value (true when the user is already actively enrolled).
func (r *EnrollmentRepository) CreateOrReactivate(ctx context.Context, userID, courseID int64) (*models.Enrollment, bool, error) {
	existing, err := r.getByUserAndCourse(ctx, userID, courseID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to look up enrollment: %v", err)
	}

	if existing != nil {
		if existing.IsActive {
			return existing, true, nil
		}
		// Reactivation restarts the course from day one
		query := DB.Rebind("UPDATE enrollments SET is_active = true, start_date = ?, current_day = 1 WHERE id = ?")
		if _, err := DB.ExecContext(ctx, query, time.Now().UTC(), existing.ID); err != nil {
			return nil, false, fmt.Errorf("failed to reactivate enrollment %d: %v", existing.ID, err)
		}
		wipe := DB.Rebind(`DELETE FROM user_progress WHERE user_id = ?
			AND lesson_id IN (SELECT id FROM lessons WHERE course_id = ?)`)
		if _, err := DB.ExecContext(ctx, wipe, userID, courseID); err != nil {
			return nil, false, fmt.Errorf("failed to reset progress for course %d: %v", courseID, err)
		}
		reactivated, err := r.getByUserAndCourse(ctx, userID, courseID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to reload enrollment: %v", err)
		}
		return reactivated, false, nil
	}

	query := DB.Rebind("INSERT INTO enrollments (user_id, course_id, start_date, current_day, is_active) VALUES (?, ?, ?, 1, true)")
	if _, err := DB.ExecContext(ctx, query, userID, courseID, time.Now().UTC()); err != nil {
		return nil, false, fmt.Errorf("failed to create enrollment: %v", err)
	}
	created, err := r.getByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reload enrollment: %v", err)
	}
	return created, false, nil
}

// Deactivate marks an enrollment inactive; the row is kept for history
func (r *EnrollmentRepository) Deactivate(ctx context.Context, enrollmentID int64) error {
	query := DB.Rebind("UPDATE enrollments SET is_active = false WHERE id = ?")
	if _, err := DB.ExecContext(ctx, query, enrollmentID); err != nil {
		return fmt.Errorf("failed to deactivate enrollment %d: %v", enrollmentID, err)
	}
	return nil
}

// UpdateCurrentDay refreshes the informational day cache
func (r *EnrollmentRepository) UpdateCurrentDay(ctx context.Context, enrollmentID int64, day int) error {
	query := DB.Rebind("UPDATE enrollments SET current_day = ? WHERE id = ?")
	if _, err := DB.ExecContext(ctx, query, day, enrollmentID); err != nil {
		return fmt.Errorf("failed to update current day for enrollment %d: %v", enrollmentID, err)
	}
	return nil
}

// CountActive returns the number of active enrollments
func (r *EnrollmentRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	if err := DB.GetContext(ctx, &count, "SELECT COUNT(*) FROM enrollments WHERE is_active = true"); err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %v", err)
	}
	return count, nil
}
