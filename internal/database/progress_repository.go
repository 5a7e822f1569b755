package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ProgressRepository handles database operations for delivery progress
type ProgressRepository struct{}

// NewProgressRepository creates a new repository instance
func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{}
}

// RecordSent inserts the delivery record for a (user, lesson) pair. The
// insert is atomic and idempotent: a duplicate call is a no-op, reported by
// the boolean return (false when the record already existed). The uniqueness
// constraint on (user_id, lesson_id) is the hard guarantee that a lesson is
// never delivered twice.
func (r *ProgressRepository) RecordSent(ctx context.Context, userID, lessonID int64) (bool, error) {
	var query string
	if DB.DriverName() == "postgres" {
		query = `INSERT INTO user_progress (user_id, lesson_id, sent_at) VALUES ($1, $2, $3)
			ON CONFLICT (user_id, lesson_id) DO NOTHING`
	} else {
		query = `INSERT OR IGNORE INTO user_progress (user_id, lesson_id, sent_at) VALUES (?, ?, ?)`
	}

	result, err := DB.ExecContext(ctx, query, userID, lessonID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to record progress: %v", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %v", err)
	}
	return rows > 0, nil
}

// MarkCompleted stamps the graded-completion time on a progress record,
// inserting the record first if delivery was never registered. Repeated
// calls keep the original completion time.
func (r *ProgressRepository) MarkCompleted(ctx context.Context, userID, lessonID int64) error {
	if _, err := r.RecordSent(ctx, userID, lessonID); err != nil {
		return err
	}
	query := DB.Rebind("UPDATE user_progress SET completed_at = ? WHERE user_id = ? AND lesson_id = ? AND completed_at IS NULL")
	if _, err := DB.ExecContext(ctx, query, time.Now().UTC(), userID, lessonID); err != nil {
		return fmt.Errorf("failed to mark lesson %d completed: %v", lessonID, err)
	}
	return nil
}

// SentLessonIDs returns the set of lessons of a course already delivered to
// the user
func (r *ProgressRepository) SentLessonIDs(ctx context.Context, userID, courseID int64) (map[int64]struct{}, error) {
	var ids []int64
	query := DB.Rebind(`SELECT lesson_id FROM user_progress
		WHERE user_id = ? AND lesson_id IN (SELECT id FROM lessons WHERE course_id = ?)`)
	if err := DB.SelectContext(ctx, &ids, query, userID, courseID); err != nil {
		return nil, fmt.Errorf("failed to get sent lessons: %v", err)
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// LastProgressAt returns the time of the user's most recent progress write,
// or nil if there is none. The scheduler uses it as the cooldown signal that
// an answer-driven advancement is in flight.
func (r *ProgressRepository) LastProgressAt(ctx context.Context, userID int64) (*time.Time, error) {
	var last time.Time
	query := DB.Rebind("SELECT sent_at FROM user_progress WHERE user_id = ? ORDER BY sent_at DESC LIMIT 1")
	err := DB.GetContext(ctx, &last, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last progress: %v", err)
	}
	return &last, nil
}
