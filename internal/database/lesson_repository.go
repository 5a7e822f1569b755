package database

import (
	"context"
	"fmt"

	"github.com/example/coursebot/pkg/models"
)

const lessonColumns = `id, course_id, day_number, send_time, lesson_type, text,
	image, audio, video_note, document, quiz_options, correct_answer, error_feedback, created_at`

// LessonRepository handles database operations for lessons
type LessonRepository struct{}

// NewLessonRepository creates a new repository instance
func NewLessonRepository() *LessonRepository {
	return &LessonRepository{}
}

// GetByID returns a lesson by ID
func (r *LessonRepository) GetByID(ctx context.Context, id int64) (*models.Lesson, error) {
	var lesson models.Lesson
	query := DB.Rebind("SELECT " + lessonColumns + " FROM lessons WHERE id = ?")
	if err := DB.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, fmt.Errorf("failed to get lesson %d: %w", id, err)
	}
	return &lesson, nil
}

// GetByCourse returns the lessons of a course in strict advancement order:
// (day_number, send_time, id)
func (r *LessonRepository) GetByCourse(ctx context.Context, courseID int64) ([]models.Lesson, error) {
	var lessons []models.Lesson
	query := DB.Rebind("SELECT " + lessonColumns + " FROM lessons WHERE course_id = ? ORDER BY day_number, send_time, id")
	if err := DB.SelectContext(ctx, &lessons, query, courseID); err != nil {
		return nil, fmt.Errorf("failed to get lessons for course %d: %v", courseID, err)
	}
	return lessons, nil
}

// Create inserts a new lesson and returns its ID. The send time is stored
// in canonical "HH:MM" form so the ORDER BY on the text column matches
// chronological order.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) (int64, error) {
	if err := lesson.NormalizeSendTime(); err != nil {
		return 0, fmt.Errorf("failed to create lesson: %v", err)
	}

	if DB.DriverName() == "postgres" {
		var id int64
		query := `INSERT INTO lessons (course_id, day_number, send_time, lesson_type, text,
				image, audio, video_note, document, quiz_options, correct_answer, error_feedback)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`
		err := DB.QueryRowContext(ctx, query, lesson.CourseID, lesson.DayNumber, lesson.SendTime,
			lesson.LessonType, lesson.Text, lesson.Image, lesson.Audio, lesson.VideoNote,
			lesson.Document, lesson.QuizOptions, lesson.CorrectAnswer, lesson.ErrorFeedback).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to create lesson: %v", err)
		}
		return id, nil
	}

	query := `INSERT INTO lessons (course_id, day_number, send_time, lesson_type, text,
			image, audio, video_note, document, quiz_options, correct_answer, error_feedback)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := DB.ExecContext(ctx, query, lesson.CourseID, lesson.DayNumber, lesson.SendTime,
		lesson.LessonType, lesson.Text, lesson.Image, lesson.Audio, lesson.VideoNote,
		lesson.Document, lesson.QuizOptions, lesson.CorrectAnswer, lesson.ErrorFeedback)
	if err != nil {
		return 0, fmt.Errorf("failed to create lesson: %v", err)
	}
	return result.LastInsertId()
}
