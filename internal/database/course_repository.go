package database

import (
	"context"
	"fmt"

	"github.com/example/coursebot/pkg/models"
)

// CourseRepository handles database operations for courses
type CourseRepository struct{}

// NewCourseRepository creates a new repository instance
func NewCourseRepository() *CourseRepository {
	return &CourseRepository{}
}

// GetByID returns a course by ID
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	var course models.Course
	query := DB.Rebind("SELECT id, title, description, duration_days, start_message, finish_message, created_at FROM courses WHERE id = ?")
	if err := DB.GetContext(ctx, &course, query, id); err != nil {
		return nil, fmt.Errorf("failed to get course %d: %w", id, err)
	}
	return &course, nil
}

// GetAll returns all courses ordered by creation time
func (r *CourseRepository) GetAll(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	query := "SELECT id, title, description, duration_days, start_message, finish_message, created_at FROM courses ORDER BY id"
	if err := DB.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("failed to get courses: %v", err)
	}
	return courses, nil
}

// Create inserts a new course and returns its ID
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) (int64, error) {
	if DB.DriverName() == "postgres" {
		var id int64
		query := `INSERT INTO courses (title, description, duration_days, start_message, finish_message)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`
		err := DB.QueryRowContext(ctx, query, course.Title, course.Description, course.DurationDays,
			course.StartMessage, course.FinishMessage).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("failed to create course: %v", err)
		}
		return id, nil
	}

	query := `INSERT INTO courses (title, description, duration_days, start_message, finish_message)
		VALUES (?, ?, ?, ?, ?)`
	result, err := DB.ExecContext(ctx, query, course.Title, course.Description, course.DurationDays,
		course.StartMessage, course.FinishMessage)
	if err != nil {
		return 0, fmt.Errorf("failed to create course: %v", err)
	}
	return result.LastInsertId()
}

// Count returns the total number of courses
func (r *CourseRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := DB.GetContext(ctx, &count, "SELECT COUNT(*) FROM courses"); err != nil {
		return 0, fmt.Errorf("failed to count courses: %v", err)
	}
	return count, nil
}
