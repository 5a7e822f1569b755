package database

import (
	"context"
	"time"

	"github.com/example/coursebot/pkg/models"
)

// Store bundles the repositories behind the data access surface the
// lesson engine and scheduler work against
type Store struct {
	Users       *UserRepository
	Courses     *CourseRepository
	Lessons     *LessonRepository
	Enrollments *EnrollmentRepository
	Progress    *ProgressRepository
	Codes       *AccessCodeRepository
	FAQ         *FAQRepository
	Messages    *MessageRepository
	Settings    *SettingsRepository
}

// NewStore creates a store over the shared database connection
func NewStore() *Store {
	return &Store{
		Users:       NewUserRepository(),
		Courses:     NewCourseRepository(),
		Lessons:     NewLessonRepository(),
		Enrollments: NewEnrollmentRepository(),
		Progress:    NewProgressRepository(),
		Codes:       NewAccessCodeRepository(),
		FAQ:         NewFAQRepository(),
		Messages:    NewMessageRepository(),
		Settings:    NewSettingsRepository(),
	}
}

func (s *Store) ActiveEnrollments(ctx context.Context) ([]models.Enrollment, error) {
	return s.Enrollments.GetActive(ctx)
}

func (s *Store) ActiveEnrollmentsByUser(ctx context.Context, userID int64) ([]models.Enrollment, error) {
	return s.Enrollments.GetActiveByUser(ctx, userID)
}

func (s *Store) CourseByID(ctx context.Context, id int64) (*models.Course, error) {
	return s.Courses.GetByID(ctx, id)
}

func (s *Store) CourseLessons(ctx context.Context, courseID int64) ([]models.Lesson, error) {
	return s.Lessons.GetByCourse(ctx, courseID)
}

func (s *Store) LessonByID(ctx context.Context, id int64) (*models.Lesson, error) {
	return s.Lessons.GetByID(ctx, id)
}

func (s *Store) UserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.Users.GetByID(ctx, id)
}

func (s *Store) SentLessonIDs(ctx context.Context, userID, courseID int64) (map[int64]struct{}, error) {
	return s.Progress.SentLessonIDs(ctx, userID, courseID)
}

func (s *Store) RecordSent(ctx context.Context, userID, lessonID int64) (bool, error) {
	return s.Progress.RecordSent(ctx, userID, lessonID)
}

func (s *Store) MarkCompleted(ctx context.Context, userID, lessonID int64) error {
	return s.Progress.MarkCompleted(ctx, userID, lessonID)
}

func (s *Store) LastProgressAt(ctx context.Context, userID int64) (*time.Time, error) {
	return s.Progress.LastProgressAt(ctx, userID)
}

func (s *Store) DeactivateEnrollment(ctx context.Context, enrollmentID int64) error {
	return s.Enrollments.Deactivate(ctx, enrollmentID)
}

func (s *Store) UpdateEnrollmentDay(ctx context.Context, enrollmentID int64, day int) error {
	return s.Enrollments.UpdateCurrentDay(ctx, enrollmentID, day)
}
