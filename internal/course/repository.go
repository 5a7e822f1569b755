// Package course implements lesson resolution, delivery, and answer
// grading on top of the enrollment and progress storage.
package course

import (
	"context"
	"time"

	"github.com/example/coursebot/pkg/models"
)

// Repository is the storage surface the engine needs. *database.Store
// satisfies it.
type Repository interface {
	ActiveEnrollments(ctx context.Context) ([]models.Enrollment, error)
	ActiveEnrollmentsByUser(ctx context.Context, userID int64) ([]models.Enrollment, error)
	CourseByID(ctx context.Context, id int64) (*models.Course, error)
	CourseLessons(ctx context.Context, courseID int64) ([]models.Lesson, error)
	LessonByID(ctx context.Context, id int64) (*models.Lesson, error)
	UserByID(ctx context.Context, id int64) (*models.User, error)
	SentLessonIDs(ctx context.Context, userID, courseID int64) (map[int64]struct{}, error)
	RecordSent(ctx context.Context, userID, lessonID int64) (bool, error)
	MarkCompleted(ctx context.Context, userID, lessonID int64) error
	LastProgressAt(ctx context.Context, userID int64) (*time.Time, error)
	DeactivateEnrollment(ctx context.Context, enrollmentID int64) error
	UpdateEnrollmentDay(ctx context.Context, enrollmentID int64, day int) error
}

// MediaKind selects which Telegram send method a file ID goes through
type MediaKind int

const (
	MediaPhoto MediaKind = iota
	MediaAudio
	MediaVideoNote
	MediaDocument
)

// Button is one inline keyboard button
type Button struct {
	Text string
	Data string
}

// Controls is an inline keyboard, one button per row
type Controls struct {
	Rows []Button
}

// Notifier delivers messages to users. The bot layer implements it over
// the Telegram API; tests use a recording fake.
type Notifier interface {
	SendText(ctx context.Context, telegramID int64, text string, controls *Controls) error
	SendMedia(ctx context.Context, telegramID int64, kind MediaKind, fileID, caption string, controls *Controls) error
}
