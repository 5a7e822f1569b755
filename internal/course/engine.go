package course

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/coursebot/internal/fsm"
	"github.com/example/coursebot/pkg/models"
)

// Engine drives lesson delivery and course completion for enrollments
type Engine struct {
	repo     Repository
	notifier Notifier
	states   fsm.Store
	now      func() time.Time
}

// NewEngine creates an engine over the given storage, notifier, and
// state store
func NewEngine(repo Repository, notifier Notifier, states fsm.Store) *Engine {
	return &Engine{
		repo:     repo,
		notifier: notifier,
		states:   states,
		now:      time.Now,
	}
}

// controls builds the inline keyboard a lesson is delivered with
func controls(lesson *models.Lesson) *Controls {
	switch lesson.LessonType {
	case models.LessonQuiz:
		var rows []Button
		for i, option := range lesson.Options() {
			rows = append(rows, Button{
				Text: option,
				Data: fmt.Sprintf("ans:%d:%d", lesson.ID, i),
			})
		}
		return &Controls{Rows: rows}
	case models.LessonTheory:
		return &Controls{Rows: []Button{
			{Text: "➡️ Далее", Data: fmt.Sprintf("next:%d", lesson.ID)},
		}}
	case models.LessonTextInput:
		// Re-opens the answer prompt if the user wandered off into
		// another dialog
		return &Controls{Rows: []Button{
			{Text: "✍️ Ответить", Data: fmt.Sprintf("reply:%d", lesson.ID)},
		}}
	default:
		return nil
	}
}

// Deliver sends a lesson to a user without touching progress. Every
// non-empty media attachment goes out as its own message; a failed
// attachment is logged and skipped so the rest of the lesson still
// arrives. Only the text send decides the delivery outcome.
func (e *Engine) Deliver(ctx context.Context, telegramID int64, lesson *models.Lesson) error {
	kb := controls(lesson)

	attachments := []struct {
		kind   MediaKind
		fileID string
	}{
		{MediaPhoto, lesson.Image},
		{MediaAudio, lesson.Audio},
		{MediaVideoNote, lesson.VideoNote},
		{MediaDocument, lesson.Document},
	}

	last := -1
	for i, a := range attachments {
		if a.fileID != "" {
			last = i
		}
	}

	for i, a := range attachments {
		if a.fileID == "" {
			continue
		}
		// A text-less lesson carries its keyboard on the final attachment
		var mediaKB *Controls
		if lesson.Text == "" && i == last {
			mediaKB = kb
		}
		if err := e.notifier.SendMedia(ctx, telegramID, a.kind, a.fileID, "", mediaKB); err != nil {
			log.Printf("Failed to send media for lesson %d to %d: %v", lesson.ID, telegramID, err)
		}
	}

	if lesson.Text == "" {
		return nil
	}
	return e.notifier.SendText(ctx, telegramID, lesson.Text, kb)
}

// Push delivers a lesson to an enrollment and records it as sent. Theory
// lessons complete immediately; quiz and typed lessons complete when the
// user answers. Typed lessons also open the answer prompt state.
func (e *Engine) Push(ctx context.Context, enrollment *models.Enrollment, lesson *models.Lesson) error {
	user, err := e.repo.UserByID(ctx, enrollment.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user %d: %v", enrollment.UserID, err)
	}

	if err := e.Deliver(ctx, user.TelegramID, lesson); err != nil {
		return fmt.Errorf("failed to deliver lesson %d to user %d: %v", lesson.ID, enrollment.UserID, err)
	}

	if _, err := e.repo.RecordSent(ctx, enrollment.UserID, lesson.ID); err != nil {
		return err
	}
	if lesson.LessonType == models.LessonTheory {
		if err := e.repo.MarkCompleted(ctx, enrollment.UserID, lesson.ID); err != nil {
			return err
		}
	}
	if lesson.LessonType == models.LessonTextInput {
		state := fsm.AwaitingTypedAnswer{LessonID: lesson.ID, Attempts: 0}
		if err := e.states.Set(ctx, enrollment.UserID, state); err != nil {
			return err
		}
	}

	if lesson.DayNumber != enrollment.CurrentDay {
		if err := e.repo.UpdateEnrollmentDay(ctx, enrollment.ID, lesson.DayNumber); err != nil {
			log.Printf("Failed to update current day for enrollment %d: %v", enrollment.ID, err)
		}
	}
	return nil
}

// AdvanceUser pushes the next due lesson on each of the user's active
// enrollments. It runs after any user interaction that may have opened
// the way for the next lesson.
func (e *Engine) AdvanceUser(ctx context.Context, userID int64) error {
	enrollments, err := e.repo.ActiveEnrollmentsByUser(ctx, userID)
	if err != nil {
		return err
	}

	for i := range enrollments {
		enrollment := &enrollments[i]
		due, exhausted, err := e.NextDue(ctx, enrollment)
		if err != nil {
			return err
		}
		if exhausted {
			if err := e.FinishCourse(ctx, enrollment); err != nil {
				return err
			}
			continue
		}
		if due == nil {
			continue
		}
		if err := e.Push(ctx, enrollment, &due.Lesson); err != nil {
			return err
		}
	}
	return nil
}

// FinishCourse closes an enrollment: sends the course finish message,
// deactivates the enrollment, and returns the user to the access code
// prompt once no active enrollments remain. The finish message is best
// effort; a send failure must not leave the enrollment active.
func (e *Engine) FinishCourse(ctx context.Context, enrollment *models.Enrollment) error {
	course, err := e.repo.CourseByID(ctx, enrollment.CourseID)
	if err != nil {
		return fmt.Errorf("failed to load course %d: %v", enrollment.CourseID, err)
	}

	user, err := e.repo.UserByID(ctx, enrollment.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user %d: %v", enrollment.UserID, err)
	}

	finish := course.FinishMessage
	if finish == "" {
		finish = fmt.Sprintf("🎉 Поздравляем! Ты прошёл курс «%s».", course.Title)
	}
	if err := e.notifier.SendText(ctx, user.TelegramID, finish, nil); err != nil {
		log.Printf("Failed to send finish message to user %d: %v", enrollment.UserID, err)
	}

	if err := e.repo.DeactivateEnrollment(ctx, enrollment.ID); err != nil {
		return err
	}

	remaining, err := e.repo.ActiveEnrollmentsByUser(ctx, enrollment.UserID)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		if err := e.states.Set(ctx, enrollment.UserID, fsm.AwaitingAccessCode{}); err != nil {
			return err
		}
	}
	return nil
}
