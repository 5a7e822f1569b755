package course

import (
	"context"
	"fmt"

	"github.com/example/coursebot/pkg/models"
)

// DueLesson is the next lesson an enrollment should receive
type DueLesson struct {
	Lesson models.Lesson
	// BlockStart is true when the lesson opens a new (day, time) block.
	// The scheduler only auto-sends block starts; lessons deeper in a
	// block flow as the user works through it.
	BlockStart bool
}

// NextDue resolves the next deliverable lesson for an enrollment. It
// returns (nil, true, nil) when every lesson of the course has been sent,
// and (nil, false, nil) when the next lesson exists but has not unlocked
// yet.
func (e *Engine) NextDue(ctx context.Context, enrollment *models.Enrollment) (*DueLesson, bool, error) {
	lessons, err := e.repo.CourseLessons(ctx, enrollment.CourseID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load lessons for course %d: %v", enrollment.CourseID, err)
	}
	if len(lessons) == 0 {
		return nil, true, nil
	}

	sent, err := e.repo.SentLessonIDs(ctx, enrollment.UserID, enrollment.CourseID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load progress for user %d: %v", enrollment.UserID, err)
	}

	for i, lesson := range lessons {
		if _, ok := sent[lesson.ID]; ok {
			continue
		}

		unlock, err := lesson.UnlockTime(enrollment.StartDate)
		if err != nil {
			return nil, false, fmt.Errorf("lesson %d has bad send time: %v", lesson.ID, err)
		}
		if e.now().Before(unlock) {
			return nil, false, nil
		}

		blockStart := i == 0 ||
			lessons[i-1].DayNumber != lesson.DayNumber ||
			lessons[i-1].SendTime != lesson.SendTime
		return &DueLesson{Lesson: lesson, BlockStart: blockStart}, false, nil
	}
	return nil, true, nil
}
