// Package scheduler runs the periodic sweep that pushes due lessons and
// closes expired enrollments.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/coursebot/internal/course"
	"github.com/example/coursebot/pkg/models"
)

const (
	// progressCooldown keeps the sweep from stacking a scheduled lesson
	// right on top of one the user just worked through
	progressCooldown = 5 * time.Minute

	// deadlineGrace extends the course deadline by one day before the
	// sweep force-finishes an enrollment
	deadlineGrace = 24 * time.Hour
)

// Engine is the lesson engine surface the sweep drives
type Engine interface {
	NextDue(ctx context.Context, enrollment *models.Enrollment) (*course.DueLesson, bool, error)
	Push(ctx context.Context, enrollment *models.Enrollment, lesson *models.Lesson) error
	FinishCourse(ctx context.Context, enrollment *models.Enrollment) error
}

// Scheduler wraps the cron runner around the delivery sweep
type Scheduler struct {
	cron   *gocron.Scheduler
	repo   course.Repository
	engine Engine
	now    func() time.Time
}

// New creates a scheduler over the given storage and engine
func New(repo course.Repository, engine Engine) *Scheduler {
	return &Scheduler{
		cron:   gocron.NewScheduler(time.UTC),
		repo:   repo,
		engine: engine,
		now:    time.Now,
	}
}

// Start begins the once-a-minute sweep in the background
func (s *Scheduler) Start() error {
	if _, err := s.cron.Every(1).Minute().Do(s.Sweep); err != nil {
		return err
	}
	s.cron.StartAsync()
	log.Println("Scheduler started, sweeping every minute")
	return nil
}

// Stop halts the cron runner
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Sweep walks every active enrollment once. Failures are isolated per
// enrollment so one broken user never blocks the rest.
func (s *Scheduler) Sweep() {
	ctx := context.Background()

	enrollments, err := s.repo.ActiveEnrollments(ctx)
	if err != nil {
		log.Printf("Sweep: failed to load active enrollments: %v", err)
		return
	}

	for i := range enrollments {
		if err := s.sweepEnrollment(ctx, &enrollments[i]); err != nil {
			log.Printf("Sweep: enrollment %d (user %d): %v", enrollments[i].ID, enrollments[i].UserID, err)
		}
	}
}

func (s *Scheduler) sweepEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	c, err := s.repo.CourseByID(ctx, enrollment.CourseID)
	if err != nil {
		return err
	}

	if s.now().After(enrollment.Deadline(c.DurationDays, deadlineGrace)) {
		return s.engine.FinishCourse(ctx, enrollment)
	}

	last, err := s.repo.LastProgressAt(ctx, enrollment.UserID)
	if err != nil {
		return err
	}
	if last != nil && s.now().Sub(*last) < progressCooldown {
		return nil
	}

	due, exhausted, err := s.engine.NextDue(ctx, enrollment)
	if err != nil {
		return err
	}
	if exhausted {
		return s.engine.FinishCourse(ctx, enrollment)
	}
	if due == nil || !due.BlockStart {
		// Mid-block lessons flow as the user works through the block,
		// not on the clock.
		return nil
	}
	return s.engine.Push(ctx, enrollment, &due.Lesson)
}
