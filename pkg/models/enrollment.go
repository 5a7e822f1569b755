package models

import "time"

// Enrollment links a user to a course. One row per (user, course) pair;
// deactivated, never deleted, on completion or deadline expiry.
type Enrollment struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CourseID  int64     `json:"course_id" db:"course_id"`
	StartDate time.Time `json:"start_date" db:"start_date"`
	// CurrentDay is an informational cache of the elapsed day; all gating
	// uses elapsed time from StartDate, never this counter
	CurrentDay int  `json:"current_day" db:"current_day"`
	IsActive   bool `json:"is_active" db:"is_active"`
}

// RealDay returns the 1-based day of the course at the given instant
func (e *Enrollment) RealDay(now time.Time) int {
	if e.StartDate.IsZero() {
		return 0
	}
	return int(now.Sub(e.StartDate).Hours()/24) + 1
}

// Deadline is the instant after which the course is considered expired.
// The grace duration gives the user extra time to finish the last day.
func (e *Enrollment) Deadline(durationDays int, grace time.Duration) time.Time {
	return e.StartDate.AddDate(0, 0, durationDays).Add(grace)
}
