package models

import "time"

// AccessCode unlocks a set of courses. The first user to claim it becomes
// its permanent owner; re-use by anyone else is rejected.
type AccessCode struct {
	ID          int64     `json:"id" db:"id"`
	Code        string    `json:"code" db:"code"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	ActivatedBy *int64    `json:"activated_by" db:"activated_by"` // user ID, nil until first claim
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// CourseIDs is loaded from the join table, ordered by course id
	CourseIDs []int64 `json:"course_ids" db:"-"`
}
