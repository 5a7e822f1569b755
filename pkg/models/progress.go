package models

import "time"

// Progress records that a lesson was delivered to a user. Append-only; the
// existence of a row for (user, lesson) is the sole de-duplication signal.
// CompletedAt is set on delivery for theory lessons and on a graded outcome
// for quiz/text_input lessons.
type Progress struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	LessonID    int64      `json:"lesson_id" db:"lesson_id"`
	SentAt      time.Time  `json:"sent_at" db:"sent_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
}
