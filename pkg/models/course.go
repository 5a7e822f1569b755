package models

import "time"

// Course represents a time-boxed mini-course delivered over the bot
type Course struct {
	ID            int64     `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Description   string    `json:"description" db:"description"`
	DurationDays  int       `json:"duration_days" db:"duration_days"`
	StartMessage  string    `json:"start_message" db:"start_message"`
	FinishMessage string    `json:"finish_message" db:"finish_message"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
