package models

import (
	"fmt"
	"strings"
	"time"
)

// LessonType distinguishes how a lesson is completed by the user
type LessonType string

const (
	// LessonTheory is plain content, completed on delivery
	LessonTheory LessonType = "theory"
	// LessonQuiz is a test with answer buttons
	LessonQuiz LessonType = "quiz"
	// LessonTextInput expects the user to type the answer manually
	LessonTextInput LessonType = "text_input"
)

// Lesson is one deliverable unit of course content. Lessons of a course are
// totally ordered by (day_number, send_time, id); that ordering is the only
// advancement order.
type Lesson struct {
	ID         int64      `json:"id" db:"id"`
	CourseID   int64      `json:"course_id" db:"course_id"`
	DayNumber  int        `json:"day_number" db:"day_number"`
	SendTime   string     `json:"send_time" db:"send_time"` // "HH:MM"
	LessonType LessonType `json:"lesson_type" db:"lesson_type"`

	Text      string `json:"text" db:"text"`
	Image     string `json:"image" db:"image"`           // Telegram file ID
	Audio     string `json:"audio" db:"audio"`           // Telegram file ID
	VideoNote string `json:"video_note" db:"video_note"` // Telegram file ID
	Document  string `json:"document" db:"document"`     // Telegram file ID

	// QuizOptions holds one answer option per line (quiz only)
	QuizOptions string `json:"quiz_options" db:"quiz_options"`
	// CorrectAnswer is the exact text of the correct option, or the
	// expected phrase for text_input lessons
	CorrectAnswer string `json:"correct_answer" db:"correct_answer"`
	// ErrorFeedback holds one explanation per line, aligned to QuizOptions
	// by index; blank lines are allowed for options that need none
	ErrorFeedback string `json:"error_feedback" db:"error_feedback"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Options returns the quiz options with empty lines dropped
func (l *Lesson) Options() []string {
	var opts []string
	for _, line := range strings.Split(l.QuizOptions, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			opts = append(opts, line)
		}
	}
	return opts
}

// FeedbackLines returns per-option feedback. Empty lines are kept so
// indexes stay aligned with Options.
func (l *Lesson) FeedbackLines() []string {
	lines := strings.Split(l.ErrorFeedback, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines
}

// SendHourMinute parses the lesson's send-time slot
func (l *Lesson) SendHourMinute() (hour, minute int, err error) {
	if _, err = fmt.Sscanf(l.SendTime, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid send_time %q: %v", l.SendTime, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("send_time %q out of range", l.SendTime)
	}
	return hour, minute, nil
}

// NormalizeSendTime rewrites SendTime in the canonical zero-padded
// "HH:MM" form so the stored strings sort in chronological order.
// "9:05" becomes "09:05".
func (l *Lesson) NormalizeSendTime() error {
	hour, minute, err := l.SendHourMinute()
	if err != nil {
		return err
	}
	l.SendTime = fmt.Sprintf("%02d:%02d", hour, minute)
	return nil
}

// UnlockTime computes the instant at which the lesson becomes eligible for
// delivery: enrollment start plus day_number days, with the time of day
// replaced by the send-time slot (seconds zeroed).
func (l *Lesson) UnlockTime(enrollmentStart time.Time) (time.Time, error) {
	hour, minute, err := l.SendHourMinute()
	if err != nil {
		return time.Time{}, err
	}
	day := enrollmentStart.AddDate(0, 0, l.DayNumber)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}
