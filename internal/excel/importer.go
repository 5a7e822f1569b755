// Package excel imports course lessons from spreadsheet files uploaded
// by administrators.
package excel

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/coursebot/internal/database"
	"github.com/example/coursebot/pkg/models"
)

// Column layout of a lesson sheet. Options and feedback cells hold one
// value per line.
const (
	colDayNumber     = 0
	colSendTime      = 1
	colLessonType    = 2
	colText          = 3
	colImage         = 4
	colAudio         = 5
	colVideoNote     = 6
	colDocument      = 7
	colQuizOptions   = 8
	colCorrectAnswer = 9
	colErrorFeedback = 10
)

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// ImportLessons reads lesson rows from an Excel file and creates them in
// the given course. The first row is treated as a header and skipped.
func ImportLessons(ctx context.Context, r io.Reader, courseID int64) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	lessonRepo := database.NewLessonRepository()
	result := &ImportResult{Errors: make([]string, 0)}

	for i, row := range rows {
		// Skip header row
		if i == 0 {
			continue
		}
		if isEmptyRow(row) {
			continue
		}

		result.TotalProcessed++

		lesson, err := parseRow(row, courseID)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		if _, err := lessonRepo.Create(ctx, lesson); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		result.Created++
	}

	return result, nil
}

// parseRow converts one sheet row into a lesson
func parseRow(row []string, courseID int64) (*models.Lesson, error) {
	dayNumber, err := strconv.Atoi(strings.TrimSpace(cell(row, colDayNumber)))
	if err != nil || dayNumber < 1 {
		return nil, fmt.Errorf("invalid day number %q", cell(row, colDayNumber))
	}

	lesson := &models.Lesson{
		CourseID:      courseID,
		DayNumber:     dayNumber,
		SendTime:      strings.TrimSpace(cell(row, colSendTime)),
		LessonType:    models.LessonType(strings.TrimSpace(strings.ToLower(cell(row, colLessonType)))),
		Text:          strings.TrimSpace(cell(row, colText)),
		Image:         strings.TrimSpace(cell(row, colImage)),
		Audio:         strings.TrimSpace(cell(row, colAudio)),
		VideoNote:     strings.TrimSpace(cell(row, colVideoNote)),
		Document:      strings.TrimSpace(cell(row, colDocument)),
		QuizOptions:   strings.TrimSpace(cell(row, colQuizOptions)),
		CorrectAnswer: strings.TrimSpace(cell(row, colCorrectAnswer)),
		ErrorFeedback: strings.TrimSpace(cell(row, colErrorFeedback)),
	}

	if err := lesson.NormalizeSendTime(); err != nil {
		return nil, fmt.Errorf("invalid send time %q", lesson.SendTime)
	}

	switch lesson.LessonType {
	case models.LessonTheory:
	case models.LessonQuiz:
		if len(lesson.Options()) < 2 {
			return nil, fmt.Errorf("quiz lesson needs at least two options")
		}
		if lesson.CorrectAnswer == "" {
			return nil, fmt.Errorf("quiz lesson needs a correct answer")
		}
	case models.LessonTextInput:
		if lesson.CorrectAnswer == "" {
			return nil, fmt.Errorf("text input lesson needs a correct answer")
		}
	default:
		return nil, fmt.Errorf("unknown lesson type %q", lesson.LessonType)
	}

	if lesson.Text == "" && lesson.Image == "" && lesson.Audio == "" && lesson.VideoNote == "" && lesson.Document == "" {
		return nil, fmt.Errorf("lesson has no content")
	}

	return lesson, nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
