package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/coursebot/internal/course"
	"github.com/example/coursebot/internal/fsm"
	"github.com/example/coursebot/pkg/models"
)

const (
	defaultCodeNotFound = "❌ Такой код не найден. Попробуй еще раз."
	defaultCodeInactive = "⛔ Этот код уже неактивен."
	defaultCodeUsed     = "❌ Этот код уже активирован другим пользователем."
	defaultCorrect      = "✅ Правильно!"
	defaultWrong        = "❌ Неверно. Попробуй еще раз."
	defaultExhausted    = "😔 Попытки исчерпаны."
)

// handleAccessCode treats the message text as an access code and enrolls
// the user into every course the code unlocks
func (b *Bot) handleAccessCode(ctx context.Context, message *tgbotapi.Message, userID int64) {
	code := strings.TrimSpace(message.Text)

	ac, err := b.store.Codes.FindByCode(ctx, code)
	if err != nil {
		log.Printf("Failed to look up access code: %v", err)
		return
	}
	if ac == nil {
		b.reply(message.Chat.ID, b.messages.Text(ctx, "code_not_found", defaultCodeNotFound))
		return
	}
	if !ac.IsActive {
		b.reply(message.Chat.ID, b.messages.Text(ctx, "code_inactive", defaultCodeInactive))
		return
	}
	if ac.ActivatedBy != nil && *ac.ActivatedBy != userID {
		b.reply(message.Chat.ID, b.messages.Text(ctx, "code_used", defaultCodeUsed))
		return
	}
	if ac.ActivatedBy == nil {
		if err := b.store.Codes.Claim(ctx, ac.ID, userID); err != nil {
			// Lost the race to another user
			b.reply(message.Chat.ID, b.messages.Text(ctx, "code_used", defaultCodeUsed))
			return
		}
	}

	enrolled := 0
	for _, courseID := range ac.CourseIDs {
		c, err := b.store.CourseByID(ctx, courseID)
		if err != nil {
			log.Printf("Failed to load course %d: %v", courseID, err)
			continue
		}

		_, already, err := b.store.Enrollments.CreateOrReactivate(ctx, userID, courseID)
		if err != nil {
			log.Printf("Failed to enroll user %d into course %d: %v", userID, courseID, err)
			continue
		}
		if already {
			continue
		}
		enrolled++

		start := c.StartMessage
		if start == "" {
			start = fmt.Sprintf("🚀 Курс «%s» начинается! Первый урок придет по расписанию.", c.Title)
		}
		b.reply(message.Chat.ID, start)
	}

	if enrolled == 0 {
		b.reply(message.Chat.ID, b.messages.Text(ctx, "already_enrolled", "Ты уже записан на все курсы этого кода."))
		return
	}

	if err := b.states.Set(ctx, userID, fsm.InProgress{}); err != nil {
		log.Printf("Failed to set state for user %d: %v", userID, err)
	}

	// Push whatever is already unlocked, so a mid-day activation does
	// not wait for the next sweep
	if err := b.engine.AdvanceUser(ctx, userID); err != nil {
		log.Printf("Failed to advance user %d after enrollment: %v", userID, err)
	}
}

// handleQuizAnswer grades an "ans:<lessonID>:<optionIndex>" button press
func (b *Bot) handleQuizAnswer(ctx context.Context, callback *tgbotapi.CallbackQuery, userID int64) {
	parts := strings.Split(callback.Data, ":")
	if len(parts) != 3 {
		b.answerCallback(callback.ID, "", false)
		return
	}
	lessonID, err1 := strconv.ParseInt(parts[1], 10, 64)
	optionIdx, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		b.answerCallback(callback.ID, "", false)
		return
	}

	lesson, err := b.store.LessonByID(ctx, lessonID)
	if err != nil {
		log.Printf("Failed to load lesson %d: %v", lessonID, err)
		b.answerCallback(callback.ID, "", false)
		return
	}

	options := lesson.Options()
	if optionIdx < 0 || optionIdx >= len(options) {
		b.answerCallback(callback.ID, "", false)
		return
	}

	if options[optionIdx] != strings.TrimSpace(lesson.CorrectAnswer) {
		feedback := b.messages.Text(ctx, "quiz_wrong", defaultWrong)
		if lines := lesson.FeedbackLines(); optionIdx < len(lines) && strings.TrimSpace(lines[optionIdx]) != "" {
			feedback = lines[optionIdx]
		}
		b.answerCallback(callback.ID, feedback, true)
		return
	}

	b.answerCallback(callback.ID, b.messages.Text(ctx, "quiz_correct", defaultCorrect), false)
	if callback.Message != nil {
		b.markQuizResult(callback.Message.Chat.ID, callback.Message.MessageID, options, optionIdx)
	}

	if err := b.store.MarkCompleted(ctx, userID, lessonID); err != nil {
		log.Printf("Failed to complete lesson %d for user %d: %v", lessonID, userID, err)
		return
	}
	if err := b.engine.AdvanceUser(ctx, userID); err != nil {
		log.Printf("Failed to advance user %d: %v", userID, err)
	}
}

// markQuizResult freezes a graded quiz keyboard: the chosen option gets a
// checkmark, the rest crosses, and every button becomes inert
func (b *Bot) markQuizResult(chatID int64, messageID int, options []string, chosen int) {
	buttons := make([][]MenuButton, 0, len(options))
	for i, option := range options {
		mark := "❌"
		if i == chosen {
			mark = "✅"
		}
		buttons = append(buttons, []MenuButton{{Text: mark + " " + option, CallbackData: "noop"}})
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, createKeyboard(buttons))
	if _, err := b.api.Request(edit); err != nil {
		log.Printf("Failed to freeze quiz keyboard: %v", err)
	}
}

// handleReplyTrigger reopens the typed answer prompt for a lesson
func (b *Bot) handleReplyTrigger(ctx context.Context, callback *tgbotapi.CallbackQuery, userID int64) {
	lessonID, err := strconv.ParseInt(strings.TrimPrefix(callback.Data, "reply:"), 10, 64)
	if err != nil {
		b.answerCallback(callback.ID, "", false)
		return
	}
	if err := b.states.Set(ctx, userID, fsm.AwaitingTypedAnswer{LessonID: lessonID, Attempts: 0}); err != nil {
		log.Printf("Failed to set state for user %d: %v", userID, err)
	}
	b.answerCallback(callback.ID, "", false)
	if callback.Message != nil {
		b.reply(callback.Message.Chat.ID, "✍️ Напиши свой ответ сообщением.")
	}
}

// handleTypedAnswer grades a free-text answer against the open
// text-input lesson
func (b *Bot) handleTypedAnswer(ctx context.Context, message *tgbotapi.Message, userID int64, state fsm.AwaitingTypedAnswer) {
	lesson, err := b.store.LessonByID(ctx, state.LessonID)
	if err != nil {
		log.Printf("Failed to load lesson %d: %v", state.LessonID, err)
		return
	}
	if lesson.LessonType != models.LessonTextInput {
		log.Printf("User %d has typed answer state for non-typed lesson %d", userID, state.LessonID)
		b.closeTypedLesson(ctx, userID, state.LessonID)
		return
	}

	result := course.CheckTypedAnswer(message.Text, lesson.CorrectAnswer)
	if result.Correct {
		b.reply(message.Chat.ID, b.messages.Text(ctx, "quiz_correct", defaultCorrect))
		b.closeTypedLesson(ctx, userID, state.LessonID)
		return
	}

	state.Attempts++
	if state.Attempts >= b.config.MaxTypedAttempts {
		text := fmt.Sprintf("%s\n\nПравильный ответ: <b>%s</b>",
			b.messages.Text(ctx, "typed_exhausted", defaultExhausted), lesson.CorrectAnswer)
		b.reply(message.Chat.ID, text)
		b.closeTypedLesson(ctx, userID, state.LessonID)
		return
	}

	var hint string
	if result.LengthMismatch {
		hint = "💡 Количество слов не совпадает."
	} else {
		hint = fmt.Sprintf("💡 Ошибка начинается со слова: <b>%s</b> (нужно: %s)", result.UserToken, result.WantToken)
	}
	b.reply(message.Chat.ID, fmt.Sprintf("%s\n%s Осталось попыток: %d.",
		b.messages.Text(ctx, "typed_wrong", defaultWrong), hint, b.config.MaxTypedAttempts-state.Attempts))

	if err := b.states.Set(ctx, userID, state); err != nil {
		log.Printf("Failed to save attempts for user %d: %v", userID, err)
	}
}

// closeTypedLesson completes a typed lesson, returns the user to the
// in-progress state, and pushes the next due lesson
func (b *Bot) closeTypedLesson(ctx context.Context, userID, lessonID int64) {
	if err := b.store.MarkCompleted(ctx, userID, lessonID); err != nil {
		log.Printf("Failed to complete lesson %d for user %d: %v", lessonID, userID, err)
		return
	}
	if err := b.states.Set(ctx, userID, fsm.InProgress{}); err != nil {
		log.Printf("Failed to set state for user %d: %v", userID, err)
	}
	if err := b.engine.AdvanceUser(ctx, userID); err != nil {
		log.Printf("Failed to advance user %d: %v", userID, err)
	}
}

// handleNext handles the continue button under a theory lesson
func (b *Bot) handleNext(ctx context.Context, callback *tgbotapi.CallbackQuery, userID int64) {
	b.answerCallback(callback.ID, "", false)
	if callback.Message != nil {
		b.removeKeyboard(callback.Message.Chat.ID, callback.Message.MessageID)
	}
	if err := b.engine.AdvanceUser(ctx, userID); err != nil {
		log.Printf("Failed to advance user %d: %v", userID, err)
	}
}
