package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/coursebot/internal/fsm"
)

// Default texts used when the bot_messages table has no override for a
// slug
const (
	defaultWelcome        = "👋 Привет! Это бот с обучающими курсами.\n\nВведи код доступа, чтобы начать обучение."
	defaultInProgressText = "Уроки приходят по расписанию. Если есть вопрос, используй /support."
)

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic while handling update: %v", r)
		}
	}()

	ctx := context.Background()

	if update.CallbackQuery != nil {
		b.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil {
		return
	}

	message := update.Message
	if message.From == nil {
		return
	}

	// Group messages: /setgroup binds the support group, replies there
	// go back to the asking user
	if !message.Chat.IsPrivate() {
		if message.IsCommand() && message.Command() == "setgroup" {
			b.handleSetGroup(ctx, message)
			return
		}
		b.handleGroupReply(ctx, message)
		return
	}

	user, _, err := b.store.Users.GetOrCreate(ctx, message.From.ID, message.From.UserName, message.From.FirstName)
	if err != nil {
		log.Printf("Failed to get or create user %d: %v", message.From.ID, err)
		return
	}

	if message.IsCommand() {
		b.handleCommand(ctx, message, user.ID)
		return
	}

	if message.Document != nil && b.isAdmin(message.From.ID) {
		if b.handleImportUpload(ctx, message) {
			return
		}
	}

	if message.Text != "" {
		b.handleText(ctx, message, user.ID)
	}
}

// handleCommand dispatches bot commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message, userID int64) {
	switch message.Command() {
	case "start":
		b.handleStart(ctx, message, userID)
	case "faq":
		b.handleFAQ(ctx, message)
	case "support":
		b.handleSupportCommand(ctx, message, userID)
	case "gencode":
		b.requireAdmin(message, func() { b.handleGenCode(ctx, message) })
	case "import":
		b.requireAdmin(message, func() { b.handleImportCommand(ctx, message) })
	case "courses":
		b.requireAdmin(message, func() { b.handleCourses(ctx, message) })
	case "addcourse":
		b.requireAdmin(message, func() { b.handleAddCourse(ctx, message) })
	case "setmessage":
		b.requireAdmin(message, func() { b.handleSetMessage(ctx, message) })
	case "admin_stats":
		b.requireAdmin(message, func() { b.handleAdminStats(ctx, message) })
	case "test":
		b.requireAdmin(message, func() { b.handleTestLesson(ctx, message) })
	default:
		b.reply(message.Chat.ID, "Неизвестная команда. Доступны /start, /faq, /support.")
	}
}

// requireAdmin runs fn only for administrators
func (b *Bot) requireAdmin(message *tgbotapi.Message, fn func()) {
	if !b.isAdmin(message.From.ID) {
		b.reply(message.Chat.ID, "Эта команда доступна только администраторам.")
		return
	}
	fn()
}

// handleStart greets the user and prompts for an access code when no
// course is running
func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message, userID int64) {
	enrollments, err := b.store.ActiveEnrollmentsByUser(ctx, userID)
	if err != nil {
		log.Printf("Failed to load enrollments for user %d: %v", userID, err)
		return
	}

	if len(enrollments) > 0 {
		var lines []string
		for _, e := range enrollments {
			c, err := b.store.CourseByID(ctx, e.CourseID)
			if err != nil {
				continue
			}
			lines = append(lines, fmt.Sprintf("📖 «%s» — день %d из %d", c.Title, e.RealDay(time.Now()), c.DurationDays))
		}
		text := b.messages.Text(ctx, "start_in_progress", defaultInProgressText)
		if len(lines) > 0 {
			text += "\n\n" + strings.Join(lines, "\n")
		}
		b.replyWithMenu(message.Chat.ID, text)
		return
	}

	if err := b.states.Set(ctx, userID, fsm.AwaitingAccessCode{}); err != nil {
		log.Printf("Failed to set state for user %d: %v", userID, err)
	}
	b.replyWithMenu(message.Chat.ID, b.messages.Text(ctx, "welcome", defaultWelcome))
}

// handleText dispatches a plain text message by conversation state
func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message, userID int64) {
	// Reply menu buttons work from any state
	switch message.Text {
	case supportButtonText:
		b.handleSupportCommand(ctx, message, userID)
		return
	case faqButtonText:
		b.handleFAQ(ctx, message)
		return
	}

	state, err := b.states.Get(ctx, userID)
	if err != nil {
		log.Printf("Failed to get state for user %d: %v", userID, err)
		return
	}

	switch s := state.(type) {
	case fsm.AwaitingTypedAnswer:
		b.handleTypedAnswer(ctx, message, userID, s)
	case fsm.AwaitingSupport:
		b.handleSupportMessage(ctx, message, userID)
	case fsm.AwaitingAccessCode:
		b.handleAccessCode(ctx, message, userID)
	case fsm.InProgress:
		b.reply(message.Chat.ID, b.messages.Text(ctx, "in_progress", defaultInProgressText))
	default:
		// No stored state: new users go straight to the code prompt
		enrollments, err := b.store.ActiveEnrollmentsByUser(ctx, userID)
		if err != nil {
			log.Printf("Failed to load enrollments for user %d: %v", userID, err)
			return
		}
		if len(enrollments) > 0 {
			b.reply(message.Chat.ID, b.messages.Text(ctx, "in_progress", defaultInProgressText))
			return
		}
		b.handleAccessCode(ctx, message, userID)
	}
}

// handleCallbackQuery dispatches inline button presses by data prefix
func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	data := callback.Data

	user, _, err := b.store.Users.GetOrCreate(ctx, callback.From.ID, callback.From.UserName, callback.From.FirstName)
	if err != nil {
		log.Printf("Failed to get or create user %d: %v", callback.From.ID, err)
		b.answerCallback(callback.ID, "", false)
		return
	}

	switch {
	case strings.HasPrefix(data, "ans:"):
		b.handleQuizAnswer(ctx, callback, user.ID)
	case strings.HasPrefix(data, "next:"):
		b.handleNext(ctx, callback, user.ID)
	case strings.HasPrefix(data, "reply:"):
		b.handleReplyTrigger(ctx, callback, user.ID)
	case data == "noop":
		b.answerCallback(callback.ID, "", false)
	case strings.HasPrefix(data, "faq:"):
		b.handleFAQItem(ctx, callback)
	case data == "faq_menu":
		b.handleFAQMenu(ctx, callback)
	case data == "faq_close":
		b.handleFAQClose(callback)
	default:
		b.answerCallback(callback.ID, "", false)
	}
}

// reply sends a plain HTML message to a chat
func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send message to %d: %v", chatID, err)
	}
}

// replyWithMenu sends a message and attaches the persistent reply menu
func (b *Bot) replyWithMenu(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send message to %d: %v", chatID, err)
	}
}
