package bot

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/coursebot/internal/fsm"
)

// settingSupportGroup holds the chat ID support questions are relayed to
const settingSupportGroup = "support_group_id"

const (
	defaultSupportPrompt = "✍️ Напиши свой вопрос одним сообщением, и мы передадим его кураторам."
	defaultSupportSent   = "✅ Сообщение отправлено! Куратор ответит тебе в ближайшее время."
)

// handleSupportCommand opens the support prompt
func (b *Bot) handleSupportCommand(ctx context.Context, message *tgbotapi.Message, userID int64) {
	if err := b.states.Set(ctx, userID, fsm.AwaitingSupport{}); err != nil {
		log.Printf("Failed to set state for user %d: %v", userID, err)
		return
	}
	b.reply(message.Chat.ID, b.messages.Text(ctx, "support_prompt", defaultSupportPrompt))
}

// handleSupportMessage relays the user's question to the support group
func (b *Bot) handleSupportMessage(ctx context.Context, message *tgbotapi.Message, userID int64) {
	groupIDStr, err := b.store.Settings.Get(ctx, settingSupportGroup)
	if err != nil {
		log.Printf("Failed to read support group setting: %v", err)
	}

	// The prompt is closed either way; losing the question to a missing
	// group setting is logged, not shown
	defer func() {
		if err := b.restoreFlowState(ctx, userID); err != nil {
			log.Printf("Failed to restore state for user %d: %v", userID, err)
		}
	}()

	if groupIDStr == "" {
		log.Printf("Support message from user %d dropped: support group is not configured", userID)
		b.reply(message.Chat.ID, b.messages.Text(ctx, "support_sent", defaultSupportSent))
		return
	}
	groupID, err := strconv.ParseInt(groupIDStr, 10, 64)
	if err != nil {
		log.Printf("Invalid support group ID %q: %v", groupIDStr, err)
		return
	}

	from := message.From
	header := fmt.Sprintf("📩 Вопрос от %s", from.FirstName)
	if from.UserName != "" {
		header += " (@" + from.UserName + ")"
	}
	header += fmt.Sprintf(" [id %d]", from.ID)

	relay := tgbotapi.NewMessage(groupID, header+"\n\n"+message.Text)
	if _, err := b.api.Send(relay); err != nil {
		log.Printf("Failed to relay support message to group %d: %v", groupID, err)
		return
	}

	b.reply(message.Chat.ID, b.messages.Text(ctx, "support_sent", defaultSupportSent))
}

// restoreFlowState puts the user back into the state their enrollments
// imply after a side conversation
func (b *Bot) restoreFlowState(ctx context.Context, userID int64) error {
	enrollments, err := b.store.ActiveEnrollmentsByUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(enrollments) > 0 {
		return b.states.Set(ctx, userID, fsm.InProgress{})
	}
	return b.states.Set(ctx, userID, fsm.AwaitingAccessCode{})
}

// relayIDPattern extracts the user id embedded in relayed support messages
var relayIDPattern = regexp.MustCompile(`\[id (\d+)\]`)

// handleGroupReply sends a curator's reply in the support group back to
// the user who asked
func (b *Bot) handleGroupReply(ctx context.Context, message *tgbotapi.Message) {
	if message.ReplyToMessage == nil || message.Text == "" {
		return
	}

	groupIDStr, err := b.store.Settings.Get(ctx, settingSupportGroup)
	if err != nil || strconv.FormatInt(message.Chat.ID, 10) != groupIDStr {
		return
	}

	match := relayIDPattern.FindStringSubmatch(message.ReplyToMessage.Text)
	if match == nil {
		return
	}
	telegramID, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return
	}

	b.reply(telegramID, "💬 Ответ куратора:\n\n"+message.Text)
}

// handleSetGroup binds the current group chat as the support relay target
func (b *Bot) handleSetGroup(ctx context.Context, message *tgbotapi.Message) {
	if !b.isAdmin(message.From.ID) {
		return
	}
	chatID := message.Chat.ID
	if err := b.store.Settings.Set(ctx, settingSupportGroup, strconv.FormatInt(chatID, 10)); err != nil {
		log.Printf("Failed to save support group: %v", err)
		return
	}
	b.reply(chatID, "✅ Эта группа теперь получает вопросы пользователей.")
}
