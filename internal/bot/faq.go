package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const defaultFAQTitle = "❓ Часто задаваемые вопросы. Выбери вопрос:"

func faqItemCallback(id int64) string {
	return fmt.Sprintf("faq:%d", id)
}

// handleFAQ shows the FAQ question menu
func (b *Bot) handleFAQ(ctx context.Context, message *tgbotapi.Message) {
	items, err := b.store.FAQ.GetVisible(ctx)
	if err != nil {
		log.Printf("Failed to load FAQ items: %v", err)
		return
	}
	if len(items) == 0 {
		b.reply(message.Chat.ID, "Раздел вопросов пока пуст. Используй /support, чтобы задать вопрос.")
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, b.messages.Text(ctx, "faq_title", defaultFAQTitle))
	msg.ReplyMarkup = faqMenuKeyboard(items)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send FAQ menu: %v", err)
	}
}

// handleFAQItem replaces the menu with the chosen answer and a back button
func (b *Bot) handleFAQItem(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	b.answerCallback(callback.ID, "", false)
	if callback.Message == nil {
		return
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(callback.Data, "faq:"), 10, 64)
	if err != nil {
		return
	}

	item, err := b.store.FAQ.GetByID(ctx, id)
	if err != nil {
		log.Printf("Failed to load FAQ item %d: %v", id, err)
		return
	}
	if item == nil {
		return
	}

	text := fmt.Sprintf("<b>%s</b>\n\n%s", item.Question, item.Answer)
	keyboard := createKeyboard([][]MenuButton{{
		{Text: "⬅️ Назад", CallbackData: "faq_menu"},
		{Text: "✖️ Закрыть", CallbackData: "faq_close"},
	}})

	edit := tgbotapi.NewEditMessageTextAndMarkup(callback.Message.Chat.ID, callback.Message.MessageID, text, keyboard)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Request(edit); err != nil {
		log.Printf("Failed to edit FAQ message: %v", err)
	}
}

// handleFAQClose removes the FAQ message from the chat
func (b *Bot) handleFAQClose(callback *tgbotapi.CallbackQuery) {
	b.answerCallback(callback.ID, "", false)
	if callback.Message == nil {
		return
	}
	del := tgbotapi.NewDeleteMessage(callback.Message.Chat.ID, callback.Message.MessageID)
	if _, err := b.api.Request(del); err != nil {
		log.Printf("Failed to delete FAQ message: %v", err)
	}
}

// handleFAQMenu returns from an answer back to the question list
func (b *Bot) handleFAQMenu(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	b.answerCallback(callback.ID, "", false)
	if callback.Message == nil {
		return
	}

	items, err := b.store.FAQ.GetVisible(ctx)
	if err != nil {
		log.Printf("Failed to load FAQ items: %v", err)
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(callback.Message.Chat.ID, callback.Message.MessageID,
		b.messages.Text(ctx, "faq_title", defaultFAQTitle), faqMenuKeyboard(items))
	if _, err := b.api.Request(edit); err != nil {
		log.Printf("Failed to edit FAQ message: %v", err)
	}
}
