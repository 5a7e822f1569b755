package bot

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/coursebot/internal/course"
)

// SendText implements course.Notifier
func (b *Bot) SendText(ctx context.Context, telegramID int64, text string, controls *course.Controls) error {
	msg := tgbotapi.NewMessage(telegramID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if controls != nil {
		msg.ReplyMarkup = controlsKeyboard(controls)
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message to %d: %v", telegramID, err)
	}
	return nil
}

// SendMedia implements course.Notifier. The caption carries the lesson
// text for media kinds that support one.
func (b *Bot) SendMedia(ctx context.Context, telegramID int64, kind course.MediaKind, fileID, caption string, controls *course.Controls) error {
	var msg tgbotapi.Chattable

	switch kind {
	case course.MediaPhoto:
		m := tgbotapi.NewPhoto(telegramID, tgbotapi.FileID(fileID))
		m.Caption = caption
		m.ParseMode = tgbotapi.ModeHTML
		if controls != nil {
			m.ReplyMarkup = controlsKeyboard(controls)
		}
		msg = m
	case course.MediaAudio:
		m := tgbotapi.NewAudio(telegramID, tgbotapi.FileID(fileID))
		m.Caption = caption
		m.ParseMode = tgbotapi.ModeHTML
		if controls != nil {
			m.ReplyMarkup = controlsKeyboard(controls)
		}
		msg = m
	case course.MediaVideoNote:
		m := tgbotapi.NewVideoNote(telegramID, 0, tgbotapi.FileID(fileID))
		if controls != nil {
			m.ReplyMarkup = controlsKeyboard(controls)
		}
		msg = m
	case course.MediaDocument:
		m := tgbotapi.NewDocument(telegramID, tgbotapi.FileID(fileID))
		m.Caption = caption
		m.ParseMode = tgbotapi.ModeHTML
		if controls != nil {
			m.ReplyMarkup = controlsKeyboard(controls)
		}
		msg = m
	default:
		return fmt.Errorf("unknown media kind %d", kind)
	}

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send media to %d: %v", telegramID, err)
	}
	return nil
}

// answerCallback acknowledges a callback query, optionally with an alert
// popup
func (b *Bot) answerCallback(callbackID, text string, alert bool) {
	answer := tgbotapi.NewCallback(callbackID, text)
	answer.ShowAlert = alert
	if _, err := b.api.Request(answer); err != nil {
		log.Printf("Failed to answer callback: %v", err)
	}
}

// removeKeyboard strips the inline keyboard from a delivered message
func (b *Bot) removeKeyboard(chatID int64, messageID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	b.api.Request(edit)
}
