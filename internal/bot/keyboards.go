package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/coursebot/internal/course"
	"github.com/example/coursebot/pkg/models"
)

// Reply menu button labels. The text handler matches on them, so the
// labels double as commands.
const (
	supportButtonText = "🆘 Поддержка"
	faqButtonText     = "❓ FAQ"
)

// mainMenuKeyboard is the persistent reply menu shown on /start
func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(supportButtonText),
			tgbotapi.NewKeyboardButton(faqButtonText),
		),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

// MenuButton represents a button in a menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// controlsKeyboard converts engine controls into a Telegram inline
// keyboard, one button per row
func controlsKeyboard(controls *course.Controls) tgbotapi.InlineKeyboardMarkup {
	buttons := make([][]MenuButton, 0, len(controls.Rows))
	for _, button := range controls.Rows {
		buttons = append(buttons, []MenuButton{{Text: button.Text, CallbackData: button.Data}})
	}
	return createKeyboard(buttons)
}

// faqMenuKeyboard lists FAQ questions as buttons
func faqMenuKeyboard(items []models.FAQItem) tgbotapi.InlineKeyboardMarkup {
	buttons := make([][]MenuButton, 0, len(items))
	for _, item := range items {
		buttons = append(buttons, []MenuButton{{
			Text:         item.Question,
			CallbackData: faqItemCallback(item.ID),
		}})
	}
	return createKeyboard(buttons)
}
