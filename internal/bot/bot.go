// Package bot wires the Telegram transport to the lesson engine: update
// dispatch, conversation state handling, and admin commands.
package bot

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/coursebot/internal/course"
	"github.com/example/coursebot/internal/database"
	"github.com/example/coursebot/internal/fsm"
)

// Bot represents the Telegram bot application
type Bot struct {
	api      *tgbotapi.BotAPI
	token    string
	store    *database.Store
	states   fsm.Store
	engine   *course.Engine
	messages *database.MessageCache
	config   *BotConfig

	adminUserIDs map[int64]bool

	// chat ID -> course ID awaiting a lesson spreadsheet upload
	importMu       sync.Mutex
	awaitingImport map[int64]int64
}

// New creates a new bot instance
func New(states fsm.Store) (*Bot, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	if database.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	store := database.NewStore()

	bot := &Bot{
		token:          token,
		store:          store,
		states:         states,
		messages:       database.NewMessageCache(store.Messages),
		config:         DefaultConfig(),
		adminUserIDs:   make(map[int64]bool),
		awaitingImport: make(map[int64]int64),
	}
	bot.engine = course.NewEngine(store, bot, states)

	adminIDs := os.Getenv("ADMIN_USER_IDS")
	if adminIDs != "" {
		for _, idStr := range strings.Split(adminIDs, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
			if err != nil {
				log.Printf("Warning: Invalid admin user ID: %s", idStr)
				continue
			}
			bot.adminUserIDs[id] = true
		}
	}

	return bot, nil
}

// Engine exposes the lesson engine for the delivery scheduler
func (b *Bot) Engine() *course.Engine {
	return b.engine
}

// Store exposes the data access layer
func (b *Bot) Store() *database.Store {
	return b.store
}

// Connect establishes the Telegram API connection. It must run before
// Start or any delivery.
func (b *Bot) Connect() error {
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %v", err)
	}

	b.api = botAPI
	log.Printf("Authorized on account %s", botAPI.Self.UserName)
	return nil
}

// Start processes updates until the channel closes
func (b *Bot) Start() error {
	if b.api == nil {
		if err := b.Connect(); err != nil {
			return err
		}
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout

	updates := b.api.GetUpdatesChan(updateConfig)

	for update := range updates {
		go b.handleUpdate(update)
	}

	return nil
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}
	log.Println("Bot stopped")
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.adminUserIDs[userID]
}
