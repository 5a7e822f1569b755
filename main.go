package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/example/coursebot/internal/bot"
	"github.com/example/coursebot/internal/database"
	"github.com/example/coursebot/internal/fsm"
	"github.com/example/coursebot/internal/scheduler"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Conversation state lives in Redis when configured, otherwise in
	// process memory
	var states fsm.Store
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisStore, err := fsm.NewRedisStore(context.Background(), addr)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisStore.Close()
		states = redisStore
		log.Printf("Using Redis state store at %s", addr)
	} else {
		states = fsm.NewMemoryStore()
		log.Println("Using in-memory state store")
	}

	b, err := bot.New(states)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	if err := b.Connect(); err != nil {
		log.Fatalf("Failed to connect to Telegram: %v", err)
	}

	sched := scheduler.New(b.Store(), b.Engine())
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v", sig)
		sched.Stop()
		b.Stop()
		database.Close()
		os.Exit(0)
	}()

	log.Println("Bot started. Press Ctrl+C to stop.")
	if err := b.Start(); err != nil {
		log.Fatalf("Bot error: %v", err)
	}
}
