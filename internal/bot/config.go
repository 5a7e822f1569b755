package bot

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Number of attempts a user gets on a typed answer before the
	// lesson is closed with the correct answer shown
	MaxTypedAttempts int
	// Long polling timeout in seconds
	UpdateTimeout int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		MaxTypedAttempts: 3,
		UpdateTimeout:    60,
	}
}
