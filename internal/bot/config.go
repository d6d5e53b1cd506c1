package bot

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Long polling timeout in seconds
	UpdateTimeout int
	// Upper bound of lines accepted by one /add
	MaxWordsPerAdd int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		UpdateTimeout:  60,
		MaxWordsPerAdd: 100,
	}
}
