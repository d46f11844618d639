package bot

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/engbot/internal/config"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Long polling timeout in seconds
	UpdateTimeout int
	// Users allowed to upload word lists
	AdminUserIDs map[int64]bool
	// Upper bound for fetching an uploaded document
	DownloadTimeout time.Duration
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		UpdateTimeout:   60,
		AdminUserIDs:    make(map[int64]bool),
		DownloadTimeout: 30 * time.Second,
	}
}

// ConfigFrom builds the bot configuration from the Telegram settings
func ConfigFrom(cfg config.TelegramConfig) *BotConfig {
	c := DefaultConfig()
	if cfg.UpdateTimeout > 0 {
		c.UpdateTimeout = cfg.UpdateTimeout
	}
	for _, id := range cfg.AdminUserIDs {
		c.AdminUserIDs[id] = true
	}
	return c
}

// botCommands is the menu registered with Telegram
var botCommands = []tgbotapi.BotCommand{
	{Command: "add", Description: "добавить слово"},
	{Command: "learn", Description: "получить новые слова"},
	{Command: "repeat", Description: "повторить слова"},
	{Command: "test", Description: "проверить перевод"},
	{Command: "stop", Description: "остановить текущее действие"},
	{Command: "stats", Description: "твой прогресс"},
	{Command: "help", Description: "список команд"},
}
