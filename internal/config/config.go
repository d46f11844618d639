// Package config loads the bot configuration from the environment and an optional .env file.
package config

import (
	"time"
)

// Config is the root application configuration
type Config struct {
	Telegram TelegramConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Learning LearningConfig
	Reminder ReminderConfig
	Log      LogConfig
}

// TelegramConfig holds bot API settings
type TelegramConfig struct {
	Token        string  `env:"TELEGRAM_BOT_TOKEN" env-required:"true"`
	AdminUserIDs []int64 `env:"ADMIN_USER_IDS" env-separator:","`
	// Long polling timeout in seconds
	UpdateTimeout int `env:"TELEGRAM_UPDATE_TIMEOUT" env-default:"60"`
}

// DatabaseConfig selects the SQL backend
type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER" env-default:"sqlite3"`
	DSN    string `env:"DB_DSN" env-default:"data/engbot.db"`
}

// RedisConfig enables persisted conversation state when Addr is set
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" env-default:"0"`
	StateTTL time.Duration `env:"REDIS_STATE_TTL" env-default:"24h"`
}

// LearningConfig tunes the review schedule
type LearningConfig struct {
	Intervals []int  `env:"REVIEW_INTERVALS" env-separator:"," env-default:"0,1,3,7,14"`
	BatchSize int    `env:"LEARN_BATCH_SIZE" env-default:"5"`
	Timezone  string `env:"TIMEZONE" env-default:"UTC"`
}

// ReminderConfig controls the daily due-word reminder
type ReminderConfig struct {
	Enabled bool   `env:"REMINDER_ENABLED" env-default:"true"`
	At      string `env:"REMINDER_TIME" env-default:"09:00"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"`
}

// Location returns the canonical zone used to compute "today"
func (c LearningConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
