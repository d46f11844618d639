package config

import (
	"fmt"
	"time"
)

// Validate checks values that the struct tags cannot express
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite3 or postgres, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN must not be empty")
	}

	if len(c.Learning.Intervals) == 0 {
		return fmt.Errorf("REVIEW_INTERVALS must not be empty")
	}
	for _, days := range c.Learning.Intervals {
		if days < 0 {
			return fmt.Errorf("REVIEW_INTERVALS must not contain negative values, got %d", days)
		}
	}
	if c.Learning.BatchSize <= 0 {
		return fmt.Errorf("LEARN_BATCH_SIZE must be positive, got %d", c.Learning.BatchSize)
	}
	if _, err := time.LoadLocation(c.Learning.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}

	if _, err := time.Parse("15:04", c.Reminder.At); err != nil {
		return fmt.Errorf("REMINDER_TIME must be HH:MM, got %q", c.Reminder.At)
	}

	if c.Redis.Addr != "" && c.Redis.StateTTL <= 0 {
		return fmt.Errorf("REDIS_STATE_TTL must be positive, got %s", c.Redis.StateTTL)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Log.Format)
	}
	return nil
}
