package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, 60, cfg.Telegram.UpdateTimeout)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "data/engbot.db", cfg.Database.DSN)
	assert.Equal(t, []int{0, 1, 3, 7, 14}, cfg.Learning.Intervals)
	assert.Equal(t, 5, cfg.Learning.BatchSize)
	assert.Equal(t, time.UTC, cfg.Learning.Location())
	assert.True(t, cfg.Reminder.Enabled)
	assert.Equal(t, "09:00", cfg.Reminder.At)
	assert.Equal(t, 24*time.Hour, cfg.Redis.StateTTL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_RequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	os.Unsetenv("TELEGRAM_BOT_TOKEN")

	_, err := Load(missingEnvFile(t))
	require.Error(t, err)
}

func TestLoad_FromEnvFile(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	os.Unsetenv("TELEGRAM_BOT_TOKEN")
	t.Setenv("LEARN_BATCH_SIZE", "")
	os.Unsetenv("LEARN_BATCH_SIZE")
	t.Setenv("ADMIN_USER_IDS", "")
	os.Unsetenv("ADMIN_USER_IDS")
	t.Setenv("REVIEW_INTERVALS", "0,2,5")

	path := filepath.Join(t.TempDir(), "test.env")
	content := "TELEGRAM_BOT_TOKEN=from-file\nLEARN_BATCH_SIZE=3\nADMIN_USER_IDS=10,20\nREVIEW_INTERVALS=9,9\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("TELEGRAM_BOT_TOKEN")
		os.Unsetenv("LEARN_BATCH_SIZE")
		os.Unsetenv("ADMIN_USER_IDS")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Telegram.Token)
	assert.Equal(t, 3, cfg.Learning.BatchSize)
	assert.Equal(t, []int64{10, 20}, cfg.Telegram.AdminUserIDs)
	assert.Equal(t, []int{0, 2, 5}, cfg.Learning.Intervals, "environment wins over .env")
}

func validConfig() Config {
	return Config{
		Telegram: TelegramConfig{Token: "t"},
		Database: DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"},
		Learning: LearningConfig{Intervals: []int{0, 1}, BatchSize: 5, Timezone: "UTC"},
		Reminder: ReminderConfig{Enabled: true, At: "09:00"},
		Log:      LogConfig{Level: "info", Format: "json"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"postgres", func(c *Config) { c.Database.Driver = "postgres" }, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }, true},
		{"empty ladder", func(c *Config) { c.Learning.Intervals = nil }, true},
		{"negative interval", func(c *Config) { c.Learning.Intervals = []int{0, -1} }, true},
		{"zero batch", func(c *Config) { c.Learning.BatchSize = 0 }, true},
		{"bad zone", func(c *Config) { c.Learning.Timezone = "Mars/Olympus" }, true},
		{"bad reminder time", func(c *Config) { c.Reminder.At = "9 am" }, true},
		{"redis without ttl", func(c *Config) { c.Redis.Addr = "localhost:6379" }, true},
		{"redis with ttl", func(c *Config) { c.Redis.Addr = "localhost:6379"; c.Redis.StateTTL = time.Hour }, false},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
