package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bumpbot/internal/storage"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("ALLOWED_USER_IDS", "11, 22")
	t.Setenv("FORUM_BASE_URL", "https://api.example.com/")
	t.Setenv("FORUM_TOKEN", "forum-token")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, []int64{11, 22}, cfg.AllowedUserIDs)
	assert.False(t, cfg.WebhookMode)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://api.example.com", cfg.ForumBaseURL)
	assert.Equal(t, 30*time.Second, cfg.ForumTimeout)
	assert.Equal(t, "https://zelenka.guru/threads", cfg.ThreadLinkBase)
	assert.Equal(t, 12*time.Hour, cfg.BumpInterval)
	assert.Zero(t, cfg.ReportChatID)
	assert.Equal(t, DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, "threads.db", cfg.DatabasePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BUMP_INTERVAL_HOURS", "6")
	t.Setenv("FORUM_TIMEOUT", "5s")
	t.Setenv("REPORT_CHAT_ID", "-100123")
	t.Setenv("STORAGE_DRIVER", "clickhouse")
	t.Setenv("CLICKHOUSE_HOST", "ch.local")
	t.Setenv("CLICKHOUSE_PORT", "9440")
	t.Setenv("CLICKHOUSE_USE_TLS", "true")
	t.Setenv("WEBHOOK_MODE", "true")
	t.Setenv("WEBHOOK_URL", "https://bot.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6*time.Hour, cfg.BumpInterval)
	assert.Equal(t, 5*time.Second, cfg.ForumTimeout)
	assert.Equal(t, int64(-100123), cfg.ReportChatID)
	assert.Equal(t, DriverClickHouse, cfg.StorageDriver)
	assert.Equal(t, "ch.local", cfg.ClickHouseHost)
	assert.Equal(t, 9440, cfg.ClickHousePort)
	assert.Equal(t, "default", cfg.ClickHouseDatabase)
	assert.True(t, cfg.ClickHouseUseTLS)
	assert.True(t, cfg.WebhookMode)
	assert.Equal(t, "https://bot.example.com", cfg.WebhookURL)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{name: "missing token", key: "TELEGRAM_BOT_TOKEN", value: ""},
		{name: "missing users", key: "ALLOWED_USER_IDS", value: ""},
		{name: "bad user id", key: "ALLOWED_USER_IDS", value: "1,abc"},
		{name: "missing forum url", key: "FORUM_BASE_URL", value: ""},
		{name: "missing forum token", key: "FORUM_TOKEN", value: ""},
		{name: "zero interval", key: "BUMP_INTERVAL_HOURS", value: "0"},
		{name: "bad report chat", key: "REPORT_CHAT_ID", value: "chat"},
		{name: "webhook without url", key: "WEBHOOK_MODE", value: "true"},
		{name: "clickhouse without host", key: "STORAGE_DRIVER", value: "clickhouse"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.key, tc.value)

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoad_UnknownDriver(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORAGE_DRIVER", "mongo")

	_, err := Load()
	assert.ErrorIs(t, err, storage.ErrUnknownDriver)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bumpbot.yaml")
	content := `
telegram_bot_token: "file-token"
allowed_user_ids: [101, 202]
forum_base_url: "https://forum.example.com"
forum_token: "file-forum-token"
bump_interval_hours: 0.5
menu_image_url: "https://img.example.com/logo.png"
author_url: "https://t.me/author"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("ALLOWED_USER_IDS", "")
	t.Setenv("FORUM_BASE_URL", "")
	t.Setenv("FORUM_TOKEN", "env-forum-token")
	os.Unsetenv("TELEGRAM_BOT_TOKEN")
	os.Unsetenv("ALLOWED_USER_IDS")
	os.Unsetenv("FORUM_BASE_URL")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.TelegramToken)
	assert.Equal(t, []int64{101, 202}, cfg.AllowedUserIDs)
	assert.Equal(t, "https://forum.example.com", cfg.ForumBaseURL)
	assert.Equal(t, "env-forum-token", cfg.ForumToken, "environment wins over the file")
	assert.Equal(t, 30*time.Minute, cfg.BumpInterval)
	assert.Equal(t, "https://img.example.com/logo.png", cfg.MenuImageURL)
	assert.Equal(t, "https://t.me/author", cfg.AuthorURL)
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
