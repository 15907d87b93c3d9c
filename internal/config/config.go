package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"bumpbot/internal/storage"
)

// Storage drivers
const (
	DriverSQLite     = "sqlite"
	DriverClickHouse = "clickhouse"
	DriverMemory     = "memory"
)

// Config holds the application configuration
type Config struct {
	TelegramToken  string
	AllowedUserIDs []int64

	// Bot mode configuration
	WebhookMode bool   // If true, use webhook mode; if false, use polling mode
	WebhookURL  string // URL for webhook (required if WebhookMode is true)
	Port        string

	// Forum API
	ForumBaseURL   string
	ForumToken     string
	ForumTimeout   time.Duration
	ThreadLinkBase string

	// Scheduling
	BumpInterval time.Duration
	ReportChatID int64 // 0 disables reports of scheduled passes

	// Menu presentation
	MenuImageURL string
	AuthorURL    string

	// Storage
	StorageDriver string
	DatabasePath  string

	// ClickHouse configuration
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseUseTLS   bool

	// Logging
	LogLevel  string
	LogFormat string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("FORUM_TIMEOUT", "30s")
	v.SetDefault("THREAD_LINK_BASE", "https://zelenka.guru/threads")
	v.SetDefault("BUMP_INTERVAL_HOURS", 12)
	v.SetDefault("STORAGE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_PATH", "threads.db")
	v.SetDefault("CLICKHOUSE_PORT", 9000) // Default ClickHouse native port
	v.SetDefault("CLICKHOUSE_DATABASE", "default")
	v.SetDefault("CLICKHOUSE_USER", "default")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	return v
}

// readConfigFile merges an optional YAML file below the environment.
// CONFIG_FILE names it explicitly; otherwise ./config.yaml is used when present.
func readConfigFile(v *viper.Viper) error {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load loads configuration from environment variables and an optional config file
func Load() (*Config, error) {
	v := newViper()
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	config := &Config{}

	// Telegram Bot Token (required)
	config.TelegramToken = v.GetString("TELEGRAM_BOT_TOKEN")
	if config.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	// Allowed User IDs (required)
	ids, err := parseUserIDs(v.Get("ALLOWED_USER_IDS"))
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("ALLOWED_USER_IDS is required (comma-separated list of Telegram user IDs)")
	}
	config.AllowedUserIDs = ids

	// Bot mode configuration
	config.WebhookMode = v.GetBool("WEBHOOK_MODE")
	if config.WebhookMode {
		config.WebhookURL = v.GetString("WEBHOOK_URL")
		if config.WebhookURL == "" {
			return nil, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
		}
	}
	config.Port = v.GetString("PORT")

	// Forum API (required)
	config.ForumBaseURL = strings.TrimRight(v.GetString("FORUM_BASE_URL"), "/")
	if config.ForumBaseURL == "" {
		return nil, fmt.Errorf("FORUM_BASE_URL is required")
	}
	config.ForumToken = v.GetString("FORUM_TOKEN")
	if config.ForumToken == "" {
		return nil, fmt.Errorf("FORUM_TOKEN is required")
	}
	config.ForumTimeout = v.GetDuration("FORUM_TIMEOUT")
	if config.ForumTimeout <= 0 {
		return nil, fmt.Errorf("invalid FORUM_TIMEOUT: %q", v.GetString("FORUM_TIMEOUT"))
	}
	config.ThreadLinkBase = strings.TrimRight(v.GetString("THREAD_LINK_BASE"), "/")

	// Scheduling
	hours := v.GetFloat64("BUMP_INTERVAL_HOURS")
	if hours <= 0 {
		return nil, fmt.Errorf("BUMP_INTERVAL_HOURS must be positive, got %q", v.GetString("BUMP_INTERVAL_HOURS"))
	}
	config.BumpInterval = time.Duration(hours * float64(time.Hour))

	if raw := v.GetString("REPORT_CHAT_ID"); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid REPORT_CHAT_ID: %w", err)
		}
		config.ReportChatID = chatID
	}

	config.MenuImageURL = v.GetString("MENU_IMAGE_URL")
	config.AuthorURL = v.GetString("AUTHOR_URL")

	// Storage
	config.StorageDriver = strings.ToLower(v.GetString("STORAGE_DRIVER"))
	switch config.StorageDriver {
	case DriverSQLite:
		config.DatabasePath = v.GetString("DATABASE_PATH")
	case DriverMemory:
	case DriverClickHouse:
		config.ClickHouseHost = v.GetString("CLICKHOUSE_HOST")
		if config.ClickHouseHost == "" {
			return nil, fmt.Errorf("CLICKHOUSE_HOST is required when STORAGE_DRIVER is clickhouse")
		}

		port, err := strconv.Atoi(v.GetString("CLICKHOUSE_PORT"))
		if err != nil {
			return nil, fmt.Errorf("invalid CLICKHOUSE_PORT: %w", err)
		}
		config.ClickHousePort = port

		config.ClickHouseDatabase = v.GetString("CLICKHOUSE_DATABASE")
		config.ClickHouseUser = v.GetString("CLICKHOUSE_USER")
		config.ClickHousePassword = v.GetString("CLICKHOUSE_PASSWORD")
		config.ClickHouseUseTLS = v.GetBool("CLICKHOUSE_USE_TLS")
	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownDriver, config.StorageDriver)
	}

	config.LogLevel = v.GetString("LOG_LEVEL")
	config.LogFormat = v.GetString("LOG_FORMAT")

	return config, nil
}

// parseUserIDs accepts a comma-separated string (env) or a YAML list
func parseUserIDs(raw interface{}) ([]int64, error) {
	var parts []string
	switch value := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(value) == "" {
			return nil, nil
		}
		parts = strings.Split(value, ",")
	case []interface{}:
		for _, item := range value {
			parts = append(parts, fmt.Sprint(item))
		}
	default:
		parts = []string{fmt.Sprint(value)}
	}

	ids := make([]int64, 0, len(parts))
	for _, idStr := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID in ALLOWED_USER_IDS: %s", idStr)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
