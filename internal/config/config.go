// Package config handles application configuration from environment variables
// and the resolution of per-run settings from layered sources.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default values for optional environment variables.
const (
	DefaultDatabasePath    = "./data/bot.db"
	DefaultSearchURL       = "https://openapi.naver.com/v1/search/news.json"
	DefaultTZOffsetHours   = 9
	DefaultInitialLookback = 2 * time.Hour
	DefaultTickInterval    = 10 * time.Minute
)

// Supported state backends.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Config holds the process configuration.
type Config struct {
	TelegramBotToken string
	PrimaryChatID    int64
	AdminChatID      int64
	AllowedUsers     []int64

	DatabasePath string
	StateBackend string
	LogLevel     string

	SearchURL          string
	SearchClientID     string
	SearchClientSecret string

	TZOffsetHours   int
	InitialLookback time.Duration
	TickInterval    time.Duration

	// Settings is the static layer of the run settings chain, read from
	// SETTINGS_FILE and overridden field by field by environment variables.
	Settings Partial
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	adminChat, err := requiredInt64("ADMIN_CHAT_ID")
	if err != nil {
		return nil, err
	}
	primaryChat := adminChat
	if raw := os.Getenv("PRIMARY_CHAT_ID"); raw != "" {
		primaryChat, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PRIMARY_CHAT_ID %q: %w", raw, err)
		}
	}

	var allowedUsers []int64
	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			allowedUsers = append(allowedUsers, uid)
		}
	}

	store, err := LoadStore()
	if err != nil {
		return nil, err
	}

	offset := DefaultTZOffsetHours
	if raw := os.Getenv("TZ_OFFSET_HOURS"); raw != "" {
		offset, err = strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || offset < -12 || offset > 14 {
			return nil, fmt.Errorf("TZ_OFFSET_HOURS must be an integer between -12 and 14, got %q", raw)
		}
	}

	lookback, err := durationOrDefault("INITIAL_LOOKBACK", DefaultInitialLookback)
	if err != nil {
		return nil, err
	}
	tick, err := durationOrDefault("TICK_INTERVAL", DefaultTickInterval)
	if err != nil {
		return nil, err
	}

	var settings Partial
	if path := os.Getenv("SETTINGS_FILE"); path != "" {
		settings, err = LoadSettingsFile(path)
		if err != nil {
			return nil, err
		}
	}
	env, err := EnvSettings(os.Getenv)
	if err != nil {
		return nil, err
	}

	return &Config{
		TelegramBotToken:   token,
		PrimaryChatID:      primaryChat,
		AdminChatID:        adminChat,
		AllowedUsers:       allowedUsers,
		DatabasePath:       store.Path,
		StateBackend:       store.Backend,
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		SearchURL:          envOrDefault("SEARCH_API_URL", DefaultSearchURL),
		SearchClientID:     os.Getenv("SEARCH_CLIENT_ID"),
		SearchClientSecret: os.Getenv("SEARCH_CLIENT_SECRET"),
		TZOffsetHours:      offset,
		InitialLookback:    lookback,
		TickInterval:       tick,
		Settings:           Merge(env, settings),
	}, nil
}

// Store locates the persisted state.
type Store struct {
	Backend string
	Path    string
}

// LoadStore reads STATE_BACKEND and DATABASE_PATH. It needs none of the
// Telegram settings, so maintenance tools can use it on its own.
func LoadStore() (Store, error) {
	backend := strings.ToLower(envOrDefault("STATE_BACKEND", BackendSQLite))
	if backend != BackendSQLite && backend != BackendBolt {
		return Store{}, fmt.Errorf("invalid STATE_BACKEND %q, use: %s, %s", backend, BackendSQLite, BackendBolt)
	}
	return Store{Backend: backend, Path: envOrDefault("DATABASE_PATH", DefaultDatabasePath)}, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// Location returns the fixed zone used for slots and local hours.
func (c *Config) Location() *time.Location {
	return time.FixedZone("", c.TZOffsetHours*3600)
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func requiredInt64(key string) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func durationOrDefault(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, raw)
	}
	return d, nil
}
