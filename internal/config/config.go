package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LLM providers understood by llm.New.
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string
	SnapshotDir  string

	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqModel    string

	// HTTP server
	Port        string
	CORSOrigins []string

	LogLevel  string
	LogPretty bool

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64

	// Cloud backup
	BackupURL       string
	BackupSecret    string
	BackupKeepLocal int
	BackupTimeout   time.Duration

	// Backup receiver: when set, this instance also serves /backups for other devices.
	BackupReceiverDir string

	// Planning defaults
	DefaultCalories  int
	DefaultHousehold int
	DefaultDiet      string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	provider := strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini))

	cfg := &Config{
		DatabasePath: getEnv("DATABASE_PATH", "data/planner.db"),
		SnapshotDir:  getEnv("SNAPSHOT_DIR", "data/snapshots"),

		LLMProvider:  provider,
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GroqAPIKey:   os.Getenv("GROQ_API_KEY"),
		GroqModel:    getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvBool("LOG_PRETTY", false),

		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),

		BackupURL:       strings.TrimRight(os.Getenv("BACKUP_URL"), "/"),
		BackupSecret:    os.Getenv("BACKUP_SECRET"),
		BackupKeepLocal: getEnvInt("BACKUP_KEEP_LOCAL", 5),
		BackupTimeout:   getEnvDuration("BACKUP_TIMEOUT", 15*time.Second),

		BackupReceiverDir: os.Getenv("BACKUP_RECEIVER_DIR"),

		DefaultCalories:  getEnvInt("DEFAULT_CALORIES", 2000),
		DefaultHousehold: getEnvInt("DEFAULT_HOUSEHOLD", 1),
		DefaultDiet:      os.Getenv("DEFAULT_DIET"),
	}

	switch provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderGroq:
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q: expected %s or %s", provider, ProviderGemini, ProviderGroq)
	}

	ids, err := parseInt64List(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS: %w", err)
	}
	cfg.TelegramAllowedUserIDs = ids

	if v := os.Getenv("ADMIN_TELEGRAM_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
		cfg.AdminTelegramID = id
	}

	if (cfg.BackupURL != "" || cfg.BackupReceiverDir != "") && cfg.BackupSecret == "" {
		return nil, fmt.Errorf("BACKUP_SECRET environment variable not set")
	}

	return cfg, nil
}

// BackupReceiverEnabled reports whether the /backups endpoints should be served.
func (c *Config) BackupReceiverEnabled() bool {
	return c.BackupReceiverDir != "" && c.BackupSecret != ""
}

// TelegramEnabled reports whether the bot has enough configuration to start.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramWebhookURL != ""
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInt64List(s string) ([]int64, error) {
	var out []int64
	for _, part := range splitList(s) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
