package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the configuration for the application.
type Config struct {
	Port         string
	DatabasePath string
	DataDir      string

	// Key-value backend: sqlite, redis, file or memory.
	StoreBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LLMProvider  string
	GroqAPIKey   string
	GroqModel    string
	GeminiAPIKey string
	GeminiModel  string

	// GenerationMode is "library" (heuristic selection with AI fallback) or "ai" (one request per week).
	GenerationMode string

	NtfyServer string
	NtfyTopic  string
	AppURL     string

	TelegramBotToken string
	TelegramChatID   int64

	CronSecret string

	LogLevel  string
	LogFormat string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_PATH", "data/meal_planner.db")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("STORE_BACKEND", "sqlite")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LLM_PROVIDER", "groq")
	v.SetDefault("GROQ_MODEL", "llama-3.3-70b-versatile")
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("GENERATION_MODE", "library")
	v.SetDefault("NTFY_SERVER", "https://ntfy.sh")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	cfg := &Config{
		Port:             v.GetString("PORT"),
		DatabasePath:     v.GetString("DATABASE_PATH"),
		DataDir:          v.GetString("DATA_DIR"),
		StoreBackend:     strings.ToLower(v.GetString("STORE_BACKEND")),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		LLMProvider:      strings.ToLower(v.GetString("LLM_PROVIDER")),
		GroqAPIKey:       v.GetString("GROQ_API_KEY"),
		GroqModel:        v.GetString("GROQ_MODEL"),
		GeminiAPIKey:     v.GetString("GEMINI_API_KEY"),
		GeminiModel:      v.GetString("GEMINI_MODEL"),
		GenerationMode:   strings.ToLower(v.GetString("GENERATION_MODE")),
		NtfyServer:       strings.TrimRight(v.GetString("NTFY_SERVER"), "/"),
		NtfyTopic:        v.GetString("NTFY_TOPIC"),
		AppURL:           v.GetString("APP_URL"),
		TelegramBotToken: v.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   v.GetInt64("TELEGRAM_CHAT_ID"),
		CronSecret:       v.GetString("CRON_SECRET"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
	}

	switch cfg.LLMProvider {
	case "groq":
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}

	switch cfg.StoreBackend {
	case "sqlite", "redis", "file", "memory":
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q", cfg.StoreBackend)
	}

	switch cfg.GenerationMode {
	case "library", "ai":
	default:
		return nil, fmt.Errorf("unsupported GENERATION_MODE %q", cfg.GenerationMode)
	}

	if cfg.CronSecret == "" {
		return nil, fmt.Errorf("CRON_SECRET environment variable not set")
	}

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID environment variable not set")
	}

	return cfg, nil
}

// HealthDataPath is the directory whose size /health reports: the file backend's
// data directory, otherwise the directory holding the sqlite database.
func (c *Config) HealthDataPath() string {
	if c.StoreBackend == "file" {
		return c.DataDir
	}
	return filepath.Dir(c.DatabasePath)
}

// NotificationsEnabled reports whether any notification channel is configured.
func (c *Config) NotificationsEnabled() bool {
	return c.NtfyTopic != "" || c.TelegramBotToken != ""
}
