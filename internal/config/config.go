package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"pomodoro/timer/internal/model"
)

type Config struct {
	Port           string
	DBPath         string
	JWTSecret      string
	TokenTTL       time.Duration
	CORSOrigins    []string
	MigrationsDir  string
	LogLevel       slog.Level
	AutoStartDelay time.Duration
	TimerPath      string
	TimerDefaults  model.TimerConfig
}

func Load() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		DBPath:         getEnv("DB_PATH", "./data/pomodoro.db"),
		JWTSecret:      getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:       time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		CORSOrigins:    getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "./migrations"),
		AutoStartDelay: time.Duration(getEnvInt("AUTO_START_DELAY_MS", 1000)) * time.Millisecond,
		TimerPath:      getEnv("TIMER_CONFIG", "./config/timer.yaml"),
	}

	level, err := ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return cfg, err
	}
	cfg.LogLevel = level

	defaults, err := LoadTimerDefaults(cfg.TimerPath)
	if err != nil {
		return cfg, err
	}
	cfg.TimerDefaults = defaults
	return cfg, nil
}

// ParseLevel maps debug/info/warn/error to a slog level.
func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", raw)
	}
}

// NewLogger builds the text logger used by the commands.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
