package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures the runtime configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Recipe   RecipeConfig
	LogLevel string
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	URL             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RecipeConfig tunes the recipe expansion engine.
type RecipeConfig struct {
	MaxDepth int
}

// Load inspects the environment and builds a Config value.
func Load() (Config, error) {
	cfg := Config{}

	cfg.Server = ServerConfig{
		Addr: firstNonEmpty(
			os.Getenv("SERVER_ADDR"),
			os.Getenv("ADDR"),
			":8080",
		),
		AllowedOrigins: splitList(firstNonEmpty(
			os.Getenv("CORS_ALLOWED_ORIGINS"),
			"*",
		)),
	}

	cfg.Database = DatabaseConfig{
		URL: firstNonEmpty(
			os.Getenv("DATABASE_URL"),
			os.Getenv("DB_URL"),
			"",
		),
		MaxIdleConns:    intEnv("DB_MAX_IDLE_CONNS"),
		MaxOpenConns:    intEnv("DB_MAX_OPEN_CONNS"),
		ConnMaxLifetime: durationEnv("DB_CONN_MAX_LIFETIME"),
		ConnMaxIdleTime: durationEnv("DB_CONN_MAX_IDLE_TIME"),
	}

	cfg.Recipe = RecipeConfig{
		MaxDepth: intEnv("RECIPE_MAX_DEPTH"),
	}
	if cfg.Recipe.MaxDepth < 0 {
		return Config{}, fmt.Errorf("recipe max depth must not be negative")
	}

	cfg.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return Config{}, fmt.Errorf("server address must not be empty")
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func intEnv(key string) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}

func durationEnv(key string) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return value
}
