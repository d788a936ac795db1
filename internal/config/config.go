package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	ServerPort     string
	StorageDriver  string
	DatabaseURL    string
	HostURL        string
	LogLevel       string
	MigrateOnStart bool

	Auth struct {
		SecretKey   string
		TokenExpiry time.Duration
	}
}

func Load() (*Config, error) {
	// Load .env file if it exists (useful for local dev)
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:    getenv("SERVER_PORT", "8080"),
		StorageDriver: strings.ToLower(getenv("STORAGE_DRIVER", StoragePostgres)),
		LogLevel:      getenv("LOG_LEVEL", "info"),
	}

	switch cfg.StorageDriver {
	case StoragePostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL must be set")
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, cfg.StorageDriver)
	}

	cfg.HostURL = strings.TrimRight(os.Getenv("HOST_URL"), "/")
	if cfg.HostURL == "" {
		return nil, fmt.Errorf("HOST_URL must be set")
	}

	cfg.Auth.SecretKey = os.Getenv("AUTH_SECRET_KEY")
	if cfg.Auth.SecretKey == "" {
		return nil, fmt.Errorf("AUTH_SECRET_KEY must be set")
	}

	minutes, err := strconv.Atoi(getenv("ACCESS_TOKEN_EXPIRE_MINUTES", "600"))
	if err != nil || minutes <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be a positive integer")
	}
	cfg.Auth.TokenExpiry = time.Duration(minutes) * time.Minute

	cfg.MigrateOnStart, err = strconv.ParseBool(getenv("MIGRATE_ON_START", "true"))
	if err != nil {
		return nil, fmt.Errorf("MIGRATE_ON_START must be a boolean: %w", err)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
