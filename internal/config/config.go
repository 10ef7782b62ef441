package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Lockout LockoutConfig
	Session SessionConfig
}

type AppConfig struct {
	DataDir  string
	Env      string
	LogLevel string
}

type LockoutConfig struct {
	MaxFailedAttempts int
	Window            time.Duration
	PollInterval      time.Duration
}

type SessionConfig struct {
	TTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("GATEKEEP_DATA_DIR", "")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".gatekeep")
	}

	cfg := &Config{
		App: AppConfig{
			DataDir:  dataDir,
			Env:      getEnv("GATEKEEP_ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Lockout: LockoutConfig{
			MaxFailedAttempts: getEnvAsInt("MAX_FAILED_ATTEMPTS", 5),
			Window:            getEnvAsDuration("LOCKOUT_DURATION", 15*time.Minute),
			PollInterval:      getEnvAsDuration("LOCKOUT_POLL_INTERVAL", 1*time.Second),
		},
		Session: SessionConfig{
			TTL: getEnvAsDuration("SESSION_TTL", 720*time.Hour),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Lockout.MaxFailedAttempts < 1 {
		return fmt.Errorf("MAX_FAILED_ATTEMPTS must be at least 1 (got %d)", c.Lockout.MaxFailedAttempts)
	}
	if c.Lockout.Window <= 0 {
		return fmt.Errorf("LOCKOUT_DURATION must be positive (got %s)", c.Lockout.Window)
	}
	if c.Lockout.PollInterval <= 0 {
		return fmt.Errorf("LOCKOUT_POLL_INTERVAL must be positive (got %s)", c.Lockout.PollInterval)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive (got %s)", c.Session.TTL)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
