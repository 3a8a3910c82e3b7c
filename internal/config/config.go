package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBConn   string
	LogLevel string

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	FeedLimit int

	MigrateOnStart      bool
	HealthCheckSchedule string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// NewConfig loads configuration from .env, an optional config.yaml and
// environment variables, in increasing order of precedence.
func NewConfig() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_CONN", "host=localhost port=5432 user=test password=test dbname=twitter sslmode=disable")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_TTL", "0s")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("FEED_LIMIT", 4)
	v.SetDefault("MIGRATE_ON_START", true)
	v.SetDefault("HEALTHCHECK_SCHEDULE", "@every 1m")
	v.SetDefault("READ_TIMEOUT", "10s")
	v.SetDefault("WRITE_TIMEOUT", "10s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Port:                v.GetString("PORT"),
		DBConn:              v.GetString("DB_CONN"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		JWTTTL:              parseDuration(v.GetString("JWT_TTL"), 0),
		BcryptCost:          v.GetInt("BCRYPT_COST"),
		FeedLimit:           v.GetInt("FEED_LIMIT"),
		MigrateOnStart:      v.GetBool("MIGRATE_ON_START"),
		HealthCheckSchedule: v.GetString("HEALTHCHECK_SCHEDULE"),
		ReadTimeout:         parseDuration(v.GetString("READ_TIMEOUT"), 10*time.Second),
		WriteTimeout:        parseDuration(v.GetString("WRITE_TIMEOUT"), 10*time.Second),
		ShutdownTimeout:     parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.DBConn == "" {
		return fmt.Errorf("DB_CONN is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTTTL < 0 {
		return fmt.Errorf("JWT_TTL must not be negative")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.FeedLimit <= 0 {
		return fmt.Errorf("FEED_LIMIT must be positive")
	}
	return nil
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}
