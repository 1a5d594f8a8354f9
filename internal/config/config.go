// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// JWTSecret is the HS256 key the identity provider signs tokens with. Required.
	JWTSecret string

	S3 S3Config

	// SignedURLTTL is how long a signed view URL stays valid. Defaults to 1h.
	SignedURLTTL time.Duration

	// MaxUploadBytes caps a single photo upload. Defaults to 10 MiB.
	MaxUploadBytes int64

	// UploadRatePerMinute is the per-user upload budget. 0 disables limiting.
	UploadRatePerMinute int

	// AutoMigrate runs pending goose migrations at startup.
	AutoMigrate bool
}

// S3Config locates the bucket photos are stored in.
type S3Config struct {
	Bucket string // required
	Region string
	// Endpoint overrides the AWS endpoint (e.g. MinIO) and switches to path-style addressing.
	Endpoint string
	// AccessKeyID and SecretAccessKey are optional static credentials;
	// the default AWS credential chain is used when they are empty.
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or
// naming the first optional variable that could not be parsed.
func Load() (Config, error) {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	cfg.S3.Bucket = os.Getenv("S3_BUCKET")
	if cfg.S3.Bucket == "" {
		missing = append(missing, "S3_BUCKET")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.SignedURLTTL, err = time.ParseDuration(getEnv("SIGNED_URL_TTL", "1h")); err != nil {
		return Config{}, fmt.Errorf("SIGNED_URL_TTL: %w", err)
	}
	if cfg.SignedURLTTL <= 0 {
		return Config{}, errors.New("SIGNED_URL_TTL: must be positive")
	}
	if cfg.MaxUploadBytes, err = strconv.ParseInt(getEnv("MAX_UPLOAD_BYTES", "10485760"), 10, 64); err != nil {
		return Config{}, fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
	}
	if cfg.MaxUploadBytes <= 0 {
		return Config{}, errors.New("MAX_UPLOAD_BYTES: must be positive")
	}
	if cfg.UploadRatePerMinute, err = strconv.Atoi(getEnv("UPLOAD_RATE_PER_MINUTE", "30")); err != nil {
		return Config{}, fmt.Errorf("UPLOAD_RATE_PER_MINUTE: %w", err)
	}
	if cfg.AutoMigrate, err = strconv.ParseBool(getEnv("AUTO_MIGRATE", "false")); err != nil {
		return Config{}, fmt.Errorf("AUTO_MIGRATE: %w", err)
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
