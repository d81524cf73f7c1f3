package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	// JWT secret
	if len(c.JWT.AccessSecret) < 32 {
		errs = append(errs, "JWT_ACCESS_SECRET must be at least 32 characters")
	}

	// Encryption key: must be exactly 64 hex chars (32 bytes)
	if c.Encryption.Key == "" {
		errs = append(errs, "ENCRYPTION_KEY is required")
	} else if len(c.Encryption.Key) != 64 {
		errs = append(errs, "ENCRYPTION_KEY must be exactly 64 hex characters (32 bytes)")
	} else if _, err := hex.DecodeString(c.Encryption.Key); err != nil {
		errs = append(errs, "ENCRYPTION_KEY must be valid hex")
	}

	// Supabase: both or neither
	if (c.Supabase.URL == "") != (c.Supabase.APIKey == "") {
		errs = append(errs, "SUPABASE_URL and SUPABASE_API_KEY must be set together")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1-65535, got %d", c.Server.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1-65535, got %d", c.Redis.Port))
	}

	if c.Chat.MaxMessages < 1 {
		errs = append(errs, fmt.Sprintf("CHAT_MAX_MESSAGES must be positive, got %d", c.Chat.MaxMessages))
	}

	// Missing cloud store: warn only, local-first mode still works
	if c.Supabase.URL == "" {
		slog.Warn("SUPABASE_URL is empty, cloud sync disabled, running local-only")
	}
	if c.TTS.URL == "" {
		slog.Warn("TTS_URL is empty, remote voice generation disabled")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
