package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Redis:  RedisConfig{Host: "localhost", Port: 6379},
		Supabase: SupabaseConfig{
			URL:    "https://project.supabase.co",
			APIKey: "anon-key",
		},
		JWT: JWTConfig{
			AccessSecret: "access-secret-that-is-at-least-32-chars!",
			AccessExpiry: 15 * time.Minute,
		},
		Encryption: EncryptionConfig{Key: "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"},
		Chat:       ChatConfig{MaxMessages: 100, CacheTTL: 30 * time.Second},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidate_JWTAccessSecretTooShort(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.AccessSecret = "short"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "JWT_ACCESS_SECRET") {
		t.Fatalf("expected JWT_ACCESS_SECRET error, got: %v", err)
	}
}

func TestValidate_EncryptionKeyMissing(t *testing.T) {
	cfg := validConfig()
	cfg.Encryption.Key = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "ENCRYPTION_KEY is required") {
		t.Fatalf("expected ENCRYPTION_KEY error, got: %v", err)
	}
}

func TestValidate_EncryptionKeyWrongLength(t *testing.T) {
	cfg := validConfig()
	cfg.Encryption.Key = "abcdef"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "64 hex characters") {
		t.Fatalf("expected encryption key length error, got: %v", err)
	}
}

func TestValidate_EncryptionKeyNotHex(t *testing.T) {
	cfg := validConfig()
	cfg.Encryption.Key = strings.Repeat("z", 64)
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "valid hex") {
		t.Fatalf("expected hex error, got: %v", err)
	}
}

func TestValidate_SupabaseKeyWithoutURL(t *testing.T) {
	cfg := validConfig()
	cfg.Supabase.URL = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "SUPABASE_URL") {
		t.Fatalf("expected supabase pairing error, got: %v", err)
	}
}

func TestValidate_BadServerPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Fatalf("expected SERVER_PORT error, got: %v", err)
	}
}

func TestValidate_BadMaxMessages(t *testing.T) {
	cfg := validConfig()
	cfg.Chat.MaxMessages = 0
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "CHAT_MAX_MESSAGES") {
		t.Fatalf("expected CHAT_MAX_MESSAGES error, got: %v", err)
	}
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.AccessSecret = "short"
	cfg.Encryption.Key = ""
	cfg.Server.Port = -1
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"JWT_ACCESS_SECRET", "ENCRYPTION_KEY", "SERVER_PORT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %s in error, got: %v", want, err)
		}
	}
}
