package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	Supabase   SupabaseConfig
	NATS       NATSConfig
	JWT        JWTConfig
	Encryption EncryptionConfig
	Providers  ProvidersConfig
	TTS        TTSConfig
	Chat       ChatConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SupabaseConfig points at the backend-as-a-service store that holds the
// cloud copies of chat history, settings, integrations and memories.
type SupabaseConfig struct {
	URL    string
	APIKey string
}

type NATSConfig struct {
	URL     string
	Enabled bool
}

type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
}

type EncryptionConfig struct {
	Key string
}

// ProvidersConfig carries per-provider LLM API credentials. A missing key
// disables that provider; selecting it then yields a configuration error.
type ProvidersConfig struct {
	Default        string
	OpenAIKey      string
	AnthropicKey   string
	GeminiKey      string
	RequestTimeout time.Duration
}

type TTSConfig struct {
	URL            string
	APIKey         string
	RequestTimeout time.Duration
}

type ChatConfig struct {
	MaxMessages int
	CacheTTL    time.Duration
}

type RateLimitConfig struct {
	ExecuteMaxReqs   int
	ExecuteWindowSec int
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:               k.String("server.host"),
			Port:               k.Int("server.port"),
			CORSAllowedOrigins: splitList(k.String("server.cors.origins")),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		Supabase: SupabaseConfig{
			URL:    k.String("supabase.url"),
			APIKey: k.String("supabase.api.key"),
		},
		NATS: NATSConfig{
			URL:     k.String("nats.url"),
			Enabled: k.Bool("nats.enabled"),
		},
		JWT: JWTConfig{
			AccessSecret: k.String("jwt.access.secret"),
		},
		Encryption: EncryptionConfig{
			Key: k.String("encryption.key"),
		},
		Providers: ProvidersConfig{
			Default:      k.String("providers.default"),
			OpenAIKey:    k.String("providers.openai.key"),
			AnthropicKey: k.String("providers.anthropic.key"),
			GeminiKey:    k.String("providers.gemini.key"),
		},
		TTS: TTSConfig{
			URL:    k.String("tts.url"),
			APIKey: k.String("tts.api.key"),
		},
		Chat: ChatConfig{
			MaxMessages: k.Int("chat.max.messages"),
		},
		RateLimit: RateLimitConfig{
			ExecuteMaxReqs:   k.Int("ratelimit.execute.max.reqs"),
			ExecuteWindowSec: k.Int("ratelimit.execute.window.sec"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Providers.Default == "" {
		cfg.Providers.Default = "openai"
	}
	if cfg.Chat.MaxMessages == 0 {
		cfg.Chat.MaxMessages = 100
	}
	if cfg.RateLimit.ExecuteMaxReqs == 0 {
		cfg.RateLimit.ExecuteMaxReqs = 30
	}
	if cfg.RateLimit.ExecuteWindowSec == 0 {
		cfg.RateLimit.ExecuteWindowSec = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "debug"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Parse durations
	accessExpStr := k.String("jwt.access.expiry")
	if accessExpStr == "" {
		accessExpStr = "15m"
	}
	cfg.JWT.AccessExpiry, err = time.ParseDuration(accessExpStr)
	if err != nil {
		return nil, fmt.Errorf("parsing jwt access expiry: %w", err)
	}

	providerTimeoutStr := k.String("providers.request.timeout")
	if providerTimeoutStr == "" {
		providerTimeoutStr = "60s"
	}
	cfg.Providers.RequestTimeout, err = time.ParseDuration(providerTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("parsing provider request timeout: %w", err)
	}

	ttsTimeoutStr := k.String("tts.request.timeout")
	if ttsTimeoutStr == "" {
		ttsTimeoutStr = "30s"
	}
	cfg.TTS.RequestTimeout, err = time.ParseDuration(ttsTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("parsing tts request timeout: %w", err)
	}

	cacheTTLStr := k.String("chat.cache.ttl")
	if cacheTTLStr == "" {
		cacheTTLStr = "30s"
	}
	cfg.Chat.CacheTTL, err = time.ParseDuration(cacheTTLStr)
	if err != nil {
		return nil, fmt.Errorf("parsing chat cache ttl: %w", err)
	}

	return cfg, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
