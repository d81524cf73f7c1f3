// Package providers holds the chat completion clients. Each provider
// speaks its own wire format; the rest of the system only sees the
// Provider interface.
package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aria-assistant/aria/internal/config"
)

// Message is one turn of conversation sent to a provider.
type Message struct {
	Role    string `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

type CompletionRequest struct {
	Model       string
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

type CompletionResponse struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Provider produces one completion for a conversation.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// ConfigError reports a provider selected without the credentials it
// needs. It is a client-visible error, not an internal failure.
type ConfigError struct {
	Provider string
	Missing  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q is not configured: missing %s", e.Provider, e.Missing)
}

// Registry holds the configured providers and the default selection.
type Registry struct {
	providers  map[string]Provider
	defaultKey string
}

// NewRegistry builds providers from config. Providers without credentials
// are still registered; selecting one surfaces a ConfigError at call time
// so the user learns which key is missing.
func NewRegistry(cfg config.ProvidersConfig) *Registry {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	if cfg.RequestTimeout <= 0 {
		httpClient.Timeout = 60 * time.Second
	}

	r := &Registry{
		providers: map[string]Provider{
			"openai":    &OpenAI{apiKey: cfg.OpenAIKey, httpClient: httpClient},
			"anthropic": &Anthropic{apiKey: cfg.AnthropicKey, httpClient: httpClient},
			"gemini":    &Gemini{apiKey: cfg.GeminiKey, httpClient: httpClient},
		},
		defaultKey: cfg.Default,
	}
	if r.defaultKey == "" {
		r.defaultKey = "openai"
	}
	return r
}

// Get returns the named provider, or the default when name is empty.
func (r *Registry) Get(name string) (Provider, error) {
	if name == "" {
		name = r.defaultKey
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	return p, nil
}

// Names lists the registered provider names.
func (r *Registry) Names() []string {
	return []string{"openai", "anthropic", "gemini"}
}
