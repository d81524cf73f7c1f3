package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aria-assistant/aria/internal/config"
)

func TestOpenAIComplete(t *testing.T) {
	var got openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{
			"model": "gpt-4o-mini",
			"choices": [{"message": {"role": "assistant", "content": "Hello back."}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 4}
		}`))
	}))
	defer srv.Close()

	p := &OpenAI{apiKey: "key-1", baseURL: srv.URL, httpClient: srv.Client()}
	resp, err := p.Complete(context.Background(), &CompletionRequest{
		System:   "You are helpful.",
		Messages: []Message{{Role: "user", Content: "Hello."}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello back.", resp.Text)
	assert.Equal(t, 12, resp.InputTokens)

	// The system prompt becomes the first message.
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestAnthropicComplete(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "Hello "}, {"type": "text", "text": "back."}],
			"usage": {"input_tokens": 9, "output_tokens": 3}
		}`))
	}))
	defer srv.Close()

	p := &Anthropic{apiKey: "key-1", baseURL: srv.URL, httpClient: srv.Client()}
	resp, err := p.Complete(context.Background(), &CompletionRequest{
		System:   "You are helpful.",
		Messages: []Message{{Role: "user", Content: "Hello."}},
	})
	require.NoError(t, err)
	// Text blocks concatenate.
	assert.Equal(t, "Hello back.", resp.Text)

	// The system prompt is a top-level field, not a message.
	assert.Equal(t, "You are helpful.", got.System)
	require.Len(t, got.Messages, 1)
	assert.Positive(t, got.MaxTokens)
}

func TestGeminiComplete(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Hello back."}]}}],
			"usageMetadata": {"promptTokenCount": 7, "candidatesTokenCount": 3}
		}`))
	}))
	defer srv.Close()

	p := &Gemini{apiKey: "key-1", baseURL: srv.URL, httpClient: srv.Client()}
	resp, err := p.Complete(context.Background(), &CompletionRequest{
		System: "You are helpful.",
		Messages: []Message{
			{Role: "user", Content: "Hello."},
			{Role: "assistant", Content: "Hi."},
			{Role: "user", Content: "Again."},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello back.", resp.Text)

	// Assistant turns map to the model role.
	require.Len(t, got.Contents, 3)
	assert.Equal(t, "model", got.Contents[1].Role)
	require.NotNil(t, got.SystemInstruction)
}

func TestMissingKeyIsConfigError(t *testing.T) {
	reg := NewRegistry(config.ProvidersConfig{Default: "anthropic", RequestTimeout: time.Second})

	p, err := reg.Get("")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())

	_, err = p.Complete(context.Background(), &CompletionRequest{
		Messages: []Message{{Role: "user", Content: "Hello."}},
	})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "PROVIDERS_ANTHROPIC_KEY", cfgErr.Missing)
}

func TestUnknownProvider(t *testing.T) {
	reg := NewRegistry(config.ProvidersConfig{RequestTimeout: time.Second})
	_, err := reg.Get("llama")
	require.Error(t, err)
}
