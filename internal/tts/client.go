// Package tts talks to the remote text-to-speech service. Each request
// synthesizes one segment and returns a URL the playback layer can fetch.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New returns a client for the synthesis service at baseURL. An empty
// baseURL yields a disabled client; callers check Enabled before use.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

type synthesizeResponse struct {
	AudioURL string `json:"audio_url"`
	Error    string `json:"error,omitempty"`
}

// Synthesize requests audio for one segment and returns its URL.
func (c *Client) Synthesize(ctx context.Context, text, voice string) (string, error) {
	body, err := json.Marshal(synthesizeRequest{Text: text, Voice: voice})
	if err != nil {
		return "", fmt.Errorf("encoding synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling synthesis service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading synthesis response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("synthesis service returned status %d", resp.StatusCode)
	}

	var out synthesizeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("parsing synthesis response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("synthesis service error: %s", out.Error)
	}
	if out.AudioURL == "" {
		return "", fmt.Errorf("synthesis service returned no audio url")
	}
	return out.AudioURL, nil
}
