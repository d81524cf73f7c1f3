// Package supaclient wraps the Supabase client shared by the remote stores
// for chat history, settings, integrations and memories. Row access is
// scoped by user ID in every query; RLS on the Supabase side enforces the
// same boundary.
package supaclient

import (
	"errors"
	"fmt"

	"github.com/supabase-community/supabase-go"

	"github.com/aria-assistant/aria/internal/config"
)

// ErrDisabled is returned by cloud-backed repositories when sync is not
// configured.
var ErrDisabled = errors.New("cloud store is not configured")

// Client is nil-safe: a nil *Client means cloud sync is disabled and every
// remote store runs in local-only mode.
type Client struct {
	sb *supabase.Client
}

// New builds the shared client. Missing credentials are not an error; they
// yield a nil client and the assistant runs local-only.
func New(cfg config.SupabaseConfig) (*Client, error) {
	if cfg.URL == "" || cfg.APIKey == "" {
		return nil, nil
	}

	sb, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}

	return &Client{sb: sb}, nil
}

// DB exposes the underlying Supabase client for table queries.
func (c *Client) DB() *supabase.Client {
	if c == nil {
		return nil
	}
	return c.sb
}

// Enabled reports whether cloud sync is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.sb != nil
}
