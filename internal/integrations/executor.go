package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Executor dispatches a resolved command to the integration's endpoint and
// relays the response verbatim. The endpoint answers either
// {"result": ...} or {"error": {"message": ...}}; both shapes pass through
// untouched so the caller sees exactly what the integration said.
type Executor struct {
	httpClient *http.Client
	encryptor  Decrypter
}

// Decrypter recovers the stored API key for the outbound request.
type Decrypter interface {
	Decrypt(ciphertext string) (string, error)
}

func NewExecutor(timeout time.Duration, encryptor Decrypter) *Executor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Executor{
		httpClient: &http.Client{Timeout: timeout},
		encryptor:  encryptor,
	}
}

type executePayload struct {
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// ExecutionResult is the integration's raw answer. Exactly one of Result
// and Error is set.
type ExecutionResult struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ExecutionError `json:"error,omitempty"`
}

type ExecutionError struct {
	Message string `json:"message"`
}

// Execute posts the command to the integration and decodes the envelope.
// Transport failures and malformed envelopes come back as Go errors;
// integration-reported errors come back inside the result.
func (e *Executor) Execute(ctx context.Context, integ *Integration, command string, params map[string]any) (*ExecutionResult, error) {
	body, err := json.Marshal(executePayload{Command: command, Parameters: params})
	if err != nil {
		return nil, fmt.Errorf("encoding command payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, integ.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building command request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range integ.Headers {
		req.Header.Set(k, v)
	}
	if integ.APIKey != "" {
		key, err := e.encryptor.Decrypt(integ.APIKey)
		if err != nil {
			return nil, fmt.Errorf("decrypting integration api key: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling integration %q: %w", integ.Name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("reading integration response: %w", err)
	}

	var result ExecutionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("integration %q returned a malformed response (status %d)", integ.Name, resp.StatusCode)
	}
	if result.Error == nil && resp.StatusCode >= 400 {
		return nil, fmt.Errorf("integration %q returned status %d", integ.Name, resp.StatusCode)
	}
	return &result, nil
}
