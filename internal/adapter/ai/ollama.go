package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaConfig holds the configuration for the Ollama embed endpoint.
type OllamaConfig struct {
	BaseURL    string // e.g. http://localhost:11434 or https://api.ollama.com
	Model      string // e.g. bge-m3
	Token      string // Bearer token for Ollama Cloud (empty = no auth)
	MaxRetries int    // attempts beyond the first for transient failures
}

// OllamaProvider implements port.EmbeddingProvider using the Ollama REST API.
type OllamaProvider struct {
	cfg        OllamaConfig
	httpClient *http.Client
	backoff    time.Duration
}

// NewOllamaProvider creates a new Ollama-backed embedding provider.
func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &OllamaProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		backoff:    500 * time.Millisecond,
	}
}

// ModelName returns the embedding model identifier.
func (o *OllamaProvider) ModelName() string {
	return o.cfg.Model
}

// Embed generates a vector embedding for the given text. Transient failures
// (network errors, 429, 5xx) are retried with exponential backoff up to
// MaxRetries; 4xx responses and context cancellation are not.
func (o *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]interface{}{
		"model": o.cfg.Model,
		"input": text,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	var lastErr error
	delay := o.backoff
	for attempt := 0; attempt <= o.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		body, retryable, err := o.post(ctx, "/api/embed", payloadBytes)
		if err != nil {
			lastErr = err
			if !retryable {
				return nil, fmt.Errorf("ollama embed: %w", err)
			}
			continue
		}

		var resp struct {
			Embeddings [][]float32 `json:"embeddings"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("ollama embed decode: %w", err)
		}
		if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
			return nil, fmt.Errorf("ollama embed: empty response")
		}
		return resp.Embeddings[0], nil
	}

	return nil, fmt.Errorf("ollama embed: retries exhausted: %w", lastErr)
}

// post sends one request. The second return value reports whether the
// failure is worth retrying.
func (o *OllamaProvider) post(ctx context.Context, path string, payload []byte) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+o.cfg.Token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return body, false, nil
}
