package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ModelInfo describes an installed model.
type ModelInfo struct {
	Name       string
	ID         string
	Size       int64
	ModifiedAt time.Time
}

// Client queries Ollama server metadata.
type Client struct {
	host   string
	client HTTPDoer
}

// NewClient constructs a metadata client. Timeout bounds each request.
func NewClient(opts OllamaOptions) *Client {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = DefaultOllamaHost
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{host: strings.TrimRight(host, "/"), client: client}
}

// Host returns the server base URL.
func (c *Client) Host() string {
	return c.host
}

// ListModels returns models installed on the server via /api/tags.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	resp, err := c.get(ctx, "/api/tags")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Models []struct {
			Name       string    `json:"name"`
			Digest     string    `json:"digest"`
			Size       int64     `json:"size"`
			ModifiedAt time.Time `json:"modified_at"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	models := make([]ModelInfo, 0, len(payload.Models))
	for _, m := range payload.Models {
		id := m.Digest
		if len(id) > 12 {
			id = id[:12]
		}
		models = append(models, ModelInfo{Name: m.Name, ID: id, Size: m.Size, ModifiedAt: m.ModifiedAt})
	}
	return models, nil
}

// Ping reports whether the server answers on /api/tags.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.get(ctx, "/api/tags")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("ollama returned %s", resp.Status)
	}
	return resp, nil
}

// FormatSize renders a byte count the way `ollama list` does.
func FormatSize(size int64) string {
	const unit = 1000
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
