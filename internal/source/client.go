package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/noah-isme/doc-intake-api/internal/models"
	"github.com/noah-isme/doc-intake-api/pkg/config"
)

// Client talks to the bulk document store that batch campaigns drain.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient constructs a source client from configuration.
func NewClient(cfg config.SourceConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type listResponse struct {
	Documents []models.SourceDocument `json:"documents"`
}

// List returns every document currently available under a folder. The
// listing is the campaign's fixed universe; documents added afterwards
// belong to the next campaign.
func (c *Client) List(ctx context.Context, folder string) ([]models.SourceDocument, error) {
	endpoint := fmt.Sprintf("%s/documents?folder=%s", c.baseURL, url.QueryEscape(folder))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build source list request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source list request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("source returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload listResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode source listing: %w", err)
	}
	return payload.Documents, nil
}

// Download fetches one document's bytes by id.
func (c *Client) Download(ctx context.Context, id string) ([]byte, string, error) {
	endpoint := fmt.Sprintf("%s/documents/%s", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build source download request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("source download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, "", fmt.Errorf("source returned %d for %s: %s", resp.StatusCode, id, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read source document %s: %w", id, err)
	}

	name := id
	if disposition := resp.Header.Get("Content-Disposition"); disposition != "" {
		if idx := strings.Index(disposition, "filename="); idx >= 0 {
			name = strings.Trim(disposition[idx+len("filename="):], `"`)
		}
	}
	return data, name, nil
}
