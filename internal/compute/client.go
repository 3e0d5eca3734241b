package compute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/noah-isme/doc-intake-api/pkg/config"
	appErrors "github.com/noah-isme/doc-intake-api/pkg/errors"
)

// Offer is one rentable GPU instance on the marketplace.
type Offer struct {
	ID          string  `json:"id"`
	GPUName     string  `json:"gpu_name"`
	GPURAMGB    int     `json:"gpu_ram_gb"`
	HourlyRate  float64 `json:"hourly_rate"`
	Reliability float64 `json:"reliability"`
}

// Instance is a rented machine.
type Instance struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	SSHURL string `json:"ssh_url"`
}

// JobStatus reports a submitted batch job's remote state.
type JobStatus struct {
	JobID          string `json:"job_id"`
	State          string `json:"state"`
	ProcessedCount int    `json:"processed_count"`
	Error          string `json:"error,omitempty"`
}

// Remote job states.
const (
	JobStateRunning   = "running"
	JobStateCompleted = "completed"
	JobStateFailed    = "failed"
)

// Instance states.
const (
	InstanceRunning = "running"
	InstanceLoading = "loading"
)

// Client talks to the GPU rental marketplace. All prices are hourly USD.
type Client struct {
	baseURL string
	apiKey  string
	cfg     config.ComputeConfig
	client  *http.Client
}

// NewClient constructs a compute client from configuration.
func NewClient(cfg config.ComputeConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
	}
}

// SearchOffers returns marketplace offers that satisfy the configured
// GPU RAM floor and hourly rate ceiling, cheapest first.
func (c *Client) SearchOffers(ctx context.Context) ([]Offer, error) {
	endpoint := fmt.Sprintf("%s/offers?min_gpu_ram=%d&max_rate=%s",
		c.baseURL, c.cfg.MinGPURAMGB, url.QueryEscape(fmt.Sprintf("%.2f", c.cfg.MaxHourlyRate)))
	var payload struct {
		Offers []Offer `json:"offers"`
	}
	if err := c.get(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if len(payload.Offers) == 0 {
		return nil, appErrors.ErrNoOffers
	}
	return payload.Offers, nil
}

// Rent leases an offer and returns the provisioning instance.
func (c *Client) Rent(ctx context.Context, offerID string) (*Instance, error) {
	var instance Instance
	endpoint := fmt.Sprintf("%s/offers/%s/rent", c.baseURL, url.PathEscape(offerID))
	if err := c.post(ctx, endpoint, nil, &instance); err != nil {
		return nil, err
	}
	return &instance, nil
}

// GetInstance fetches current instance state.
func (c *Client) GetInstance(ctx context.Context, instanceID string) (*Instance, error) {
	var instance Instance
	endpoint := fmt.Sprintf("%s/instances/%s", c.baseURL, url.PathEscape(instanceID))
	if err := c.get(ctx, endpoint, &instance); err != nil {
		return nil, err
	}
	return &instance, nil
}

// Stop releases a rented instance. Billing stops when this returns.
func (c *Client) Stop(ctx context.Context, instanceID string) error {
	endpoint := fmt.Sprintf("%s/instances/%s/stop", c.baseURL, url.PathEscape(instanceID))
	return c.post(ctx, endpoint, nil, nil)
}

// BatchManifest describes one batch submitted to the rented instance.
type BatchManifest struct {
	BatchID     string   `json:"batch_id"`
	DocumentIDs []string `json:"document_ids"`
	PayloadPath string   `json:"payload_path"`
}

// SubmitJob sends a batch manifest to a running instance and returns the
// remote job id.
func (c *Client) SubmitJob(ctx context.Context, instanceID string, manifest BatchManifest) (string, error) {
	var out struct {
		JobID string `json:"job_id"`
	}
	endpoint := fmt.Sprintf("%s/instances/%s/jobs", c.baseURL, url.PathEscape(instanceID))
	if err := c.post(ctx, endpoint, manifest, &out); err != nil {
		return "", err
	}
	return out.JobID, nil
}

// GetJobStatus fetches a submitted job's remote state.
func (c *Client) GetJobStatus(ctx context.Context, instanceID, jobID string) (*JobStatus, error) {
	var status JobStatus
	endpoint := fmt.Sprintf("%s/instances/%s/jobs/%s", c.baseURL, url.PathEscape(instanceID), url.PathEscape(jobID))
	if err := c.get(ctx, endpoint, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) get(ctx context.Context, endpoint string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build compute request: %w", err)
	}
	return c.do(req, dest)
}

func (c *Client) post(ctx context.Context, endpoint string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal compute request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build compute request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest interface{}) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("compute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusPaymentRequired:
		return appErrors.ErrInsufficientFunds
	case resp.StatusCode >= http.StatusBadRequest:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("compute marketplace returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode compute response: %w", err)
	}
	return nil
}
