// Package inference is an HTTP client for a Replicate-style predictions API.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/poller"
)

var _ poller.Service = (*Client)(nil)

// Config holds connection settings for the predictions API.
type Config struct {
	BaseURL      string
	APIToken     string
	ModelVersion string
	Timeout      time.Duration
}

// Client submits and polls predictions.
type Client struct {
	baseURL string
	token   string
	version string
	client  *http.Client
}

// NewClient returns a predictions client. It does not contact the service.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.APIToken,
		version: cfg.ModelVersion,
		client:  &http.Client{Timeout: timeout},
	}
}

type predictionInput struct {
	Prompt            string  `json:"prompt"`
	MaxLength         int     `json:"max_length,omitempty"`
	Temperature       float64 `json:"temperature,omitempty"`
	TopP              float64 `json:"top_p,omitempty"`
	RepetitionPenalty float64 `json:"repetition_penalty,omitempty"`
}

type predictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
}

// Submit creates a prediction for req.
func (c *Client) Submit(ctx context.Context, req *models.GenerationRequest) (*models.AsyncJob, error) {
	if c.token == "" {
		return nil, errors.New("inference API token is not configured")
	}
	body := predictionRequest{
		Version: c.version,
		Input: predictionInput{
			Prompt:            req.Prompt,
			MaxLength:         req.MaxLength,
			Temperature:       req.Temperature,
			TopP:              req.TopP,
			RepetitionPenalty: req.RepetitionPenalty,
		},
	}
	var p prediction
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/predictions", body, &p); err != nil {
		return nil, fmt.Errorf("failed to submit prediction: %w", err)
	}
	return toJob(&p)
}

// Poll fetches the current state of a prediction.
func (c *Client) Poll(ctx context.Context, jobID string) (*models.AsyncJob, error) {
	var p prediction
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/predictions/"+jobID, nil, &p); err != nil {
		return nil, fmt.Errorf("failed to get prediction %s: %w", jobID, err)
	}
	return toJob(&p)
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func toJob(p *prediction) (*models.AsyncJob, error) {
	status, err := mapStatus(p.Status)
	if err != nil {
		return nil, err
	}
	output, err := decodeOutput(p.Output)
	if err != nil {
		return nil, err
	}
	return &models.AsyncJob{
		ID:     p.ID,
		Status: status,
		Output: output,
		Error:  decodeError(p.Error),
	}, nil
}

func mapStatus(s string) (models.JobStatus, error) {
	switch s {
	case "starting", "":
		return models.JobPending, nil
	case "processing":
		return models.JobRunning, nil
	case "succeeded":
		return models.JobSucceeded, nil
	case "failed", "canceled":
		return models.JobFailed, nil
	default:
		return "", fmt.Errorf("unknown prediction status %q", s)
	}
}

// decodeOutput accepts either a single string or a list of string fragments.
func decodeOutput(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var fragments []string
	if err := json.Unmarshal(raw, &fragments); err == nil {
		return fragments, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("unsupported prediction output: %s", string(raw))
	}
	return []string{single}, nil
}

func decodeError(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
