package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Srikanthmvtsc/screw-savvy-bot/internal/models"
)

// apiClient talks to a running screwsavvy server.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(serverURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(serverURL, "/"),
		// Answer generation polls for up to the request timeout on the server side.
		http: &http.Client{Timeout: 10 * time.Minute},
	}
}

// chatFailure is the body of a failed chat request.
type chatFailure struct {
	Error    string `json:"error"`
	Kind     string `json:"error_kind"`
	Fallback string `json:"fallback_response"`
}

func (c *apiClient) do(ctx context.Context, req *http.Request) (int, []byte, error) {
	if ctx != nil {
		req = req.WithContext(ctx)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

func (c *apiClient) postJSON(ctx context.Context, path string, in interface{}) (int, []byte, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, req)
}

func apiError(status int, data []byte) error {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return fmt.Errorf("server returned %d: %s", status, body.Error)
	}
	return fmt.Errorf("server returned %d", status)
}

// ask returns either an answer or the server's failure body.
func (c *apiClient) ask(ctx context.Context, question string) (*models.Answer, *chatFailure, error) {
	status, data, err := c.postJSON(ctx, "/api/v1/chat", map[string]string{"query": question})
	if err != nil {
		return nil, nil, err
	}
	if status != http.StatusOK {
		var failure chatFailure
		if json.Unmarshal(data, &failure) == nil && failure.Fallback != "" {
			return nil, &failure, nil
		}
		return nil, nil, apiError(status, data)
	}
	var answer models.Answer
	if err := json.Unmarshal(data, &answer); err != nil {
		return nil, nil, fmt.Errorf("decode answer: %w", err)
	}
	return &answer, nil, nil
}

func (c *apiClient) search(ctx context.Context, query string, limit int, threshold float64) ([]models.SearchResult, error) {
	status, data, err := c.postJSON(ctx, "/api/v1/search", map[string]interface{}{
		"query": query, "limit": limit, "score_threshold": threshold,
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, apiError(status, data)
	}
	var out struct {
		Results []models.SearchResult `json:"results"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return out.Results, nil
}

func (c *apiClient) status(ctx context.Context) (map[string]interface{}, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/api/v1/status", nil)
	if err != nil {
		return nil, err
	}
	status, data, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, apiError(status, data)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return flattenStatus(out), nil
}

func (c *apiClient) upload(ctx context.Context, path string) (*models.IngestResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/v1/documents", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	status, data, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, apiError(status, data)
	}
	var res models.IngestResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return &res, nil
}
