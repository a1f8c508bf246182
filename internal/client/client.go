// Package client provides a small typed client for the HLR sidecar API,
// for CLI commands and for embedding in Go callers.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/AnrPg/noema/internal/hlr"
)

const (
	defaultServerURL = "http://127.0.0.1:8020"
	httpTimeout      = 5 * time.Second
)

// Client talks to a running HLR sidecar.
type Client struct {
	http      *http.Client
	serverURL string
}

// New creates a sidecar client. Respects the HLR_URL env var, falls back
// to http://127.0.0.1:8020.
func New() *Client {
	url := os.Getenv("HLR_URL")
	if url == "" {
		url = defaultServerURL
	}
	return NewWithURL(url)
}

// NewWithURL creates a client against an explicit base URL.
func NewWithURL(url string) *Client {
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: url,
	}
}

// Prediction is the sidecar's answer for one feature vector.
type Prediction struct {
	RecallProbability float64 `json:"recall_probability"`
	HalfLifeDays      float64 `json:"half_life_days"`
}

// WeightsSnapshot is the current model state as reported by the sidecar.
type WeightsSnapshot struct {
	Weights       map[string]float64 `json:"weights"`
	FeatureCounts map[string]int     `json:"feature_counts"`
}

// Predict asks the sidecar for a recall/half-life estimate.
func (c *Client) Predict(features []hlr.Feature, deltaDays float64) (*Prediction, error) {
	req := map[string]any{
		"features":   features,
		"delta_days": deltaDays,
	}
	var out Prediction
	if err := c.postJSON("/api/predict", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Train submits one observed review outcome. actualHalfLife may be nil.
// Returns the post-update prediction for the same features and delta.
func (c *Client) Train(features []hlr.Feature, deltaDays, actualRecall float64, actualHalfLife *float64) (*Prediction, error) {
	req := map[string]any{
		"features":      features,
		"delta_days":    deltaDays,
		"actual_recall": actualRecall,
	}
	if actualHalfLife != nil {
		req["actual_half_life"] = *actualHalfLife
	}
	var out Prediction
	if err := c.postJSON("/api/train", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Weights fetches the current weights and feature counts.
func (c *Client) Weights() (*WeightsSnapshot, error) {
	data, err := c.get("/api/weights")
	if err != nil {
		return nil, err
	}
	var out WeightsSnapshot
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode weights: %w", err)
	}
	return &out, nil
}

// LoadWeights replaces the sidecar's weight table.
func (c *Client) LoadWeights(weights map[string]float64) error {
	body, err := json.Marshal(weights)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}

	req, err := http.NewRequest(http.MethodPut, c.serverURL+"/api/weights", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("PUT /api/weights: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("PUT /api/weights: status %d: %s", resp.StatusCode, data)
	}
	return nil
}

// Healthy checks if the sidecar is reachable.
func (c *Client) Healthy() bool {
	resp, err := c.http.Get(c.serverURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) postJSON(path string, req any, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := c.http.Post(c.serverURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("POST %s: status %d: %s", path, resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(path string) ([]byte, error) {
	resp, err := c.http.Get(c.serverURL + path)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, data)
	}
	return data, nil
}
