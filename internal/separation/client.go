// Package separation talks to the external stem-separation service. The
// model is a black box here; for a fixed model version and input it is
// deterministic, which the render pipeline relies on.
package separation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/songmasher/api/internal/config"
	"github.com/songmasher/api/internal/model"
)

// Separator splits a stored track into four stems, returning storage
// refs for each.
type Separator interface {
	Separate(ctx context.Context, trackRef string) (*model.StemRefs, error)
	ModelVersion() string
	HealthCheck(ctx context.Context) error
}

// Client implements Separator against the separation microservice.
type Client struct {
	httpClient *http.Client
	baseURL    string
	modelName  string
}

type separateRequest struct {
	TrackRef string `json:"track_ref"`
	Model    string `json:"model"`
}

type separateResponse struct {
	Vocals string `json:"vocals"`
	Drums  string `json:"drums"`
	Bass   string `json:"bass"`
	Other  string `json:"other"`
}

func NewClient(cfg *config.SeparationConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		baseURL:   cfg.ServiceURL,
		modelName: cfg.Model,
	}
}

func (c *Client) ModelVersion() string { return c.modelName }

// Separate asks the service to split the track and waits for the result.
func (c *Client) Separate(ctx context.Context, trackRef string) (*model.StemRefs, error) {
	body, err := json.Marshal(separateRequest{TrackRef: trackRef, Model: c.modelName})
	if err != nil {
		return nil, fmt.Errorf("separation: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/separate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("separation: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("separation: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("separation: service returned %d: %s", resp.StatusCode, msg)
	}

	var result separateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("separation: decoding response: %w", err)
	}
	if result.Vocals == "" || result.Drums == "" || result.Bass == "" || result.Other == "" {
		return nil, fmt.Errorf("separation: incomplete stem set in response")
	}
	return &model.StemRefs{
		Vocals: result.Vocals,
		Drums:  result.Drums,
		Bass:   result.Bass,
		Other:  result.Other,
	}, nil
}

// HealthCheck probes the service.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("separation: creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("separation: health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("separation: service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
