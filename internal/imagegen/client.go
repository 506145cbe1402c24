// Package imagegen turns image prompts into saved image files through a
// hosted diffusion model, processed asynchronously off a job queue.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultModelURL is the hosted inference endpoint for the default diffusion
// model.
const defaultModelURL = "https://api-inference.huggingface.co/models/stabilityai/stable-diffusion-xl-base-1.0"

// promptSuffix is appended to every prompt to pin output quality.
const promptSuffix = ", quality=4K, sharpness=maximum, ultra high details, high resolution"

// Client calls a hosted text-to-image inference endpoint.
type Client struct {
	apiKey     string
	modelURL   string
	httpClient *http.Client
}

// NewClient creates an inference client for the default model.
func NewClient(apiKey string) *Client {
	return NewClientWithModelURL(apiKey, defaultModelURL)
}

// NewClientWithModelURL creates a client against a custom endpoint (used by
// tests).
func NewClientWithModelURL(apiKey, modelURL string) *Client {
	return &Client{
		apiKey:   apiKey,
		modelURL: modelURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Generate renders one image for the prompt with the given seed and returns
// the raw image bytes.
func (c *Client) Generate(ctx context.Context, prompt string, seed int64) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{
		"inputs": fmt.Sprintf("%s%s, seed=%d", prompt, promptSuffix, seed),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating inference request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending inference request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference returned status %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading image bytes: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("inference returned an empty image")
	}
	return data, nil
}
