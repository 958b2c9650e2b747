package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

const imageGenTimeout = 30 * time.Second

// ImageGenerator produces a themed invitation image from a free-text prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (*GeneratedImage, error)
}

// GeneratedImage is the hosted result of a generation request.
type GeneratedImage struct {
	URL string `json:"url"`
}

// ImageClient talks to an OpenAI-compatible image generation endpoint.
type ImageClient struct {
	BaseURL string
	APIKey  string
	Model   string

	HTTPClient *http.Client
}

func NewImageClient(baseURL, apiKey, model string) *ImageClient {
	return &ImageClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		HTTPClient: &http.Client{
			Timeout: imageGenTimeout,
		},
	}
}

type imageGenRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageGenResponse struct {
	Data []GeneratedImage `json:"data"`
}

// GenerateImage submits the prompt and waits for a hosted image URL.
// Transient upstream failures (429 and 5xx) are retried with exponential
// backoff; anything else fails immediately.
func (c *ImageClient) GenerateImage(ctx context.Context, prompt string) (*GeneratedImage, error) {
	ctx, cancel := context.WithTimeout(ctx, imageGenTimeout)
	defer cancel()

	body, err := json.Marshal(imageGenRequest{
		Model:  c.Model,
		Prompt: prompt,
		N:      1,
		Size:   "1024x1024",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal image request: %w", err)
	}

	backoff := retry.NewExponential(500 * time.Millisecond)
	backoff = retry.WithMaxRetries(2, backoff)

	var result *GeneratedImage
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/images/generations", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build image request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("image generation request: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			return retry.RetryableError(fmt.Errorf("image generation upstream status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("image generation failed with status %d", resp.StatusCode)
		}

		var out imageGenResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode image response: %w", err)
		}
		if len(out.Data) == 0 {
			return fmt.Errorf("image generation returned no images")
		}

		result = &out.Data[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
