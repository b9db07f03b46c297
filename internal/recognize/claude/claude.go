package claude

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"daicho/internal/config"
	"daicho/internal/domain"
	"daicho/internal/port"
	"daicho/internal/recognize"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
)

func init() {
	recognize.RegisterProvider("claude", func(cfg *config.RecognizerProviderConfig) (port.PhotoRecognizer, error) {
		return NewRecognizer(cfg), nil
	})
}

// Recognizer implements port.PhotoRecognizer using the Anthropic Messages API.
type Recognizer struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewRecognizer creates a Claude-based photo recognizer from a provider config.
func NewRecognizer(cfg *config.RecognizerProviderConfig) *Recognizer {
	return newRecognizer(cfg, apiURL)
}

// NewRecognizerWithEndpoint creates a recognizer pointing at a custom API endpoint (for testing).
func NewRecognizerWithEndpoint(cfg *config.RecognizerProviderConfig, endpoint string) *Recognizer {
	return newRecognizer(cfg, endpoint)
}

func newRecognizer(cfg *config.RecognizerProviderConfig, endpoint string) *Recognizer {
	model := cfg.DefaultModel
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Recognizer{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (r *Recognizer) Recognize(ctx context.Context, photos []port.VisionPhoto, hints port.VisionHints) ([]port.Observation, error) {
	if len(photos) == 0 {
		return nil, fmt.Errorf("recognize batch: %w", domain.ErrEmptyBatch)
	}
	prompt := recognize.BuildVisionPrompt(photos, hints)

	contentBlocks, err := buildContentBlocks(photos, prompt)
	if err != nil {
		return nil, fmt.Errorf("building content blocks: %w", err)
	}

	reqBody := map[string]interface{}{
		"model":      r.model,
		"max_tokens": 16384,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": contentBlocks,
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", r.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling anthropic API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := recognize.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, recognize.NewRateLimitError("claude", baseErr, retryAfter)
		}
		return nil, baseErr
	}

	return parseResponse(respBody)
}

func buildContentBlocks(photos []port.VisionPhoto, prompt string) ([]map[string]interface{}, error) {
	var blocks []map[string]interface{}
	for _, p := range photos {
		switch p.ContentType {
		case "image/jpeg", "image/png":
		default:
			return nil, fmt.Errorf("unsupported content type for recognition: %s", p.ContentType)
		}
		blocks = append(blocks, map[string]interface{}{
			"type": "image",
			"source": map[string]interface{}{
				"type":       "base64",
				"media_type": p.ContentType,
				"data":       base64.StdEncoding.EncodeToString(p.FileBytes),
			},
		})
	}

	blocks = append(blocks, map[string]interface{}{
		"type": "text",
		"text": prompt,
	})

	return blocks, nil
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func parseResponse(body []byte) ([]port.Observation, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}

	if resp.StopReason == "max_tokens" {
		return nil, fmt.Errorf("output truncated (stop_reason: max_tokens): response exceeded output token limit")
	}

	return recognize.ParseObservations(resp.Content[0].Text)
}
