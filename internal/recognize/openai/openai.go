package openai

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
	apiURL = "https://api.openai.com/v1/chat/completions"
)

func init() {
	recognize.RegisterProvider("openai", func(cfg *config.RecognizerProviderConfig) (port.PhotoRecognizer, error) {
		return NewRecognizer(cfg), nil
	})
}

// Recognizer implements port.PhotoRecognizer using OpenAI's chat completions API.
type Recognizer struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewRecognizer creates an OpenAI-based photo recognizer.
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
		model = "gpt-4o"
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

	content := make([]map[string]interface{}, 0, len(photos)+1)
	for _, p := range photos {
		switch p.ContentType {
		case "image/jpeg", "image/png":
		default:
			return nil, fmt.Errorf("unsupported content type for recognition: %s", p.ContentType)
		}
		dataURI := fmt.Sprintf("data:%s;base64,%s", p.ContentType, base64.StdEncoding.EncodeToString(p.FileBytes))
		content = append(content, map[string]interface{}{
			"type": "image_url",
			"image_url": map[string]interface{}{
				"url": dataURI,
			},
		})
	}
	content = append(content, map[string]interface{}{
		"type": "text",
		"text": prompt,
	})

	// The reply schema is a JSON array, so response_format json_object
	// cannot be used here: that mode rejects top-level arrays.
	reqBody := map[string]interface{}{
		"model": r.model,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": content,
			},
		},
		"max_completion_tokens": 16384,
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
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling openai API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("openai API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := recognize.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, recognize.NewRateLimitError("openai", baseErr, retryAfter)
		}
		return nil, baseErr
	}

	return parseResponse(respBody)
}

// openaiResponse models the chat completions response.
type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte) ([]port.Observation, error) {
	var resp openaiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API: no choices")
	}

	if resp.Choices[0].FinishReason == "length" {
		return nil, fmt.Errorf("output truncated (finish_reason: length): response exceeded output token limit")
	}

	return recognize.ParseObservations(resp.Choices[0].Message.Content)
}
