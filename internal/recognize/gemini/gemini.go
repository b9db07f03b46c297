package gemini

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
	apiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
)

func init() {
	recognize.RegisterProvider("gemini", func(cfg *config.RecognizerProviderConfig) (port.PhotoRecognizer, error) {
		return NewRecognizer(cfg), nil
	})
}

// Recognizer implements port.PhotoRecognizer using Google's Gemini API.
type Recognizer struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewRecognizer creates a Gemini-based photo recognizer.
func NewRecognizer(cfg *config.RecognizerProviderConfig) *Recognizer {
	return newRecognizer(cfg, "")
}

// NewRecognizerWithEndpoint creates a recognizer pointing at a custom API endpoint (for testing).
func NewRecognizerWithEndpoint(cfg *config.RecognizerProviderConfig, endpoint string) *Recognizer {
	return newRecognizer(cfg, endpoint)
}

func newRecognizer(cfg *config.RecognizerProviderConfig, endpoint string) *Recognizer {
	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
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

	parts := make([]map[string]interface{}, 0, len(photos)+1)
	for _, p := range photos {
		switch p.ContentType {
		case "image/jpeg", "image/png":
		default:
			return nil, fmt.Errorf("unsupported content type for recognition: %s", p.ContentType)
		}
		parts = append(parts, map[string]interface{}{
			"inline_data": map[string]interface{}{
				"mime_type": p.ContentType,
				"data":      base64.StdEncoding.EncodeToString(p.FileBytes),
			},
		})
	}
	parts = append(parts, map[string]interface{}{
		"text": prompt,
	})

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role":  "user",
				"parts": parts,
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"maxOutputTokens":  16384,
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
	req.Header.Set("x-goog-api-key", r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling gemini API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := recognize.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, recognize.NewRateLimitError("gemini", baseErr, retryAfter)
		}
		return nil, baseErr
	}

	return parseResponse(respBody)
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func parseResponse(body []byte) ([]port.Observation, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from API: no candidates")
	}

	if len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from API: no parts")
	}

	if resp.Candidates[0].FinishReason == "MAX_TOKENS" {
		return nil, fmt.Errorf("output truncated (finishReason: MAX_TOKENS): response exceeded output token limit")
	}

	return recognize.ParseObservations(resp.Candidates[0].Content.Parts[0].Text)
}
