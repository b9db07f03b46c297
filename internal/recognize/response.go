package recognize

import (
	"encoding/json"
	"fmt"
	"strings"

	"daicho/internal/port"
)

// ParseObservations decodes a model reply into observations. A bare
// JSON array is expected, but fenced or prefixed output is tolerated.
func ParseObservations(text string) ([]port.Observation, error) {
	jsonStr, err := extractJSON(text)
	if err != nil {
		return nil, err
	}
	var obs []port.Observation
	if err := json.Unmarshal([]byte(strings.TrimSpace(jsonStr)), &obs); err != nil {
		return nil, fmt.Errorf("parsing recognition JSON output: %w (raw: %s)", err, truncate(text, 500))
	}
	return obs, nil
}

func extractJSON(response string) (string, error) {
	if idx := strings.Index(response, "```json"); idx >= 0 {
		rest := response[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return rest[:end], nil
		}
		return rest, nil
	}
	if start := strings.Index(response, "["); start >= 0 {
		if end := strings.LastIndex(response, "]"); end > start {
			return response[start : end+1], nil
		}
		return response[start:], nil
	}
	return "", fmt.Errorf("no JSON array in model reply: %s", truncate(response, 200))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
