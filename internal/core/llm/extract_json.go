package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lueurxax/diary-replier/internal/core/errors"
)

const codeFence = "```"

// extractJSON tries to extract a JSON object from a response that might have
// extra text or a markdown fence around it. The input is returned unchanged
// when no valid object is found.
func extractJSON(text string) string {
	trimmed := stripCodeFence(strings.TrimSpace(text))
	if json.Valid([]byte(trimmed)) {
		return trimmed
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")

	if start != -1 && end > start {
		candidate := trimmed[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate
		}
	}

	return text
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, codeFence) {
		return text
	}

	text = strings.TrimPrefix(text, codeFence)
	if nl := strings.IndexByte(text, '\n'); nl != -1 {
		text = text[nl+1:]
	}

	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), codeFence))
}

// DecodeJSON parses a structured completion into T. Any failure wraps
// ErrParseFailure.
func DecodeJSON[T any](raw string) (T, error) {
	var out T

	body := extractJSON(raw)
	if strings.TrimSpace(body) == "" {
		return out, fmt.Errorf("%w: empty response", errors.ErrParseFailure)
	}

	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return out, fmt.Errorf("%w: %w", errors.ErrParseFailure, err)
	}

	return out, nil
}
