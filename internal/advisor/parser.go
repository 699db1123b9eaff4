package advisor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var thinkTagRegex = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThinkTags removes reasoning-model think tags from the response.
func StripThinkTags(text string) string {
	return strings.TrimSpace(thinkTagRegex.ReplaceAllString(text, ""))
}

// ParseReview parses the model output into a Review.
// Handles: bare JSON object, markdown code fences, prose around the object.
func ParseReview(text string) (*Review, error) {
	cleaned := StripThinkTags(text)

	// Remove markdown code fences
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return nil, fmt.Errorf("empty advisor response")
	}

	var review Review
	if err := json.Unmarshal([]byte(cleaned), &review); err == nil {
		return &review, nil
	}

	// Try extracting the JSON object from the text
	jsonStart := strings.Index(cleaned, "{")
	jsonEnd := strings.LastIndex(cleaned, "}")
	if jsonStart >= 0 && jsonEnd > jsonStart {
		if err := json.Unmarshal([]byte(cleaned[jsonStart:jsonEnd+1]), &review); err == nil {
			return &review, nil
		}
	}

	return nil, fmt.Errorf("failed to parse advisor response as JSON: %.200s", cleaned)
}
