// internal/mapper/parser.go
package mapper

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// LLM responses are frequently wrapped in markdown fences or conversational
// text; recovery here keeps a sloppy collaborator from aborting the workflow.

var (
	// \x60 is a backtick; raw strings cannot contain them.
	fencedObjectRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*({.*})\\s*\x60\x60\x60")
	fencedArrayRegex  = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*(\\[.*\\])\\s*\x60\x60\x60")
)

// ParseJSONResponse extracts and unmarshals a JSON payload from an LLM
// response, tolerating markdown fences and surrounding prose.
func ParseJSONResponse[T any](response string) (*T, error) {
	response = strings.TrimSpace(response)
	candidate := response

	hasObject := strings.Contains(response, "{")
	hasArray := strings.Contains(response, "[")

	if strings.HasPrefix(response, "```") {
		var matches []string
		if hasObject {
			matches = fencedObjectRegex.FindStringSubmatch(response)
		}
		if len(matches) <= 1 && hasArray {
			matches = fencedArrayRegex.FindStringSubmatch(response)
		}
		if len(matches) > 1 {
			candidate = matches[1]
		}
	} else if (hasObject || hasArray) && !strings.HasPrefix(response, "{") && !strings.HasPrefix(response, "[") {
		if extracted := extractStructure(response, hasObject, hasArray); extracted != "" {
			candidate = extracted
		}
	}

	var result T
	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal collaborator JSON response: %w (extracted: %s)",
			err, truncate(candidate, 300))
	}
	return &result, nil
}

// extractStructure pulls the outermost JSON object or array out of
// conversational text.
func extractStructure(response string, hasObject, hasArray bool) string {
	if hasObject {
		first := strings.Index(response, "{")
		last := strings.LastIndex(response, "}")
		if first != -1 && last > first {
			return response[first : last+1]
		}
	}
	if hasArray {
		first := strings.Index(response, "[")
		last := strings.LastIndex(response, "]")
		if first != -1 && last > first {
			return response[first : last+1]
		}
	}
	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
