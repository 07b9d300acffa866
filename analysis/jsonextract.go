package analysis

import (
	"fmt"
	"strings"
)

// ExtractJSON pulls the candidate JSON document out of raw model output.
// Structured-output channels normally return bare JSON, but models still
// occasionally wrap the payload in prose or a markdown fence, so extraction
// is its own phase, separate from validation.
func ExtractJSON(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return trimmed, nil
	}

	if fenced, ok := extractFencedJSON(text); ok {
		return fenced, nil
	}

	// Fall back to the outermost braces. The provider guarantees syntactic
	// validity of the structured payload, so the widest span is the safest
	// guess when prose surrounds it.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object in model output")
	}
	return text[start : end+1], nil
}

func extractFencedJSON(text string) (string, bool) {
	startIndex := strings.Index(text, "```json")
	if startIndex == -1 {
		return "", false
	}
	rest := text[startIndex+len("```json"):]
	endIndex := strings.Index(rest, "```")
	if endIndex == -1 {
		return "", false
	}
	return strings.TrimSpace(rest[:endIndex]), true
}
