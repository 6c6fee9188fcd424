package extract

import "strings"

const (
	jsonFence = "```json"
	bareFence = "```"
)

// RecoverJSON pulls the machine-readable payload out of a model response.
// Models wrap JSON in fenced blocks inconsistently, so recovery is layered:
//
//  1. A block opened with a ```json fence: take the text strictly between
//     that marker and the next closing fence.
//  2. Any other fenced block: take the text between the first opening fence
//     and the last closing fence in the response.
//  3. No fences: use the response unmodified.
//
// A fence that is never closed yields everything after the opening marker;
// the JSON parse downstream decides whether that was salvageable.
func RecoverJSON(response string) string {
	if idx := strings.Index(response, jsonFence); idx >= 0 {
		start := idx + len(jsonFence)
		end := strings.Index(response[start:], bareFence)
		if end < 0 {
			return strings.TrimSpace(response[start:])
		}
		return strings.TrimSpace(response[start : start+end])
	}

	if idx := strings.Index(response, bareFence); idx >= 0 {
		start := idx + len(bareFence)
		end := strings.LastIndex(response, bareFence)
		if end <= idx {
			return strings.TrimSpace(response[start:])
		}
		return strings.TrimSpace(response[start:end])
	}

	return response
}
