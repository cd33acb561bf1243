package pipeline

import (
	"fmt"
	"strings"
)

// EmptyHistorySentinel is injected into prompts when no prior turns exist.
const EmptyHistorySentinel = "No previous conversation."

// FormatHistory renders prior turns as a prompt block, oldest first. Turns
// missing either side are skipped.
func FormatHistory(history []Turn) string {
	if len(history) == 0 {
		return EmptyHistorySentinel
	}

	formatted := make([]string, 0, len(history))
	for _, turn := range history {
		if turn.Question == "" || turn.Answer == "" {
			continue
		}
		formatted = append(formatted, fmt.Sprintf("User: %s\nAssistant: %s", turn.Question, turn.Answer))
	}

	if len(formatted) == 0 {
		return EmptyHistorySentinel
	}
	return strings.Join(formatted, "\n---\n")
}
