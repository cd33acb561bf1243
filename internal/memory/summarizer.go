// Package memory compresses long conversations into a rolling summary.
package memory

import (
	"context"
	"fmt"

	"docqa/internal/llm"
	"docqa/internal/logging"
	"docqa/internal/prompts"
)

// DefaultThreshold is the number of turns a conversation may reach before
// summarization kicks in.
const DefaultThreshold = 2

// Summarizer produces a 3-4 sentence summary of a conversation once it
// grows past the turn threshold.
type Summarizer struct {
	client    llm.Client
	threshold int
}

// NewSummarizer creates a summarizer. A non-positive threshold falls back
// to the default.
func NewSummarizer(client llm.Client, threshold int) *Summarizer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Summarizer{client: client, threshold: threshold}
}

// Threshold returns the configured turn threshold.
func (s *Summarizer) Threshold() int {
	return s.threshold
}

// ShouldSummarize reports whether a conversation of the given length needs
// a fresh summary.
func (s *Summarizer) ShouldSummarize(turns int) bool {
	return turns > s.threshold
}

// Summarize compresses the rendered conversation history with a single
// direct generation call.
func (s *Summarizer) Summarize(ctx context.Context, historyText string) (string, error) {
	timer := logging.StartTimer(logging.CategoryMemory, "Summarize")
	defer timer.Stop()

	summary, err := s.client.Complete(ctx, prompts.SummarizeUserPrompt(historyText))
	if err != nil {
		return "", fmt.Errorf("conversation summarization failed: %w", err)
	}

	logging.Memory("Conversation summarized (history_len=%d, summary_len=%d)", len(historyText), len(summary))
	return summary, nil
}
