package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"docqa/internal/agent"
	"docqa/internal/llm"
	"docqa/internal/prompts"
	"docqa/internal/retrieval"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockRetriever serves fixed passages, optionally failing.
type mockRetriever struct {
	passages map[string][]retrieval.Passage
	err      error
	calls    []string
}

func (r *mockRetriever) Retrieve(_ context.Context, query string, _ int) ([]retrieval.Passage, error) {
	r.calls = append(r.calls, query)
	if r.err != nil {
		return nil, &retrieval.RetrievalError{Err: r.err}
	}
	return r.passages[query], nil
}

// mockClient dispatches on the system prompt so one client can play all
// three agent roles plus the direct summarization call.
type mockClient struct {
	// retrievalQueries are tool queries the retrieval agent issues, one
	// per round, before finishing with a plain message.
	retrievalQueries []string
	retrievalRound   int

	draftText  string
	draftErr   error
	verifyText string
	verifyErr  error

	summaryText   string
	summaryErr    error
	completeCalls int

	verifyCalled bool
}

func (c *mockClient) Complete(_ context.Context, _ string) (string, error) {
	c.completeCalls++
	if c.summaryErr != nil {
		return "", c.summaryErr
	}
	return c.summaryText, nil
}

func (c *mockClient) CompleteWithSystem(_ context.Context, _, _ string) (string, error) {
	return "", errors.New("not used")
}

func (c *mockClient) CompleteConversation(_ context.Context, systemPrompt string, _ []llm.ChatMessage, _ []llm.ToolDefinition) (*llm.ToolResponse, error) {
	switch systemPrompt {
	case prompts.RetrievalSystemPrompt:
		if c.retrievalRound < len(c.retrievalQueries) {
			query := c.retrievalQueries[c.retrievalRound]
			c.retrievalRound++
			return &llm.ToolResponse{
				ToolCalls: []llm.ToolCall{{
					ID:    fmt.Sprintf("call-%d", c.retrievalRound),
					Name:  "retrieve_documents",
					Input: map[string]interface{}{"query": query},
				}},
				StopReason: "tool_use",
			}, nil
		}
		return &llm.ToolResponse{Text: "context gathered", StopReason: "end_turn"}, nil

	case prompts.DraftingSystemPrompt:
		if c.draftErr != nil {
			return nil, c.draftErr
		}
		return &llm.ToolResponse{Text: c.draftText, StopReason: "end_turn"}, nil

	case prompts.VerificationSystemPrompt:
		c.verifyCalled = true
		if c.verifyErr != nil {
			return nil, c.verifyErr
		}
		return &llm.ToolResponse{Text: c.verifyText, StopReason: "end_turn"}, nil
	}
	return nil, fmt.Errorf("unexpected system prompt: %q", systemPrompt)
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.StageTimeout = 0
	return opts
}

func TestScenarioRefundWindow(t *testing.T) {
	retriever := &mockRetriever{passages: map[string][]retrieval.Passage{
		"refund window": {{Text: "Refunds within 30 days.", Source: "policy.txt"}},
	}}
	client := &mockClient{
		retrievalQueries: []string{"refund window"},
		draftText:        "30 days.",
		verifyText:       "You have 30 days to request a refund.",
	}

	g := New(client, retriever, testOptions())
	result, err := g.Run(context.Background(), Request{Question: "What is the refund window?"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Answer != "You have 30 days to request a refund." {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
	if !strings.Contains(result.Context, "Refunds within 30 days.") {
		t.Errorf("context missing retrieved passage: %q", result.Context)
	}
	if result.ConversationSummary != "" {
		t.Errorf("summary should be unchanged with empty history, got %q", result.ConversationSummary)
	}
	if result.SessionID == "" {
		t.Error("expected a generated session id")
	}
	if client.completeCalls != 0 {
		t.Errorf("summarizer should not run with empty history, got %d calls", client.completeCalls)
	}
}

func TestSummarizerRunsPastThreshold(t *testing.T) {
	retriever := &mockRetriever{}
	client := &mockClient{
		draftText:   "draft",
		verifyText:  "final",
		summaryText: "A fresh three-sentence summary.",
	}

	history := []Turn{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
		{Question: "q3", Answer: "a3"},
	}

	g := New(client, retriever, testOptions())
	result, err := g.Run(context.Background(), Request{
		Question:            "q4",
		History:             history,
		ConversationSummary: "stale summary",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if client.completeCalls != 1 {
		t.Errorf("expected exactly 1 summarization call, got %d", client.completeCalls)
	}
	if result.ConversationSummary != "A fresh three-sentence summary." {
		t.Errorf("expected regenerated summary, got %q", result.ConversationSummary)
	}
}

func TestSummarizerPassThroughAtThreshold(t *testing.T) {
	retriever := &mockRetriever{}
	client := &mockClient{
		draftText:   "draft",
		verifyText:  "final",
		summaryText: "should not appear",
	}

	history := []Turn{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
	}

	g := New(client, retriever, testOptions())
	result, err := g.Run(context.Background(), Request{
		Question:            "q3",
		History:             history,
		ConversationSummary: "existing summary",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if client.completeCalls != 0 {
		t.Errorf("summarizer should not run at threshold, got %d calls", client.completeCalls)
	}
	if result.ConversationSummary != "existing summary" {
		t.Errorf("expected pass-through summary, got %q", result.ConversationSummary)
	}
}

func TestDraftingFailureAbortsBeforeVerification(t *testing.T) {
	retriever := &mockRetriever{}
	genErr := &llm.GenerationError{Provider: "mock", Err: errors.New("rate limit")}
	client := &mockClient{draftErr: genErr}

	g := New(client, retriever, testOptions())
	result, err := g.Run(context.Background(), Request{Question: "q"})
	if err == nil {
		t.Fatal("expected run to fail")
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %T: %v", err, err)
	}
	if stageErr.Stage != StageDrafting {
		t.Errorf("expected failure in drafting stage, got %s", stageErr.Stage)
	}
	if !llm.IsGenerationError(err) {
		t.Error("expected the generation error to be wrapped")
	}
	if client.verifyCalled {
		t.Error("verification must not run after drafting failure")
	}
	if result.Answer != "" {
		t.Errorf("no answer should be produced on failure, got %q", result.Answer)
	}
}

func TestLastToolResultWins(t *testing.T) {
	retriever := &mockRetriever{passages: map[string][]retrieval.Passage{
		"first":  {{Text: "first passage"}},
		"second": {{Text: "second passage"}},
	}}
	client := &mockClient{
		retrievalQueries: []string{"first", "second"},
		draftText:        "draft",
		verifyText:       "final",
	}

	g := New(client, retriever, testOptions())
	result, err := g.Run(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.Contains(result.Context, "second passage") {
		t.Errorf("context should hold the last tool result, got %q", result.Context)
	}
	if strings.Contains(result.Context, "first passage") {
		t.Errorf("context should not hold earlier tool results, got %q", result.Context)
	}
}

func TestEmptyRetrievalYieldsEmptyContext(t *testing.T) {
	retriever := &mockRetriever{} // no passages for any query
	client := &mockClient{
		retrievalQueries: []string{"anything"},
		draftText:        "insufficient information",
		verifyText:       "The context does not contain this information.",
	}

	g := New(client, retriever, testOptions())
	result, err := g.Run(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("empty retrieval must not fail the run: %v", err)
	}
	if result.Context != "" {
		t.Errorf("expected empty context, got %q", result.Context)
	}
	if result.Answer == "" {
		t.Error("downstream stages should still produce an answer")
	}
}

func TestRetrievalFailureStrict(t *testing.T) {
	retriever := &mockRetriever{err: errors.New("index unavailable")}
	client := &mockClient{
		retrievalQueries: []string{"anything"},
		draftText:        "draft",
		verifyText:       "final",
	}

	opts := testOptions()
	opts.Strict = true
	g := New(client, retriever, opts)

	_, err := g.Run(context.Background(), Request{Question: "q"})
	if err == nil {
		t.Fatal("strict mode must abort on retrieval failure")
	}
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageRetrieval {
		t.Fatalf("expected retrieval StageError, got %v", err)
	}
	if !retrieval.IsRetrievalError(err) {
		t.Error("expected RetrievalError in chain")
	}
	if client.verifyCalled {
		t.Error("verification must not run after retrieval failure")
	}
}

func TestRetrievalFailureLenient(t *testing.T) {
	retriever := &mockRetriever{err: errors.New("index unavailable")}
	client := &mockClient{
		retrievalQueries: []string{"anything"},
		draftText:        "best effort",
		verifyText:       "best effort, verified",
	}

	opts := testOptions()
	opts.Strict = false
	g := New(client, retriever, opts)

	result, err := g.Run(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("lenient mode must degrade, not fail: %v", err)
	}
	if result.Context != "" {
		t.Errorf("expected empty context after degraded retrieval, got %q", result.Context)
	}
	if result.Answer != "best effort, verified" {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
}

func TestHistoryNeverMutated(t *testing.T) {
	retriever := &mockRetriever{}
	client := &mockClient{
		draftText:   "draft",
		verifyText:  "final",
		summaryText: "summary",
	}

	history := []Turn{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
		{Question: "q3", Answer: "a3"},
	}
	want := make([]Turn, len(history))
	copy(want, history)

	g := New(client, retriever, testOptions())
	if _, err := g.Run(context.Background(), Request{Question: "q4", History: history}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if diff := cmp.Diff(want, history); diff != "" {
		t.Errorf("history mutated by pipeline (-want +got):\n%s", diff)
	}
}

func TestSuppliedSessionIDPreserved(t *testing.T) {
	retriever := &mockRetriever{}
	client := &mockClient{draftText: "d", verifyText: "f"}

	g := New(client, retriever, testOptions())
	result, err := g.Run(context.Background(), Request{Question: "q", SessionID: "session-42"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.SessionID != "session-42" {
		t.Errorf("session id not preserved: %q", result.SessionID)
	}
}

func TestDraftingIgnoresPresetDraft(t *testing.T) {
	client := &mockClient{draftText: "the draft"}
	stage := &draftingStage{agent: agent.New("drafting", client, prompts.DraftingSystemPrompt)}

	base := &State{Question: "q", Context: strPtr("ctx")}
	patch1, err := stage.Run(context.Background(), base)
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}

	preset := &State{Question: "q", Context: strPtr("ctx"), DraftAnswer: strPtr("stale draft")}
	patch2, err := stage.Run(context.Background(), preset)
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}

	if *patch1.DraftAnswer != *patch2.DraftAnswer {
		t.Errorf("drafting output depends on prior draft: %q vs %q", *patch1.DraftAnswer, *patch2.DraftAnswer)
	}
}

func TestPatchApplyLeavesUnsetFieldsAlone(t *testing.T) {
	state := &State{Question: "q", Context: strPtr("ctx")}
	state.apply(Patch{DraftAnswer: strPtr("draft")})

	if state.Context == nil || *state.Context != "ctx" {
		t.Error("apply overwrote an unpatched field")
	}
	if state.DraftAnswer == nil || *state.DraftAnswer != "draft" {
		t.Error("apply did not set the patched field")
	}
	if state.Answer != nil || state.ConversationSummary != nil {
		t.Error("apply set fields absent from the patch")
	}
}

func TestFormatHistory(t *testing.T) {
	tests := []struct {
		name    string
		history []Turn
		want    string
	}{
		{
			name:    "empty history",
			history: nil,
			want:    EmptyHistorySentinel,
		},
		{
			name:    "single turn",
			history: []Turn{{Question: "hi", Answer: "hello"}},
			want:    "User: hi\nAssistant: hello",
		},
		{
			name: "multiple turns joined with separator",
			history: []Turn{
				{Question: "q1", Answer: "a1"},
				{Question: "q2", Answer: "a2"},
			},
			want: "User: q1\nAssistant: a1\n---\nUser: q2\nAssistant: a2",
		},
		{
			name: "incomplete turns skipped",
			history: []Turn{
				{Question: "q1", Answer: ""},
				{Question: "q2", Answer: "a2"},
			},
			want: "User: q2\nAssistant: a2",
		},
		{
			name: "all turns incomplete",
			history: []Turn{
				{Question: "q1"},
				{Answer: "a2"},
			},
			want: EmptyHistorySentinel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatHistory(tt.history); got != tt.want {
				t.Errorf("FormatHistory = %q, want %q", got, tt.want)
			}
		})
	}
}
