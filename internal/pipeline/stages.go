package pipeline

import (
	"context"

	"docqa/internal/agent"
	"docqa/internal/logging"
	"docqa/internal/memory"
	"docqa/internal/prompts"
	"docqa/internal/retrieval"
)

// Stage is one step of the pipeline. It reads from the state and returns a
// patch with only the fields it writes; it never mutates the state itself.
type Stage interface {
	Name() string
	Run(ctx context.Context, state *State) (Patch, error)
}

// retrievalStage gathers grounding context with a tool-equipped agent.
// Its patch writes Context.
type retrievalStage struct {
	agent  *agent.Agent
	strict bool
}

func (s *retrievalStage) Name() string { return StageRetrieval }

func (s *retrievalStage) Run(ctx context.Context, state *State) (Patch, error) {
	prompt := prompts.RetrievalUserPrompt(FormatHistory(state.History), state.Question)

	transcript, err := s.agent.Invoke(ctx, prompt)
	if err != nil {
		return Patch{}, err
	}

	if toolErr := transcript.FirstToolError(); toolErr != nil && retrieval.IsRetrievalError(toolErr) {
		if s.strict {
			return Patch{}, toolErr
		}
		logging.RetrievalWarn("Retrieval backend failed, degrading to empty context: %v", toolErr)
		return Patch{Context: strPtr("")}, nil
	}

	out, found := transcript.LastTool()
	if !found {
		logging.PipelineWarn("Retrieval produced no tool output; using empty context")
	}
	return Patch{Context: strPtr(out)}, nil
}

// draftingStage produces the draft answer from question, context, and
// history. Its patch writes DraftAnswer.
type draftingStage struct {
	agent *agent.Agent
}

func (s *draftingStage) Name() string { return StageDrafting }

func (s *draftingStage) Run(ctx context.Context, state *State) (Patch, error) {
	prompt := prompts.DraftingUserPrompt(FormatHistory(state.History), state.Question, strOrEmpty(state.Context))

	transcript, err := s.agent.Invoke(ctx, prompt)
	if err != nil {
		return Patch{}, err
	}

	draft, found := transcript.LastAssistant()
	if !found {
		logging.PipelineWarn("Drafting produced no assistant message; using empty draft")
	}
	return Patch{DraftAnswer: strPtr(draft)}, nil
}

// verificationStage checks the draft against the context and produces the
// final answer. Its patch writes Answer.
type verificationStage struct {
	agent *agent.Agent
}

func (s *verificationStage) Name() string { return StageVerification }

func (s *verificationStage) Run(ctx context.Context, state *State) (Patch, error) {
	prompt := prompts.VerificationUserPrompt(state.Question, strOrEmpty(state.Context), strOrEmpty(state.DraftAnswer))

	transcript, err := s.agent.Invoke(ctx, prompt)
	if err != nil {
		return Patch{}, err
	}

	answer, found := transcript.LastAssistant()
	if !found {
		logging.PipelineWarn("Verification produced no assistant message; using empty answer")
	}
	return Patch{Answer: strPtr(answer)}, nil
}

// summarizerStage compresses the conversation once it exceeds the turn
// threshold; below it, the incoming summary passes through unchanged. Its
// patch writes ConversationSummary, and only when regenerated.
type summarizerStage struct {
	summarizer *memory.Summarizer
}

func (s *summarizerStage) Name() string { return StageSummarizer }

func (s *summarizerStage) Run(ctx context.Context, state *State) (Patch, error) {
	if !s.summarizer.ShouldSummarize(len(state.History)) {
		logging.MemoryDebug("History length %d within threshold %d; summary unchanged",
			len(state.History), s.summarizer.Threshold())
		return Patch{}, nil
	}

	summary, err := s.summarizer.Summarize(ctx, FormatHistory(state.History))
	if err != nil {
		return Patch{}, err
	}
	return Patch{ConversationSummary: strPtr(summary)}, nil
}
