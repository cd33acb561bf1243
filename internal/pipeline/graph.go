package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"docqa/internal/agent"
	"docqa/internal/llm"
	"docqa/internal/logging"
	"docqa/internal/memory"
	"docqa/internal/prompts"
	"docqa/internal/retrieval"
)

// Options tune the compiled pipeline.
type Options struct {
	// TopK is the number of passages the retrieval tool fetches per query.
	TopK int

	// Strict makes retrieval backend failures abort the run instead of
	// degrading to an empty context.
	Strict bool

	// SummaryThreshold is the turn count above which the conversation
	// summary is regenerated.
	SummaryThreshold int

	// MaxToolIterations caps the retrieval agent's tool loop.
	MaxToolIterations int

	// StageTimeout bounds each stage's external calls. Zero disables the
	// per-stage deadline.
	StageTimeout time.Duration
}

// DefaultOptions returns the standard pipeline tuning.
func DefaultOptions() Options {
	return Options{
		TopK:              5,
		Strict:            true,
		SummaryThreshold:  memory.DefaultThreshold,
		MaxToolIterations: 5,
		StageTimeout:      120 * time.Second,
	}
}

// Request is one conversational turn. History and ConversationSummary are
// owned by the caller and re-supplied each turn; the pipeline keeps no
// cross-run state.
type Request struct {
	Question            string
	History             []Turn
	SessionID           string
	ConversationSummary string
}

// Result is the outcome of one turn. On stage failure the populated fields
// up to the failing stage are still returned for diagnostics.
type Result struct {
	Answer              string
	Context             string
	SessionID           string
	ConversationSummary string
}

// Graph is the compiled pipeline: a fixed linear stage sequence. It holds
// no per-run data, so one Graph serves concurrent runs.
type Graph struct {
	stages       []Stage
	stageTimeout time.Duration
}

// New compiles the pipeline from a generation client and a retriever.
func New(client llm.Client, r retrieval.Retriever, opts Options) *Graph {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.MaxToolIterations <= 0 {
		opts.MaxToolIterations = 5
	}

	retrievalAgent := agent.New("retrieval", client, prompts.RetrievalSystemPrompt,
		agent.WithTools(retrieval.NewSearchTool(r, opts.TopK)),
		agent.WithMaxIterations(opts.MaxToolIterations))
	draftingAgent := agent.New("drafting", client, prompts.DraftingSystemPrompt)
	verificationAgent := agent.New("verification", client, prompts.VerificationSystemPrompt)

	return &Graph{
		stages: []Stage{
			&retrievalStage{agent: retrievalAgent, strict: opts.Strict},
			&draftingStage{agent: draftingAgent},
			&verificationStage{agent: verificationAgent},
			&summarizerStage{summarizer: memory.NewSummarizer(client, opts.SummaryThreshold)},
		},
		stageTimeout: opts.StageTimeout,
	}
}

// Run executes one turn. Each stage's patch is committed to the run state
// before the next stage starts; the first stage error aborts the run and is
// returned as a StageError naming the stage.
func (g *Graph) Run(ctx context.Context, req Request) (*Result, error) {
	timer := logging.StartTimer(logging.CategoryPipeline, "Run")
	defer timer.Stop()

	state := &State{
		Question:  req.Question,
		History:   req.History,
		SessionID: req.SessionID,
	}
	if state.SessionID == "" {
		state.SessionID = uuid.NewString()
		logging.PipelineDebug("Generated session id %s", state.SessionID)
	}
	if req.ConversationSummary != "" {
		state.ConversationSummary = strPtr(req.ConversationSummary)
	}

	logging.Pipeline("Run start: session=%s question_len=%d history_turns=%d",
		state.SessionID, len(req.Question), len(req.History))

	for _, stage := range g.stages {
		patch, err := g.runStage(ctx, stage, state)
		if err != nil {
			logging.Get(logging.CategoryPipeline).Error("Stage %s failed: %v", stage.Name(), err)
			return resultFrom(state), &StageError{Stage: stage.Name(), Err: err}
		}
		state.apply(patch)
		logging.PipelineDebug("Stage %s committed", stage.Name())
	}

	logging.Pipeline("Run complete: session=%s answer_len=%d", state.SessionID, len(strOrEmpty(state.Answer)))
	return resultFrom(state), nil
}

func (g *Graph) runStage(ctx context.Context, stage Stage, state *State) (Patch, error) {
	if g.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.stageTimeout)
		defer cancel()
	}
	return stage.Run(ctx, state)
}

func resultFrom(state *State) *Result {
	return &Result{
		Answer:              strOrEmpty(state.Answer),
		Context:             strOrEmpty(state.Context),
		SessionID:           state.SessionID,
		ConversationSummary: strOrEmpty(state.ConversationSummary),
	}
}
