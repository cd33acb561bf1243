// Package pipeline orchestrates the conversational QA flow: a fixed linear
// sequence of retrieval, drafting, verification, and memory summarization
// stages threading one shared run state.
package pipeline

// Turn is one prior question/answer exchange.
type Turn struct {
	Question string
	Answer   string
}

// State is the per-run record threaded through the stages. Optional fields
// are nil until their writer stage completes; each has exactly one writer.
type State struct {
	Question  string
	History   []Turn
	SessionID string

	Context             *string
	DraftAnswer         *string
	Answer              *string
	ConversationSummary *string
}

// Patch is the subset of state fields a stage writes. Nil fields are left
// untouched when the patch is applied.
type Patch struct {
	Context             *string
	DraftAnswer         *string
	Answer              *string
	ConversationSummary *string
}

// apply merges a stage's patch into the state.
func (s *State) apply(p Patch) {
	if p.Context != nil {
		s.Context = p.Context
	}
	if p.DraftAnswer != nil {
		s.DraftAnswer = p.DraftAnswer
	}
	if p.Answer != nil {
		s.Answer = p.Answer
	}
	if p.ConversationSummary != nil {
		s.ConversationSummary = p.ConversationSummary
	}
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func strPtr(s string) *string {
	return &s
}
