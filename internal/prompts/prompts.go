// Package prompts holds the system prompts for the QA pipeline agents and
// the builders that render their per-turn user prompts.
package prompts

import "fmt"

// RetrievalSystemPrompt instructs the retrieval agent to gather context
// without answering.
const RetrievalSystemPrompt = `You are a retrieval agent in a conversational system.

Tasks:
1. Analyze the user's current question in the context of the conversation history provided.
2. If the user refers to previous topics (e.g., "what about its limitations?"), infer the subject from the history.
3. Use the retrieval tool to search for relevant document chunks.
4. Consolidate all retrieved information into a single, clean CONTEXT section.
5. DO NOT answer the user's question directly — only provide context.
`

// DraftingSystemPrompt instructs the drafting agent to answer from context
// and history.
const DraftingSystemPrompt = `You are a Summarization Agent answering a question in an ongoing conversation.

Tasks:
1. Use the provided CONTEXT and CONVERSATION HISTORY to answer the CURRENT QUESTION.
2. Resolve references like "it", "that", or "the previous method" using the history.
3. If the context does not contain enough information, explicitly state that.
4. Be clear, concise, and directly address the question.
`

// VerificationSystemPrompt instructs the verification agent to strip
// unsupported claims from the draft.
const VerificationSystemPrompt = `You are a Verification Agent. Your job is to
check the draft answer against the original context and eliminate any
hallucinations.

Instructions:
- Compare every claim in the draft answer against the provided context.
- Ensure the answer is consistent with the conversation history (e.g., doesn't contradict previous turns).
- Return ONLY the final, corrected answer text.
`

// RetrievalUserPrompt renders the retrieval agent's input from the
// formatted history and the current question.
func RetrievalUserPrompt(historyText, question string) string {
	return fmt.Sprintf("Conversation History:\n%s\n\nCurrent Question: %s", historyText, question)
}

// DraftingUserPrompt renders the drafting agent's input.
func DraftingUserPrompt(historyText, question, context string) string {
	return fmt.Sprintf("Conversation History:\n%s\n\nCurrent Question: %s\n\nContext:\n%s",
		historyText, question, context)
}

// VerificationUserPrompt renders the verification agent's input.
func VerificationUserPrompt(question, context, draft string) string {
	return fmt.Sprintf("Question: %s\n\nContext:\n%s\n\nDraft Answer:\n%s\n\nPlease verify and correct the draft answer.",
		question, context, draft)
}

// SummarizeUserPrompt renders the memory summarizer's input.
func SummarizeUserPrompt(historyText string) string {
	return fmt.Sprintf("Summarize the key points of this conversation in 3-4 sentences:\n\n%s", historyText)
}
