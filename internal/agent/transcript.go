package agent

import (
	"docqa/internal/llm"
)

// Message is a single entry in an agent transcript. Tool messages carry the
// tool's output in Content and any execution failure in Err.
type Message struct {
	Role     string
	Content  string
	ToolName string
	Err      error
}

// Transcript is the ordered record of one agent invocation.
type Transcript []Message

// LastByRole returns the content of the most recent message with the given
// role, scanning from the end.
func (t Transcript) LastByRole(role string) (string, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Role == role {
			return t[i].Content, true
		}
	}
	return "", false
}

// LastAssistant returns the most recent assistant message.
func (t Transcript) LastAssistant() (string, bool) {
	return t.LastByRole(llm.RoleAssistant)
}

// LastTool returns the most recent tool output.
func (t Transcript) LastTool() (string, bool) {
	return t.LastByRole(llm.RoleTool)
}

// FirstToolError returns the first tool execution failure in the
// transcript, if any.
func (t Transcript) FirstToolError() error {
	for _, m := range t {
		if m.Role == llm.RoleTool && m.Err != nil {
			return m.Err
		}
	}
	return nil
}
