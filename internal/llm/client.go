// Package llm defines the generation capability consumed by the QA pipeline
// and provides HTTP clients for the supported providers.
package llm

import "context"

// Client defines the interface for LLM providers.
type Client interface {
	// Complete sends a bare prompt and returns the completion.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteWithSystem sends a prompt with a system message.
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// CompleteConversation sends a multi-message conversation with optional
	// tool definitions and returns the response text plus any tool calls.
	// This is the primitive the agent wrapper's tool loop is built on.
	CompleteConversation(ctx context.Context, systemPrompt string, messages []ChatMessage, tools []ToolDefinition) (*ToolResponse, error)
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ChatMessage represents one message in a provider conversation. An
// assistant message may carry tool calls; a user message may carry tool
// results being fed back to the model.
type ChatMessage struct {
	Role        string
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ToolDefinition describes a tool that the LLM can invoke.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"` // JSON Schema for parameters
}

// ToolCall represents a tool invocation requested by the LLM.
type ToolCall struct {
	ID    string                 `json:"id"`
	Name  string                 `json:"name"`
	Input map[string]interface{} `json:"input"`
}

// ToolResult represents the result of executing a tool.
type ToolResult struct {
	ToolUseID string `json:"tool_use_id"` // Matches ToolCall.ID
	Content   string `json:"content"`
	IsError   bool   `json:"is_error"`
}

// ToolResponse contains both text response and tool calls from the LLM.
type ToolResponse struct {
	Text       string     `json:"text"`
	ToolCalls  []ToolCall `json:"tool_calls"`
	StopReason string     `json:"stop_reason"` // "end_turn", "tool_use", etc.
}
