package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"docqa/internal/logging"
)

// AnthropicClient implements Client for the Anthropic Messages API.
type AnthropicClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// AnthropicConfig holds configuration for the Anthropic client.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultAnthropicConfig returns sensible defaults.
func DefaultAnthropicConfig(apiKey string) AnthropicConfig {
	return AnthropicConfig{
		APIKey:  apiKey,
		BaseURL: "https://api.anthropic.com/v1",
		Model:   "claude-sonnet-4-20250514",
		Timeout: 120 * time.Second,
	}
}

// NewAnthropicClient creates a new Anthropic client with default config.
func NewAnthropicClient(apiKey string) *AnthropicClient {
	return NewAnthropicClientWithConfig(DefaultAnthropicConfig(apiKey))
}

// NewAnthropicClientWithConfig creates a new Anthropic client with custom config.
func NewAnthropicClientWithConfig(config AnthropicConfig) *AnthropicClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.anthropic.com/v1"
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}
	return &AnthropicClient{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		model:   config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// anthropicMessage represents a message (supports both text and tool blocks).
type anthropicMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string or []anthropicContentBlock
}

// anthropicContentBlock represents a content block in a message.
type anthropicContentBlock struct {
	Type      string                 `json:"type"`                  // "text", "tool_use", "tool_result"
	Text      string                 `json:"text,omitempty"`        // text blocks
	ID        string                 `json:"id,omitempty"`          // tool_use blocks
	Name      string                 `json:"name,omitempty"`        // tool_use blocks
	Input     map[string]interface{} `json:"input,omitempty"`       // tool_use blocks
	ToolUseID string                 `json:"tool_use_id,omitempty"` // tool_result blocks
	Content   string                 `json:"content,omitempty"`     // tool_result blocks
	IsError   bool                   `json:"is_error,omitempty"`    // tool_result blocks
}

type anthropicTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a prompt and returns the completion.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *AnthropicClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.CompleteConversation(ctx, systemPrompt,
		[]ChatMessage{{Role: RoleUser, Content: userPrompt}}, nil)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// CompleteConversation sends a multi-message conversation with optional tools.
func (c *AnthropicClient) CompleteConversation(ctx context.Context, systemPrompt string, messages []ChatMessage, tools []ToolDefinition) (*ToolResponse, error) {
	if c.apiKey == "" {
		return nil, generationErr("anthropic", "API key not configured")
	}

	// Auto-apply timeout if context has no deadline.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	logging.APIDebug("[Anthropic] CompleteConversation: model=%s messages=%d tools=%d system_len=%d",
		c.model, len(messages), len(tools), len(systemPrompt))

	anthropicTools := make([]anthropicTool, len(tools))
	for i, t := range tools {
		anthropicTools[i] = anthropicTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}
	}

	reqBody := anthropicRequest{
		Model:       c.model,
		MaxTokens:   8192,
		System:      systemPrompt,
		Messages:    mapMessagesToAnthropic(messages),
		Tools:       anthropicTools,
		Temperature: 0.1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, generationErr("anthropic", "failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/messages", bytes.NewReader(jsonData))
	if err != nil {
		return nil, generationErr("anthropic", "failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.APIError("[Anthropic] request failed after %v: %v", time.Since(startTime), err)
		return nil, generationErr("anthropic", "request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, generationErr("anthropic", "failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logging.APIError("[Anthropic] API returned status %d: %s", resp.StatusCode, string(body))
		return nil, generationErr("anthropic", "API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var ar anthropicResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return nil, generationErr("anthropic", "failed to parse response: %w", err)
	}

	if ar.Error != nil {
		return nil, generationErr("anthropic", "API error: %s", ar.Error.Message)
	}

	result := &ToolResponse{StopReason: ar.StopReason}

	var textBuilder strings.Builder
	for _, block := range ar.Content {
		switch block.Type {
		case "text":
			textBuilder.WriteString(block.Text)
		case "tool_use":
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:    block.ID,
				Name:  block.Name,
				Input: block.Input,
			})
		}
	}
	result.Text = strings.TrimSpace(textBuilder.String())

	logging.API("[Anthropic] completed in %v text_len=%d tool_calls=%d stop_reason=%s",
		time.Since(startTime), len(result.Text), len(result.ToolCalls), result.StopReason)

	return result, nil
}

// mapMessagesToAnthropic converts neutral chat messages into Anthropic
// message/content-block form.
func mapMessagesToAnthropic(messages []ChatMessage) []anthropicMessage {
	out := make([]anthropicMessage, 0, len(messages))
	for _, m := range messages {
		switch {
		case len(m.ToolCalls) > 0:
			blocks := make([]anthropicContentBlock, 0, len(m.ToolCalls)+1)
			if m.Content != "" {
				blocks = append(blocks, anthropicContentBlock{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropicContentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Name,
					Input: tc.Input,
				})
			}
			out = append(out, anthropicMessage{Role: RoleAssistant, Content: blocks})

		case len(m.ToolResults) > 0:
			blocks := make([]anthropicContentBlock, 0, len(m.ToolResults))
			for _, tr := range m.ToolResults {
				blocks = append(blocks, anthropicContentBlock{
					Type:      "tool_result",
					ToolUseID: tr.ToolUseID,
					Content:   tr.Content,
					IsError:   tr.IsError,
				})
			}
			out = append(out, anthropicMessage{Role: RoleUser, Content: blocks})

		default:
			out = append(out, anthropicMessage{Role: m.Role, Content: m.Content})
		}
	}
	return out
}

// SetModel changes the model used for completions.
func (c *AnthropicClient) SetModel(model string) {
	c.model = model
}

// GetModel returns the current model.
func (c *AnthropicClient) GetModel() string {
	return c.model
}

var _ Client = (*AnthropicClient)(nil)
