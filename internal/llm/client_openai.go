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

// OpenAIClient implements Client for OpenAI-compatible chat APIs.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultOpenAIConfig returns sensible defaults.
func DefaultOpenAIConfig(apiKey string) OpenAIConfig {
	return OpenAIConfig{
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
		Timeout: 120 * time.Second,
	}
}

// NewOpenAIClient creates a new OpenAI client with default config.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return NewOpenAIClientWithConfig(DefaultOpenAIConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom config.
func NewOpenAIClientWithConfig(config OpenAIConfig) *OpenAIClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}
	return &OpenAIClient{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		model:   config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type openaiMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content,omitempty"`
	ToolCalls  []openaiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openaiToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openaiTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string                 `json:"name"`
		Description string                 `json:"description,omitempty"`
		Parameters  map[string]interface{} `json:"parameters"`
	} `json:"function"`
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Tools       []openaiTool    `json:"tools,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openaiResponse struct {
	Choices []struct {
		Message      openaiMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends a prompt and returns the completion.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *OpenAIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.CompleteConversation(ctx, systemPrompt,
		[]ChatMessage{{Role: RoleUser, Content: userPrompt}}, nil)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// CompleteConversation sends a multi-message conversation with optional tools.
func (c *OpenAIClient) CompleteConversation(ctx context.Context, systemPrompt string, messages []ChatMessage, tools []ToolDefinition) (*ToolResponse, error) {
	if c.apiKey == "" {
		return nil, generationErr("openai", "API key not configured")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	logging.APIDebug("[OpenAI] CompleteConversation: model=%s messages=%d tools=%d",
		c.model, len(messages), len(tools))

	openaiTools := make([]openaiTool, len(tools))
	for i, t := range tools {
		openaiTools[i].Type = "function"
		openaiTools[i].Function.Name = t.Name
		openaiTools[i].Function.Description = t.Description
		openaiTools[i].Function.Parameters = t.InputSchema
	}

	reqBody := openaiRequest{
		Model:       c.model,
		Messages:    mapMessagesToOpenAI(systemPrompt, messages),
		Tools:       openaiTools,
		MaxTokens:   8192,
		Temperature: 0.1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, generationErr("openai", "failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, generationErr("openai", "failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.APIError("[OpenAI] request failed after %v: %v", time.Since(startTime), err)
		return nil, generationErr("openai", "request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, generationErr("openai", "failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logging.APIError("[OpenAI] API returned status %d: %s", resp.StatusCode, string(body))
		return nil, generationErr("openai", "API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var or openaiResponse
	if err := json.Unmarshal(body, &or); err != nil {
		return nil, generationErr("openai", "failed to parse response: %w", err)
	}

	if or.Error != nil {
		return nil, generationErr("openai", "API error: %s", or.Error.Message)
	}

	if len(or.Choices) == 0 {
		return nil, generationErr("openai", "no completion returned")
	}

	choice := or.Choices[0]
	result := &ToolResponse{
		Text:       strings.TrimSpace(choice.Message.Content),
		StopReason: choice.FinishReason,
	}

	for _, tc := range choice.Message.ToolCalls {
		var input map[string]interface{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
				return nil, generationErr("openai", "failed to parse tool arguments for %s: %w", tc.Function.Name, err)
			}
		}
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: input,
		})
	}

	logging.API("[OpenAI] completed in %v text_len=%d tool_calls=%d finish_reason=%s",
		time.Since(startTime), len(result.Text), len(result.ToolCalls), result.StopReason)

	return result, nil
}

// mapMessagesToOpenAI converts neutral chat messages into OpenAI chat form.
// Tool results become role "tool" messages keyed by tool_call_id.
func mapMessagesToOpenAI(systemPrompt string, messages []ChatMessage) []openaiMessage {
	out := make([]openaiMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, openaiMessage{Role: "system", Content: systemPrompt})
	}
	for _, m := range messages {
		switch {
		case len(m.ToolCalls) > 0:
			msg := openaiMessage{Role: "assistant", Content: m.Content}
			for _, tc := range m.ToolCalls {
				args, _ := json.Marshal(tc.Input)
				otc := openaiToolCall{ID: tc.ID, Type: "function"}
				otc.Function.Name = tc.Name
				otc.Function.Arguments = string(args)
				msg.ToolCalls = append(msg.ToolCalls, otc)
			}
			out = append(out, msg)

		case len(m.ToolResults) > 0:
			for _, tr := range m.ToolResults {
				out = append(out, openaiMessage{
					Role:       "tool",
					Content:    tr.Content,
					ToolCallID: tr.ToolUseID,
				})
			}

		default:
			out = append(out, openaiMessage{Role: m.Role, Content: m.Content})
		}
	}
	return out
}

// SetModel changes the model used for completions.
func (c *OpenAIClient) SetModel(model string) {
	c.model = model
}

// GetModel returns the current model.
func (c *OpenAIClient) GetModel() string {
	return c.model
}

var _ Client = (*OpenAIClient)(nil)
