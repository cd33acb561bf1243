// Package agent runs a single LLM agent: it sends a prompt with optional
// tool definitions, executes requested tool calls, feeds results back, and
// records the full exchange as a transcript.
package agent

import (
	"context"
	"fmt"

	"docqa/internal/llm"
	"docqa/internal/logging"
)

// Tool is a capability the agent can offer to the model.
type Tool interface {
	// Definition describes the tool for the model.
	Definition() llm.ToolDefinition

	// Call executes the tool with the model-provided input.
	Call(ctx context.Context, input map[string]interface{}) (string, error)
}

const defaultMaxIterations = 5

// Agent wraps an LLM client with a system prompt and a tool set.
type Agent struct {
	name          string
	client        llm.Client
	systemPrompt  string
	tools         []Tool
	maxIterations int
}

// Option configures an Agent.
type Option func(*Agent)

// WithTools gives the agent a set of callable tools.
func WithTools(tools ...Tool) Option {
	return func(a *Agent) {
		a.tools = tools
	}
}

// WithMaxIterations caps the number of model round-trips per invocation.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// New creates an agent.
func New(name string, client llm.Client, systemPrompt string, opts ...Option) *Agent {
	a := &Agent{
		name:          name,
		client:        client,
		systemPrompt:  systemPrompt,
		maxIterations: defaultMaxIterations,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the agent's name.
func (a *Agent) Name() string {
	return a.name
}

// Invoke sends the user prompt to the model, running any requested tools
// and feeding their results back until the model stops asking for tools or
// the iteration cap is reached. The returned transcript always starts with
// the user message; tool outputs and failures appear as tool messages.
func (a *Agent) Invoke(ctx context.Context, userPrompt string) (Transcript, error) {
	timer := logging.StartTimer(logging.CategoryAgent, a.name+".Invoke")
	defer timer.Stop()

	logging.AgentDebug("[%s] Invoke: prompt_len=%d tools=%d", a.name, len(userPrompt), len(a.tools))

	defs := make([]llm.ToolDefinition, len(a.tools))
	byName := make(map[string]Tool, len(a.tools))
	for i, t := range a.tools {
		defs[i] = t.Definition()
		byName[defs[i].Name] = t
	}

	messages := []llm.ChatMessage{{Role: llm.RoleUser, Content: userPrompt}}
	transcript := Transcript{{Role: llm.RoleUser, Content: userPrompt}}

	for iter := 0; iter < a.maxIterations; iter++ {
		resp, err := a.client.CompleteConversation(ctx, a.systemPrompt, messages, defs)
		if err != nil {
			return transcript, fmt.Errorf("agent %s: %w", a.name, err)
		}

		if len(resp.ToolCalls) == 0 {
			transcript = append(transcript, Message{Role: llm.RoleAssistant, Content: resp.Text})
			logging.Agent("[%s] completed after %d iteration(s), response_len=%d", a.name, iter+1, len(resp.Text))
			return transcript, nil
		}

		messages = append(messages, llm.ChatMessage{
			Role:      llm.RoleAssistant,
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		if resp.Text != "" {
			transcript = append(transcript, Message{Role: llm.RoleAssistant, Content: resp.Text})
		}

		results := make([]llm.ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			tool, ok := byName[call.Name]
			if !ok {
				err := fmt.Errorf("unknown tool: %s", call.Name)
				results = append(results, llm.ToolResult{
					ToolUseID: call.ID,
					Content:   err.Error(),
					IsError:   true,
				})
				transcript = append(transcript, Message{Role: llm.RoleTool, ToolName: call.Name, Err: err})
				continue
			}

			logging.AgentDebug("[%s] running tool %s", a.name, call.Name)
			output, err := tool.Call(ctx, call.Input)
			if err != nil {
				logging.Get(logging.CategoryAgent).Warn("[%s] tool %s failed: %v", a.name, call.Name, err)
				results = append(results, llm.ToolResult{
					ToolUseID: call.ID,
					Content:   fmt.Sprintf("tool error: %v", err),
					IsError:   true,
				})
				transcript = append(transcript, Message{Role: llm.RoleTool, ToolName: call.Name, Err: err})
				continue
			}

			results = append(results, llm.ToolResult{ToolUseID: call.ID, Content: output})
			transcript = append(transcript, Message{Role: llm.RoleTool, ToolName: call.Name, Content: output})
		}

		messages = append(messages, llm.ChatMessage{Role: llm.RoleUser, ToolResults: results})
	}

	logging.Get(logging.CategoryAgent).Warn("[%s] hit iteration cap (%d) with tool calls still pending", a.name, a.maxIterations)
	return transcript, nil
}
