package retrieval

import (
	"context"
	"fmt"

	"docqa/internal/llm"
	"docqa/internal/logging"
)

// SearchTool exposes a Retriever as an agent tool. The model supplies a
// query; the tool returns the matching passages as one text block.
type SearchTool struct {
	retriever Retriever
	topK      int
}

// NewSearchTool creates a search tool over the given retriever.
func NewSearchTool(r Retriever, topK int) *SearchTool {
	if topK <= 0 {
		topK = 5
	}
	return &SearchTool{retriever: r, topK: topK}
}

// Definition describes the tool for the model.
func (t *SearchTool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        "retrieve_documents",
		Description: "Search the indexed document corpus for passages relevant to a query. Returns the most relevant passages as text.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The search query.",
				},
			},
			"required": []string{"query"},
		},
	}
}

// Call runs the search. Backend failures surface as a RetrievalError so the
// caller can apply its strictness policy.
func (t *SearchTool) Call(ctx context.Context, input map[string]interface{}) (string, error) {
	query, _ := input["query"].(string)
	if query == "" {
		return "", fmt.Errorf("retrieve_documents: missing query")
	}

	passages, err := t.retriever.Retrieve(ctx, query, t.topK)
	if err != nil {
		if IsRetrievalError(err) {
			return "", err
		}
		return "", &RetrievalError{Err: err}
	}

	if len(passages) == 0 {
		logging.RetrievalDebug("SearchTool: no passages for query %q", query)
		return "", nil
	}
	return FormatContext(passages), nil
}
