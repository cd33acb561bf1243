// Package retrieval finds document passages relevant to a user question
// and renders them as grounding context for answer drafting.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docqa/internal/logging"
	"docqa/internal/store"
)

// Passage is a retrieved document fragment with its relevance score.
type Passage struct {
	Text   string
	Source string
	Score  float64
}

// Retriever finds the passages most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Passage, error)
}

// RetrievalError marks a failure in the retrieval backend. Callers decide
// whether it is fatal or degrades to an empty context.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// IsRetrievalError reports whether err is (or wraps) a RetrievalError.
func IsRetrievalError(err error) bool {
	var re *RetrievalError
	return errors.As(err, &re)
}

// StoreRetriever retrieves passages from a DocumentStore.
type StoreRetriever struct {
	store *store.DocumentStore
}

// NewStoreRetriever wraps a document store as a Retriever.
func NewStoreRetriever(s *store.DocumentStore) *StoreRetriever {
	return &StoreRetriever{store: s}
}

// Retrieve searches the store and returns up to k passages, best first.
func (r *StoreRetriever) Retrieve(ctx context.Context, query string, k int) ([]Passage, error) {
	timer := logging.StartTimer(logging.CategoryRetrieval, "Retrieve")
	defer timer.Stop()

	logging.RetrievalDebug("Retrieve: query=%q k=%d", query, k)

	results, err := r.store.Search(ctx, query, k)
	if err != nil {
		logging.RetrievalWarn("Store search failed: %v", err)
		return nil, &RetrievalError{Err: err}
	}

	passages := make([]Passage, 0, len(results))
	for _, p := range results {
		passages = append(passages, Passage{
			Text:   p.Content,
			Source: p.Source,
			Score:  p.Score,
		})
	}

	logging.Retrieval("Retrieved %d passages for query (len=%d)", len(passages), len(query))
	return passages, nil
}

var _ Retriever = (*StoreRetriever)(nil)

// FormatContext renders passages as a single context block for drafting.
// Returns the empty string when no passages were found.
func FormatContext(passages []Passage) string {
	if len(passages) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if p.Source != "" {
			fmt.Fprintf(&b, "[%s] ", p.Source)
		}
		b.WriteString(p.Text)
	}
	return b.String()
}
