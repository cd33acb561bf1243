package main

import (
	"fmt"

	"docqa/internal/embedding"
	"docqa/internal/llm"
	"docqa/internal/logging"
	"docqa/internal/pipeline"
	"docqa/internal/retrieval"
	"docqa/internal/store"
)

// openStore opens the document store, attaching an embedding engine when
// one can be created. Without an engine the store still works with keyword
// search.
func openStore() (*store.DocumentStore, error) {
	engine, err := embedding.NewEngine(cfg.Embedding)
	if err != nil {
		logging.Boot("Embedding engine unavailable (%v); using keyword search", err)
		engine = nil
	}
	return store.NewDocumentStore(cfg.Store.DatabasePath, engine)
}

// buildGraph wires the full QA pipeline from configuration. The returned
// store must be closed by the caller.
func buildGraph() (*pipeline.Graph, *store.DocumentStore, error) {
	client, err := llm.NewClientFromConfig(cfg.LLM)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	docStore, err := openStore()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open document store: %w", err)
	}

	opts := pipeline.DefaultOptions()
	opts.TopK = cfg.Retrieval.TopK
	opts.Strict = cfg.Retrieval.Strict
	opts.SummaryThreshold = cfg.Pipeline.SummaryThreshold
	opts.MaxToolIterations = cfg.Pipeline.MaxToolIterations
	opts.StageTimeout = cfg.StageTimeout()

	graph := pipeline.New(client, retrieval.NewStoreRetriever(docStore), opts)
	return graph, docStore, nil
}
