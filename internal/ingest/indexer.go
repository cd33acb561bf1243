// Package ingest splits plain-text documents into passages and indexes
// them into the document store.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"docqa/internal/logging"
	"docqa/internal/store"
)

// Result summarizes one indexing run.
type Result struct {
	Files    int
	Passages int
}

// Indexer loads files, splits them into passages, and writes them to the
// document store.
type Indexer struct {
	store       *store.DocumentStore
	parallelism int
}

// NewIndexer creates an indexer over the given store.
func NewIndexer(s *store.DocumentStore, parallelism int) *Indexer {
	if parallelism <= 0 {
		parallelism = 4
	}
	return &Indexer{store: s, parallelism: parallelism}
}

// IndexFile splits one text file into passages and stores them under its
// base name. Returns the number of passages indexed.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	passages := SplitPassages(string(data))
	if len(passages) == 0 {
		logging.IngestDebug("No passages in %s, skipping", path)
		return 0, nil
	}

	source := filepath.Base(path)
	if err := ix.store.AddPassages(ctx, passages, source); err != nil {
		return 0, fmt.Errorf("failed to index %s: %w", path, err)
	}

	logging.Ingest("Indexed %s: %d passages", source, len(passages))
	return len(passages), nil
}

// IndexFiles indexes several files concurrently, bounded by the configured
// parallelism. The first failure cancels the remaining work.
func (ix *Indexer) IndexFiles(ctx context.Context, paths []string) (Result, error) {
	timer := logging.StartTimer(logging.CategoryIngest, "IndexFiles")
	defer timer.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.parallelism)

	counts := make([]int, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			n, err := ix.IndexFile(gctx, path)
			if err != nil {
				return err
			}
			counts[i] = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var result Result
	for _, n := range counts {
		if n > 0 {
			result.Files++
			result.Passages += n
		}
	}
	logging.Ingest("Indexing complete: %d files, %d passages", result.Files, result.Passages)
	return result, nil
}

// IndexDir indexes every regular file in a directory matching the given
// extensions (e.g. ".txt", ".md"). An empty extension list indexes all
// files.
func (ix *Indexer) IndexDir(ctx context.Context, dir string, exts []string) (Result, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if len(exts) > 0 && !hasExt(path, exts) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return Result{}, nil
	}
	return ix.IndexFiles(ctx, paths)
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// SplitPassages splits text on blank lines into trimmed paragraphs.
// Paragraphs shorter than a few characters are dropped as noise.
func SplitPassages(text string) []string {
	blocks := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	passages := make([]string, 0, len(blocks))
	for _, block := range blocks {
		p := strings.TrimSpace(block)
		if len(p) < 3 {
			continue
		}
		passages = append(passages, p)
	}
	return passages
}
