package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

// stubEngine produces deterministic embeddings keyed on a few known words so
// ranking order is predictable in tests.
type stubEngine struct{}

func (stubEngine) Embed(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	vec := make([]float32, 4)
	if strings.Contains(lower, "cat") {
		vec[0] = 1
	}
	if strings.Contains(lower, "dog") {
		vec[1] = 1
	}
	if strings.Contains(lower, "bird") {
		vec[2] = 1
	}
	vec[3] = 0.01
	return vec, nil
}

func (e stubEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (stubEngine) Dimensions() int { return 4 }
func (stubEngine) Name() string    { return "stub" }

func newTestStore(t *testing.T, withEngine bool) *DocumentStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	var s *DocumentStore
	var err error
	if withEngine {
		s, err = NewDocumentStore(path, stubEngine{})
	} else {
		s, err = NewDocumentStore(path, nil)
	}
	if err != nil {
		t.Fatalf("NewDocumentStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndCount(t *testing.T) {
	s := newTestStore(t, true)
	ctx := context.Background()

	err := s.AddPassages(ctx, []string{
		"The cat sat on the mat.",
		"The dog chased the ball.",
	}, "animals.txt")
	if err != nil {
		t.Fatalf("AddPassages failed: %v", err)
	}

	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 passages, got %d", count)
	}
}

func TestSemanticSearchRanking(t *testing.T) {
	s := newTestStore(t, true)
	ctx := context.Background()

	passages := []string{
		"A cat naps in the sun.",
		"A dog barks at strangers.",
		"A bird sings at dawn.",
	}
	if err := s.AddPassages(ctx, passages, "pets.txt"); err != nil {
		t.Fatalf("AddPassages failed: %v", err)
	}

	results, err := s.Search(ctx, "tell me about the cat", 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !strings.Contains(results[0].Content, "cat") {
		t.Errorf("expected best match to mention cat, got %q", results[0].Content)
	}
	if results[0].Score < results[1].Score {
		t.Error("results not sorted by descending score")
	}
}

func TestKeywordFallbackWithoutEngine(t *testing.T) {
	s := newTestStore(t, false)
	ctx := context.Background()

	if err := s.AddPassage(ctx, "Quarterly revenue grew 12 percent.", "report.txt"); err != nil {
		t.Fatalf("AddPassage failed: %v", err)
	}
	if err := s.AddPassage(ctx, "Headcount stayed flat this quarter.", "report.txt"); err != nil {
		t.Fatalf("AddPassage failed: %v", err)
	}

	results, err := s.Search(ctx, "revenue", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !strings.Contains(results[0].Content, "revenue") {
		t.Errorf("unexpected result: %q", results[0].Content)
	}
}

func TestKeywordSearchEmptyQuery(t *testing.T) {
	s := newTestStore(t, false)

	results, err := s.KeywordSearch(context.Background(), "   ", 5)
	if err != nil {
		t.Fatalf("KeywordSearch failed: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results for empty query, got %d", len(results))
	}
}

func TestSourcesAndDelete(t *testing.T) {
	s := newTestStore(t, true)
	ctx := context.Background()

	if err := s.AddPassages(ctx, []string{"alpha", "beta"}, "a.txt"); err != nil {
		t.Fatalf("AddPassages failed: %v", err)
	}
	if err := s.AddPassage(ctx, "gamma", "b.txt"); err != nil {
		t.Fatalf("AddPassage failed: %v", err)
	}

	sources, err := s.Sources()
	if err != nil {
		t.Fatalf("Sources failed: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %v", sources)
	}

	removed, err := s.DeleteSource(ctx, "a.txt")
	if err != nil {
		t.Fatalf("DeleteSource failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 passages removed, got %d", removed)
	}

	count, _ := s.Count()
	if count != 1 {
		t.Errorf("expected 1 passage remaining, got %d", count)
	}
}

func TestSearchManyPassages(t *testing.T) {
	s := newTestStore(t, true)
	ctx := context.Background()

	var contents []string
	for i := 0; i < 20; i++ {
		contents = append(contents, fmt.Sprintf("Filler passage number %d about dogs.", i))
	}
	contents = append(contents, "The cat is the subject here.")
	if err := s.AddPassages(ctx, contents, "bulk.txt"); err != nil {
		t.Fatalf("AddPassages failed: %v", err)
	}

	results, err := s.Search(ctx, "cat", 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !strings.Contains(results[0].Content, "cat") {
		t.Errorf("expected cat passage first, got %q", results[0].Content)
	}
}
