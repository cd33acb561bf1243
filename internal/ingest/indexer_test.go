package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"docqa/internal/store"
)

func TestSplitPassages(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"single paragraph", "One paragraph of text.", 1},
		{"two paragraphs", "First paragraph.\n\nSecond paragraph.", 2},
		{"windows line endings", "First.\r\n\r\nSecond.", 2},
		{"blank noise dropped", "Real content here.\n\n \n\na\n\nMore content.", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitPassages(tt.text)
			if len(got) != tt.want {
				t.Errorf("SplitPassages returned %d passages, want %d: %q", len(got), tt.want, got)
			}
		})
	}
}

func TestIndexFiles(t *testing.T) {
	dir := t.TempDir()
	fileA := filepath.Join(dir, "a.txt")
	fileB := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(fileA, []byte("First passage.\n\nSecond passage."), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fileB, []byte("Only passage."), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := store.NewDocumentStore(filepath.Join(dir, "index.db"), nil)
	if err != nil {
		t.Fatalf("NewDocumentStore failed: %v", err)
	}
	defer s.Close()

	ix := NewIndexer(s, 2)
	result, err := ix.IndexFiles(context.Background(), []string{fileA, fileB})
	if err != nil {
		t.Fatalf("IndexFiles failed: %v", err)
	}

	if result.Files != 2 {
		t.Errorf("expected 2 files indexed, got %d", result.Files)
	}
	if result.Passages != 3 {
		t.Errorf("expected 3 passages indexed, got %d", result.Passages)
	}

	count, err := s.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("store holds %d passages, want 3", count)
	}
}

func TestIndexDirFiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "doc.md"), []byte("Markdown content."), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "skip.bin"), []byte("binary"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := store.NewDocumentStore(filepath.Join(dir, "index.db"), nil)
	if err != nil {
		t.Fatalf("NewDocumentStore failed: %v", err)
	}
	defer s.Close()

	ix := NewIndexer(s, 1)
	result, err := ix.IndexDir(context.Background(), dir, []string{".md", ".txt"})
	if err != nil {
		t.Fatalf("IndexDir failed: %v", err)
	}
	if result.Files != 1 {
		t.Errorf("expected 1 file indexed, got %d", result.Files)
	}
}
