package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docqa/internal/ingest"
)

var (
	indexExts        []string
	indexParallelism int
)

var indexCmd = &cobra.Command{
	Use:   "index [path...]",
	Short: "Index text documents into the corpus",
	Long: `Splits the given files (or directories, walked recursively) into
passages, embeds them, and stores them for retrieval.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringSliceVar(&indexExts, "ext", []string{".txt", ".md"}, "file extensions to index when walking directories")
	indexCmd.Flags().IntVar(&indexParallelism, "parallel", 4, "number of files to index concurrently")
}

func runIndex(cmd *cobra.Command, args []string) error {
	docStore, err := openStore()
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}
	defer docStore.Close()

	ix := ingest.NewIndexer(docStore, indexParallelism)

	var total ingest.Result
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		var result ingest.Result
		if info.IsDir() {
			result, err = ix.IndexDir(cmd.Context(), path, indexExts)
		} else {
			var n int
			n, err = ix.IndexFile(cmd.Context(), path)
			result = ingest.Result{Files: 1, Passages: n}
		}
		if err != nil {
			return err
		}
		total.Files += result.Files
		total.Passages += result.Passages
	}

	count, err := docStore.Count()
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d passages from %d files (%d total in store)\n", total.Passages, total.Files, count)
	return nil
}
