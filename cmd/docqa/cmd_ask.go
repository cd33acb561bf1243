package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docqa/internal/pipeline"
)

var (
	askShowContext bool
	askSessionID   string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question against the indexed corpus",
	Long: `Runs one question through the full QA pipeline and prints the verified
answer. Use --context to also print the retrieved evidence.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askShowContext, "context", false, "print the retrieved context alongside the answer")
	askCmd.Flags().StringVar(&askSessionID, "session", "", "session id for correlation (generated when absent)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := joinArgs(args)

	graph, docStore, err := buildGraph()
	if err != nil {
		return err
	}
	defer docStore.Close()

	result, err := graph.Run(cmd.Context(), pipeline.Request{
		Question:  question,
		SessionID: askSessionID,
	})
	if err != nil {
		return err
	}

	fmt.Println(result.Answer)
	if askShowContext {
		fmt.Println("\n--- Context ---")
		fmt.Println(result.Context)
	}
	return nil
}
