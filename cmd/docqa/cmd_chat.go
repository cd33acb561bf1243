package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"docqa/internal/pipeline"
	"docqa/internal/session"
)

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question-answering conversation",
	Long: `Opens a REPL where each question is answered with full conversational
memory: prior turns feed the retrieval and drafting agents, and long
conversations are compressed into a rolling summary.

Commands inside the chat:
  /summary   print the current conversation summary
  /history   print the conversation so far
  /reset     clear the conversation and start over
  /quit      exit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "resume or name a session")
}

func runChat(cmd *cobra.Command, args []string) error {
	graph, docStore, err := buildGraph()
	if err != nil {
		return err
	}
	defer docStore.Close()

	sessions := session.NewStore()
	conv := sessions.GetOrCreate(chatSessionID)

	// Rehydrate a resumed session from the persistent store.
	if turns, err := docStore.SessionHistory(cmd.Context(), conv.ID); err == nil {
		for _, t := range turns {
			sessions.AppendTurn(conv.ID, pipeline.Turn{Question: t.Question, Answer: t.Answer})
		}
	}
	if summary, err := docStore.SessionSummary(cmd.Context(), conv.ID); err == nil && summary != "" {
		sessions.SetSummary(conv.ID, summary)
	}

	fmt.Printf("Session %s - ask a question (/quit to exit)\n", conv.ID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return nil
		case "/summary":
			conv, _ = sessions.Get(conv.ID)
			if conv.Summary == "" {
				fmt.Println("(no summary yet)")
			} else {
				fmt.Println(conv.Summary)
			}
			continue
		case "/history":
			conv, _ = sessions.Get(conv.ID)
			for _, turn := range conv.History {
				fmt.Printf("You: %s\n docqa: %s\n", turn.Question, turn.Answer)
			}
			continue
		case "/reset":
			sessions.Reset(conv.ID)
			if _, err := docStore.DeleteSession(cmd.Context(), conv.ID); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to clear persisted session: %v\n", err)
			}
			fmt.Println("Conversation cleared.")
			continue
		}

		conv, _ = sessions.Get(conv.ID)
		result, err := graph.Run(cmd.Context(), pipeline.Request{
			Question:            line,
			History:             conv.History,
			SessionID:           conv.ID,
			ConversationSummary: conv.Summary,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		fmt.Println(result.Answer)
		sessions.AppendTurn(conv.ID, pipeline.Turn{Question: line, Answer: result.Answer})
		if err := docStore.AppendSessionTurn(cmd.Context(), conv.ID, line, result.Answer); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to persist turn: %v\n", err)
		}
		if result.ConversationSummary != conv.Summary {
			sessions.SetSummary(conv.ID, result.ConversationSummary)
			if err := docStore.SetSessionSummary(cmd.Context(), conv.ID, result.ConversationSummary); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to persist summary: %v\n", err)
			}
		}
	}
	return scanner.Err()
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
