package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage persisted conversation sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		docStore, err := openStore()
		if err != nil {
			return err
		}
		defer docStore.Close()

		records, err := docStore.ListSessions(cmd.Context())
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No sessions.")
			return nil
		}
		for _, r := range records {
			fmt.Printf("%s  %d turn(s)  last active %s\n", r.ID, r.Turns, r.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Print a session's conversation and summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docStore, err := openStore()
		if err != nil {
			return err
		}
		defer docStore.Close()

		turns, err := docStore.SessionHistory(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, t := range turns {
			fmt.Printf("You: %s\ndocqa: %s\n\n", t.Question, t.Answer)
		}

		summary, err := docStore.SessionSummary(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if summary != "" {
			fmt.Printf("Summary: %s\n", summary)
		}
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete a persisted session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docStore, err := openStore()
		if err != nil {
			return err
		}
		defer docStore.Close()

		removed, err := docStore.DeleteSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d turn(s)\n", removed)
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}
