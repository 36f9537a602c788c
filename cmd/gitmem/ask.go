package main

import (
	"fmt"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewAskCmd(svc func() *internal.SummarizeService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question grounded on memories",
		Long:  `Answer a question using the most relevant memories as context.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeAskRunner(svc),
	}

	cmd.Flags().IntP("top", "k", 5, "Number of memories to ground on")
	return cmd
}

func makeAskRunner(svc func() *internal.SummarizeService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")
		k, _ := cmd.Flags().GetInt("top")

		answer, err := svc().Ask(cmd.Context(), args[0], agentID, scopeHint, k)
		if err != nil {
			return fmt.Errorf("ask: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	}
}
