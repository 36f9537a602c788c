package main

import (
	"errors"
	"fmt"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewCommitCmd(svc func() *internal.MemoryService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit staged memories",
		Long:  `Create a commit from the staged tree and advance the agent's ref.`,
		RunE:  makeCommitRunner(svc),
	}

	cmd.Flags().StringP("message", "m", "", "Commit message")
	return cmd
}

func makeCommitRunner(svc func() *internal.MemoryService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")
		message, _ := cmd.Flags().GetString("message")

		if message == "" {
			message = "update memories"
		}

		commit, err := svc().Commit(cmd.Context(), agentID, message, scopeHint)
		if err != nil {
			if errors.Is(err, internal.ErrNothingStaged) {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing staged")
				return nil
			}
			return fmt.Errorf("commit: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s (+%d -%d ~%d)\n",
			commit.Hash.Short(), commit.Message,
			commit.Stats.Added, commit.Stats.Removed, commit.Stats.Modified)
		return nil
	}
}
