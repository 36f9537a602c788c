package main

import (
	"fmt"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewRollbackCmd(svc func() *internal.HistoryService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback <revision>",
		Short: "Restore a past snapshot",
		Long:  `Create a new commit that restores the tree of a past revision. History is preserved: nothing is rewritten.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeRollbackRunner(svc),
	}

	return cmd
}

func makeRollbackRunner(svc func() *internal.HistoryService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")
		refName, _ := cmd.Flags().GetString("ref")

		commit, err := svc().Rollback(cmd.Context(), agentID, refName, args[0], scopeHint)
		if err != nil {
			return fmt.Errorf("rollback: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", commit.Hash.Short(), commit.Message)
		return nil
	}
}
