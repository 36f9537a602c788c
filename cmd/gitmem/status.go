package main

import (
	"errors"
	"fmt"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewStatusCmd(svc func() *internal.MemoryService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show staged changes",
		Long:  `Show what the staged tree would change relative to the head commit.`,
		RunE:  makeStatusRunner(svc),
	}

	return cmd
}

func makeStatusRunner(svc func() *internal.MemoryService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")

		diff, err := svc().Status(cmd.Context(), agentID, scopeHint)
		if err != nil {
			if errors.Is(err, internal.ErrNothingStaged) {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing staged")
				return nil
			}
			return fmt.Errorf("status: %w", err)
		}

		if diff.Empty() {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing staged")
			return nil
		}

		printTreeDiff(cmd, diff)
		return nil
	}
}

func printTreeDiff(cmd *cobra.Command, diff internal.TreeDiff) {
	for _, path := range diff.Added {
		fmt.Fprintf(cmd.OutOrStdout(), "A  %s\n", path)
	}
	for _, path := range diff.Removed {
		fmt.Fprintf(cmd.OutOrStdout(), "D  %s\n", path)
	}
	for _, m := range diff.Modified {
		fmt.Fprintf(cmd.OutOrStdout(), "M  %s\n", m.Path)
	}
}
