package main

import (
	"fmt"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewDiffCmd(svc func() *internal.HistoryService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <revision-a> [revision-b]",
		Short: "Diff two snapshots",
		Long:  `Show what changed between two revisions. With one argument, diffs it against the head of the target ref.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE:  makeDiffRunner(svc),
	}

	return cmd
}

func makeDiffRunner(svc func() *internal.HistoryService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")
		refName, _ := cmd.Flags().GetString("ref")

		revA := args[0]
		revB := refName
		if len(args) == 2 {
			revB = args[1]
		}
		if revB == "" {
			revB = internal.DefaultRef
		}

		patch, err := svc().Diff(cmd.Context(), agentID, revA, revB, scopeHint)
		if err != nil {
			return fmt.Errorf("diff: %w", err)
		}

		if patch == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No changes")
			return nil
		}

		fmt.Fprint(cmd.OutOrStdout(), patch)
		return nil
	}
}
