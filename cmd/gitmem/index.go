package main

import (
	"fmt"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewIndexCmd(svc func() *internal.SearchService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild the semantic index",
		Long:  `Re-embed every memory at the head of the target ref and rebuild the vector index.`,
		RunE:  makeIndexRunner(svc),
	}

	cmd.Flags().Int("trees", 10, "Number of trees in the index forest")
	return cmd
}

func makeIndexRunner(svc func() *internal.SearchService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")
		refName, _ := cmd.Flags().GetString("ref")
		numTrees, _ := cmd.Flags().GetInt("trees")

		if err := svc().RebuildIndex(cmd.Context(), agentID, refName, scopeHint, numTrees); err != nil {
			return fmt.Errorf("rebuild index: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Index rebuilt")
		return nil
	}
}
