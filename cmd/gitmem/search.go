package main

import (
	"fmt"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewSearchCmd(svc func() *internal.SearchService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search memories",
		Long:  `Search memories at the head of the target ref. Keyword search by default, vector search with --semantic.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeSearchRunner(svc),
	}

	cmd.Flags().Bool("semantic", false, "Use semantic vector search")
	cmd.Flags().IntP("top", "k", 5, "Number of semantic results")
	return cmd
}

func makeSearchRunner(svc func() *internal.SearchService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		query := args[0]
		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")
		refName, _ := cmd.Flags().GetString("ref")
		semantic, _ := cmd.Flags().GetBool("semantic")
		k, _ := cmd.Flags().GetInt("top")

		if semantic {
			hits, err := svc().Semantic(cmd.Context(), query, k, scopeHint)
			if err != nil {
				return fmt.Errorf("semantic search: %w", err)
			}
			for _, hit := range hits {
				fmt.Fprintf(cmd.OutOrStdout(), "%.3f  %s\n", hit.Score, hit.Path)
			}
			return nil
		}

		items, err := svc().Keyword(cmd.Context(), query, agentID, refName, scopeHint)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		for _, item := range items {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", item.TreePath(), firstLine(item.Content))
		}
		return nil
	}
}
