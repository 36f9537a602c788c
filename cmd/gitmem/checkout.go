package main

import (
	"fmt"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewCheckoutCmd(svc func() *internal.HistoryService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout <revision>",
		Short: "Materialize a snapshot",
		Long:  `Print the full memory state at a revision. The commit graph is not modified.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeCheckoutRunner(svc),
	}

	return cmd
}

func makeCheckoutRunner(svc func() *internal.HistoryService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")
		asJSON, _ := cmd.Flags().GetBool("json")

		items, err := svc().Checkout(cmd.Context(), agentID, args[0], scopeHint)
		if err != nil {
			return fmt.Errorf("checkout: %w", err)
		}

		if asJSON {
			return outputItemsJSON(cmd, items)
		}

		for _, item := range items {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-10s  %s\n", item.TreePath(), item.Type, firstLine(item.Content))
		}
		return nil
	}
}
