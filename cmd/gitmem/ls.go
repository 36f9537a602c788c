package main

import (
	"encoding/json"
	"fmt"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewLsCmd(svc func() *internal.MemoryService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls [revision]",
		Short: "List memories",
		Long:  `List all memories reachable from a revision (a ref name or a commit hash). Defaults to the head of main.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  makeLsRunner(svc),
	}

	cmd.Flags().String("type", "", "Filter by memory type")
	return cmd
}

func makeLsRunner(svc func() *internal.MemoryService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")
		asJSON, _ := cmd.Flags().GetBool("json")
		typeFilter, _ := cmd.Flags().GetString("type")

		rev := ""
		if len(args) == 1 {
			rev = args[0]
		}

		items, err := svc().List(cmd.Context(), agentID, rev, scopeHint)
		if err != nil {
			return fmt.Errorf("list memories: %w", err)
		}

		if typeFilter != "" {
			filtered := items[:0]
			for _, item := range items {
				if string(item.Type) == typeFilter {
					filtered = append(filtered, item)
				}
			}
			items = filtered
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

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

func outputItemsJSON(cmd *cobra.Command, items []*internal.MemoryItem) error {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, map[string]any{
			"id":         item.ID,
			"path":       item.TreePath(),
			"type":       item.Type,
			"created_at": item.CreatedAt,
			"content":    item.Content,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
