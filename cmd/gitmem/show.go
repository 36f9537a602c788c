package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewShowCmd(svc func() *internal.MemoryService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id|path>",
		Short: "Show a memory",
		Long:  `Show a memory by blob hash, or by tree path at the head of the target ref.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeShowRunner(svc),
	}

	return cmd
}

func makeShowRunner(svc func() *internal.MemoryService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")
		refName, _ := cmd.Flags().GetString("ref")
		asJSON, _ := cmd.Flags().GetBool("json")

		item, err := svc().Get(cmd.Context(), args[0], agentID, refName, scopeHint)
		if err != nil {
			return fmt.Errorf("get memory: %w", err)
		}

		if asJSON {
			return outputItemJSON(cmd, item)
		}

		printItem(cmd, item)
		return nil
	}
}

func printItem(cmd *cobra.Command, item *internal.MemoryItem) {
	fmt.Fprintf(cmd.OutOrStdout(), "id:         %s\n", item.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "type:       %s\n", item.Type)
	fmt.Fprintf(cmd.OutOrStdout(), "agent:      %s\n", item.AgentID)
	fmt.Fprintf(cmd.OutOrStdout(), "created:    %s\n", item.CreatedAt.Format("Mon Jan 2 15:04:05 2006 -0700"))
	fmt.Fprintf(cmd.OutOrStdout(), "importance: %.2f\n", item.Importance)
	fmt.Fprintf(cmd.OutOrStdout(), "visibility: %s\n", item.Scope)
	if len(item.Tags) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "tags:       %s\n", strings.Join(item.Tags, ", "))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", item.Content)
}

func outputItemJSON(cmd *cobra.Command, item *internal.MemoryItem) error {
	out := map[string]any{
		"id":         item.ID,
		"path":       item.TreePath(),
		"content":    item.Content,
		"type":       item.Type,
		"agent_id":   item.AgentID,
		"created_at": item.CreatedAt,
		"importance": item.Importance,
		"visibility": item.Scope,
		"tags":       item.Tags,
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
