package main

import (
	"encoding/json"
	"fmt"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewLogCmd(svc func() *internal.HistoryService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show commit history",
		Long:  `Walk the commit DAG from the head of the target ref, newest first.`,
		RunE:  makeLogRunner(svc),
	}

	cmd.Flags().IntP("number", "n", 10, "Limit number of commits")
	cmd.Flags().Bool("oneline", false, "Show each commit on one line")
	return cmd
}

func makeLogRunner(svc func() *internal.HistoryService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("number")
		oneline, _ := cmd.Flags().GetBool("oneline")
		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")
		refName, _ := cmd.Flags().GetString("ref")
		asJSON, _ := cmd.Flags().GetBool("json")

		commits, err := svc().Log(cmd.Context(), agentID, refName, limit, scopeHint)
		if err != nil {
			return fmt.Errorf("get log: %w", err)
		}

		if asJSON {
			return outputCommitsJSON(cmd, commits)
		}

		for _, c := range commits {
			if oneline {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", c.Hash.Short(), c.Message)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "commit %s\n", c.Hash)
			fmt.Fprintf(cmd.OutOrStdout(), "Agent:  %s\n", c.AgentID)
			fmt.Fprintf(cmd.OutOrStdout(), "Date:   %s\n", c.Timestamp.Format("Mon Jan 2 15:04:05 2006 -0700"))
			fmt.Fprintf(cmd.OutOrStdout(), "Stats:  +%d -%d ~%d\n\n", c.Stats.Added, c.Stats.Removed, c.Stats.Modified)
			fmt.Fprintf(cmd.OutOrStdout(), "    %s\n\n", c.Message)
		}
		return nil
	}
}

func outputCommitsJSON(cmd *cobra.Command, commits []*internal.Commit) error {
	out := make([]map[string]any, 0, len(commits))
	for _, c := range commits {
		out = append(out, map[string]any{
			"hash":      c.Hash,
			"tree":      c.TreeHash,
			"parents":   c.Parents,
			"agent_id":  c.AgentID,
			"author_id": c.AuthorID,
			"message":   c.Message,
			"timestamp": c.Timestamp,
			"stats": map[string]int{
				"added":    c.Stats.Added,
				"removed":  c.Stats.Removed,
				"modified": c.Stats.Modified,
			},
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
