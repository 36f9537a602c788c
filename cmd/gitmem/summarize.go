package main

import (
	"encoding/json"
	"fmt"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewSummarizeCmd(svc func() *internal.SummarizeService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize memories using AI",
		Long:  `Generate an AI-powered summary of the memories at the head of the target ref.`,
		RunE:  makeSummarizeRunner(svc),
	}

	return cmd
}

func makeSummarizeRunner(svc func() *internal.SummarizeService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")
		refName, _ := cmd.Flags().GetString("ref")
		asJSON, _ := cmd.Flags().GetBool("json")

		out, err := svc().Summarize(cmd.Context(), agentID, refName, scopeHint)
		if err != nil {
			return fmt.Errorf("summarize: %w", err)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n\n%s\n", out.Title, out.Overview)
		if len(out.KeyPoints) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "\nKey Points:")
			for _, p := range out.KeyPoints {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", p)
			}
		}
		if len(out.Tags) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "\nTags: %v\n", out.Tags)
		}
		return nil
	}
}
