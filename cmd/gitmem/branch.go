package main

import (
	"encoding/json"
	"fmt"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewBranchCmd(svc func() *internal.BranchService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "List refs",
		Long:  `List the refs in the agent's namespace.`,
		RunE:  makeBranchListRunner(svc),
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a ref",
		Long:  `Create a new ref at the head of the target ref. Same as fork.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeBranchCreateRunner(svc),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a ref",
		Long:  `Delete a ref. The commits it pointed at stay in the object store.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeBranchDeleteRunner(svc),
	}

	cmd.AddCommand(createCmd, deleteCmd)
	return cmd
}

func makeBranchCreateRunner(svc func() *internal.BranchService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")
		refName, _ := cmd.Flags().GetString("ref")

		ref, err := svc().Fork(cmd.Context(), agentID, refName, args[0], scopeHint)
		if err != nil {
			return fmt.Errorf("create ref: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created %s at %s\n", ref.Name, ref.Target.Short())
		return nil
	}
}

func makeBranchListRunner(svc func() *internal.BranchService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")
		asJSON, _ := cmd.Flags().GetBool("json")

		refs, err := svc().List(cmd.Context(), agentID, scopeHint)
		if err != nil {
			return fmt.Errorf("list refs: %w", err)
		}

		if asJSON {
			return outputRefsJSON(cmd, refs)
		}

		for _, ref := range refs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", ref.Target.Short(), ref.Name)
		}
		return nil
	}
}

func makeBranchDeleteRunner(svc func() *internal.BranchService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")

		if err := svc().Delete(cmd.Context(), agentID, args[0], scopeHint); err != nil {
			return fmt.Errorf("delete ref: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	}
}

func outputRefsJSON(cmd *cobra.Command, refs []internal.Ref) error {
	out := make([]map[string]any, 0, len(refs))
	for _, ref := range refs {
		out = append(out, map[string]any{
			"agent_id": ref.AgentID,
			"name":     ref.Name,
			"target":   ref.Target,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
