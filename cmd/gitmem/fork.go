package main

import (
	"fmt"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewForkCmd(svc func() *internal.BranchService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fork [name]",
		Short: "Fork the current timeline",
		Long:  `Create a new ref pointing at the head of the source ref. With --to-agent, the fork becomes another agent's main timeline. Forks share all history up to the fork point.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  makeForkRunner(svc),
	}

	cmd.Flags().String("to-agent", "", "Fork into another agent's namespace")
	return cmd
}

func makeForkRunner(svc func() *internal.BranchService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")
		refName, _ := cmd.Flags().GetString("ref")
		toAgent, _ := cmd.Flags().GetString("to-agent")

		if toAgent != "" {
			ref, err := svc().ForkAgent(cmd.Context(), agentID, refName, toAgent, scopeHint)
			if err != nil {
				return fmt.Errorf("fork agent: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forked to agent %s at %s\n", toAgent, ref.Target.Short())
			return nil
		}

		if len(args) == 0 {
			return fmt.Errorf("a ref name or --to-agent is required")
		}

		ref, err := svc().Fork(cmd.Context(), agentID, refName, args[0], scopeHint)
		if err != nil {
			return fmt.Errorf("fork: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Forked %s at %s\n", ref.Name, ref.Target.Short())
		return nil
	}
}
