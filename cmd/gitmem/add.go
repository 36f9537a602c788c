package main

import (
	"fmt"
	"io"
	"os"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewAddCmd(svc func() *internal.MemoryService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Record a new memory",
		Long:  `Record a new memory and commit it to the agent's timeline. Reads from stdin if content is not provided.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  makeAddRunner(svc),
	}

	cmd.Flags().StringP("type", "t", "episodic", "Memory type (episodic|semantic|procedural|state)")
	cmd.Flags().StringSliceP("tag", "T", nil, "Tags to attach")
	cmd.Flags().Float64P("importance", "i", 0, "Importance score (0..1)")
	cmd.Flags().String("visibility", "", "Memory visibility (private|shared|global)")
	cmd.Flags().StringP("message", "m", "", "Commit message")
	cmd.Flags().Bool("stage", false, "Stage instead of committing immediately")
	return cmd
}

func makeAddRunner(svc func() *internal.MemoryService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		content, err := resolveContent(args)
		if err != nil {
			return err
		}

		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")
		typ, _ := cmd.Flags().GetString("type")
		tags, _ := cmd.Flags().GetStringSlice("tag")
		importance, _ := cmd.Flags().GetFloat64("importance")
		visibility, _ := cmd.Flags().GetString("visibility")
		message, _ := cmd.Flags().GetString("message")
		stage, _ := cmd.Flags().GetBool("stage")

		item, commit, err := svc().Add(cmd.Context(), content, agentID, scopeHint, internal.AddOptions{
			Type:       internal.MemoryType(typ),
			Scope:      internal.MemoryScope(visibility),
			Importance: importance,
			Tags:       tags,
			Message:    message,
			Stage:      stage,
		})
		if err != nil {
			return fmt.Errorf("add memory: %w", err)
		}

		if stage {
			fmt.Fprintf(cmd.OutOrStdout(), "Staged %s\n", item.TreePath())
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", commit.Hash.Short(), item.TreePath())
		return nil
	}
}

func resolveContent(args []string) (string, error) {
	if len(args) >= 1 {
		return args[0], nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
