package main

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewHookCmd(svc func() *internal.MemoryService) *cobra.Command {
	hookCmd := &cobra.Command{
		Use:    "hook",
		Short:  "Git hook management (internal)",
		Hidden: true,
	}

	runCmd := &cobra.Command{
		Use:   "run [hook-type]",
		Short: "Execute a hook handler",
		Args:  cobra.ExactArgs(1),
		RunE:  makeHookRunRunner(svc),
	}

	hookCmd.AddCommand(runCmd)
	return hookCmd
}

func makeHookRunRunner(svc func() *internal.MemoryService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		hookType := args[0]
		if hookType != "post-commit" {
			return fmt.Errorf("unsupported hook type: %s", hookType)
		}

		cc, err := gatherCommitContext()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "gitmem hook: failed to gather context: %v\n", err)
			return nil
		}

		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")

		_, _, err = svc().Add(cmd.Context(), internal.HookMemoryContent(*cc), agentID, scopeHint, internal.AddOptions{
			Type:    internal.MemoryEpisodic,
			Tags:    []string{"git-commit", cc.Hash},
			Message: fmt.Sprintf("hook: capture commit %s", cc.Hash),
		})
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "gitmem hook: %v\n", err)
		}

		return nil
	}
}

func gatherCommitContext() (*internal.CommitContext, error) {
	hash, err := gitOutput("rev-parse", "--short", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("get commit hash: %w", err)
	}

	message, err := gitOutput("log", "-1", "--format=%s")
	if err != nil {
		return nil, fmt.Errorf("get commit message: %w", err)
	}

	author, err := gitOutput("log", "-1", "--format=%an")
	if err != nil {
		return nil, fmt.Errorf("get commit author: %w", err)
	}

	diff, err := gitOutput("diff", "HEAD~1..HEAD")
	if err != nil {
		diff = ""
	}

	return &internal.CommitContext{
		Hash:    strings.TrimSpace(hash),
		Message: strings.TrimSpace(message),
		Author:  strings.TrimSpace(author),
		Diff:    diff,
	}, nil
}

func gitOutput(args ...string) (string, error) {
	out, err := exec.Command("git", args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
