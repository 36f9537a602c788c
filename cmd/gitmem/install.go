package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install git hooks for automatic memory capture",
		Long:  `Install a post-commit hook that records each commit of the host repository as an episodic memory.`,
		RunE:  runInstall,
	}

	cmd.Flags().Bool("force", false, "Overwrite existing hook (backs up original)")
	return cmd
}

func runInstall(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	gitDir, err := internal.FindGitDir(cwd)
	if err != nil {
		return err
	}

	hooksDir := filepath.Join(gitDir, "hooks")
	if err := os.MkdirAll(hooksDir, 0755); err != nil {
		return fmt.Errorf("create hooks directory: %w", err)
	}

	hookPath := filepath.Join(hooksDir, "post-commit")
	if existing, err := os.ReadFile(hookPath); err == nil {
		if internal.IsManagedHook(string(existing)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Hook already installed")
			return nil
		}
		if !force {
			return fmt.Errorf("a post-commit hook already exists, use --force to replace it")
		}
		if err := os.WriteFile(hookPath+".bak", existing, 0755); err != nil {
			return fmt.Errorf("back up existing hook: %w", err)
		}
	}

	if err := os.WriteFile(hookPath, []byte(internal.HookScript("post-commit")), 0755); err != nil {
		return fmt.Errorf("write hook: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Installed post-commit hook")
	return nil
}
