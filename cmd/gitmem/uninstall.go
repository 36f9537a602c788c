package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove gitmem git hooks",
		Long:  `Remove the post-commit hook installed by gitmem. Restores any backed-up original hook.`,
		RunE:  runUninstall,
	}
}

func runUninstall(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	gitDir, err := internal.FindGitDir(cwd)
	if err != nil {
		return err
	}

	hookPath := filepath.Join(gitDir, "hooks", "post-commit")
	content, err := os.ReadFile(hookPath)
	if os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "No hook installed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read hook: %w", err)
	}

	if !internal.IsManagedHook(string(content)) {
		return fmt.Errorf("post-commit hook was not installed by gitmem")
	}

	if err := os.Remove(hookPath); err != nil {
		return fmt.Errorf("remove hook: %w", err)
	}

	if backup, err := os.ReadFile(hookPath + ".bak"); err == nil {
		if err := os.WriteFile(hookPath, backup, 0755); err != nil {
			return fmt.Errorf("restore backup: %w", err)
		}
		_ = os.Remove(hookPath + ".bak")
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Uninstalled post-commit hook")
	return nil
}
