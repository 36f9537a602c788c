package main

import (
	"fmt"
	"os"

	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new memory store",
		Long:  `Initialize a new .gitmem directory with a content-addressable object store.`,
		RunE:  runInit,
	}

	cmd.Flags().Bool("global", false, "Initialize global scope (~/.gitmem)")
	cmd.Flags().String("backend", "", "Storage backend (fs|sqlite)")
	cmd.Flags().String("agent", "", "Default agent id")
	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	isGlobal, _ := cmd.Flags().GetBool("global")
	backend, _ := cmd.Flags().GetString("backend")
	agentID, _ := cmd.Flags().GetString("agent")

	resolver := internal.NewScopeResolver()

	var scope internal.Scope
	if isGlobal {
		scope = resolver.Global()
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		scope = internal.NewScope(internal.ScopeProject, cwd)
	}

	if _, err := os.Stat(scope.GitmemPath); err == nil {
		return fmt.Errorf("already initialized at %s", scope.GitmemPath)
	}

	if err := internal.InitRepository(scope); err != nil {
		return fmt.Errorf("init repository: %w", err)
	}

	cfg := internal.DefaultConfig()
	if backend != "" {
		b := internal.StoreBackend(backend)
		if b != internal.StoreBackendFS && b != internal.StoreBackendSQLite {
			return fmt.Errorf("unknown backend: %s", backend)
		}
		cfg.Store.Backend = b
	}
	if agentID != "" {
		if !internal.ValidAgentID(agentID) {
			return fmt.Errorf("%s: %w", agentID, internal.ErrInvalidAgentID)
		}
		cfg.AgentID = agentID
	}

	if err := internal.SaveConfig(scope, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized memory store at %s\n", scope.GitmemPath)
	return nil
}
