package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gitmem/gitmem/internal"
)

// Subcommands that do not match a builtin are dispatched git-style to
// gitmem-<name> binaries on PATH. Externals inherit the resolved scope
// and agent identity through GITMEM_* environment variables.

const externalPrefix = "gitmem-"

func findExternal(name string) (string, error) {
	path, err := exec.LookPath(externalPrefix + name)
	if err != nil {
		return "", fmt.Errorf("unknown command %q: %s%s not found in PATH", name, externalPrefix, name)
	}
	return path, nil
}

// listExternalCommands scans PATH for executable gitmem-* binaries and
// returns their suffixes, sorted.
func listExternalCommands() []string {
	seen := make(map[string]bool)

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name, ok := strings.CutPrefix(entry.Name(), externalPrefix)
			if !ok || name == "" || entry.IsDir() {
				continue
			}
			if !isExecutable(filepath.Join(dir, entry.Name())) {
				continue
			}
			seen[name] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode()&0111 != 0
}

func executeExternal(ctx context.Context, name string, args []string, version string) error {
	binary, err := findExternal(name)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = externalEnv(version)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

func externalEnv(version string) []string {
	resolver := internal.NewScopeResolver()
	scope := resolver.Resolve("")

	agentID := "default"
	if cfg, err := internal.LoadConfig(scope); err == nil && cfg.AgentID != "" {
		agentID = cfg.AgentID
	}

	env := os.Environ()
	for key, value := range resolver.EnvVars(scope, agentID, version) {
		env = append(env, key+"="+value)
	}
	return env
}
