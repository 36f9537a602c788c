package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const HookMarker = "# gitmem: managed post-commit hook"

// HookScript returns the shell shim content for a given hook type.
func HookScript(hookType string) string {
	return fmt.Sprintf("#!/bin/sh\n%s\nexec gitmem hook run %s \"$@\"\n", HookMarker, hookType)
}

// IsManagedHook checks if the given script content was written by gitmem.
func IsManagedHook(content string) bool {
	return strings.Contains(content, HookMarker)
}

// FindGitDir walks up from dir looking for a .git directory.
func FindGitDir(dir string) (string, error) {
	for {
		gitDir := filepath.Join(dir, ".git")
		info, err := os.Stat(gitDir)
		if err == nil && info.IsDir() {
			return gitDir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a git repository (no .git found)")
		}
		dir = parent
	}
}

// CommitContext holds metadata about a host git commit captured by the
// post-commit hook. The hook turns it into an episodic memory.
type CommitContext struct {
	Hash    string
	Message string
	Author  string
	Diff    string
}

// HookMemoryContent renders a commit context as memory content.
func HookMemoryContent(cc CommitContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "git commit %s by %s\n\n%s", cc.Hash, cc.Author, cc.Message)
	if cc.Diff != "" {
		fmt.Fprintf(&b, "\n\n%s", cc.Diff)
	}
	return b.String()
}
