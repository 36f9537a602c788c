package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gitmem/gitmem/internal"
	"github.com/spf13/cobra"
)

func NewWatchCmd(svc func() *internal.MemoryService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Watch a directory and ingest files as memories",
		Long:  `Watch a directory for changes and record each changed file as a memory. Paths matching .gitmemignore are skipped.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  makeWatchRunner(svc),
	}

	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for batching changes")
	cmd.Flags().StringP("type", "t", "episodic", "Memory type for ingested files")
	return cmd
}

func makeWatchRunner(svc func() *internal.MemoryService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		scopeHint, _ := cmd.Flags().GetString("scope")
		agentID, _ := cmd.Flags().GetString("agent")
		debounce, _ := cmd.Flags().GetDuration("debounce")
		typ, _ := cmd.Flags().GetString("type")

		root, err := watchRoot(args)
		if err != nil {
			return err
		}

		matcher, err := internal.NewIgnoreMatcher(root)
		if err != nil {
			return fmt.Errorf("load ignore patterns: %w", err)
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		if err := addWatchDirs(watcher, root, matcher); err != nil {
			return fmt.Errorf("add watch dirs: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", root)

		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		pending := make(map[string]struct{})

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if shouldIgnoreEvent(event, matcher) {
					continue
				}
				if len(pending) == 0 {
					timer.Reset(debounce)
				}
				pending[event.Name] = struct{}{}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
			case <-timer.C:
				for path := range pending {
					delete(pending, path)
					ingestFile(cmd, svc(), path, agentID, scopeHint, typ)
				}
			}
		}
	}
}

func watchRoot(args []string) (string, error) {
	if len(args) == 1 {
		return filepath.Abs(args[0])
	}
	return os.Getwd()
}

func ingestFile(cmd *cobra.Command, svc *internal.MemoryService, path, agentID, scopeHint, typ string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	item, commit, err := svc.Add(cmd.Context(), string(data), agentID, scopeHint, internal.AddOptions{
		Type:    internal.MemoryType(typ),
		Tags:    []string{"watch", filepath.Base(path)},
		Message: fmt.Sprintf("watch: ingest %s", filepath.Base(path)),
	})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "ingest %s: %v\n", path, err)
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s <- %s\n", commit.Hash.Short(), item.TreePath(), path)
}

func addWatchDirs(watcher *fsnotify.Watcher, root string, matcher *internal.IgnoreMatcher) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if info.IsDir() {
			base := filepath.Base(path)
			if strings.HasPrefix(base, ".") && path != root {
				return filepath.SkipDir
			}
			if matcher.MatchDir(path) {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

func shouldIgnoreEvent(event fsnotify.Event, matcher *internal.IgnoreMatcher) bool {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return true
	}

	if matcher.Match(event.Name) {
		return true
	}

	return event.Op&(fsnotify.Write|fsnotify.Create) == 0
}
