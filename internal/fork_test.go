package internal

import (
	"context"
	"errors"
	"testing"
)

func TestForkSharesHistory(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, c1 := addMemory(t, repo, "agent-1", "shared past", MemorySemantic)

	ref, err := repo.Forker().Fork(ctx, "agent-1", DefaultRef, "experiment")
	if err != nil {
		t.Fatalf("fork: %v", err)
	}
	if ref.Target != c1.Hash {
		t.Errorf("fork target = %s, want head %s", ref.Target.Short(), c1.Hash.Short())
	}

	// Advancing the source leaves the fork untouched.
	_, c2 := addMemory(t, repo, "agent-1", "only on main", MemoryEpisodic)

	forkHead, err := repo.Refs().Resolve(ctx, "agent-1", "experiment")
	if err != nil {
		t.Fatalf("resolve fork: %v", err)
	}
	if forkHead != c1.Hash {
		t.Errorf("fork moved to %s after source advanced", forkHead.Short())
	}

	mainHead, err := repo.Refs().Resolve(ctx, "agent-1", DefaultRef)
	if err != nil {
		t.Fatalf("resolve main: %v", err)
	}
	if mainHead != c2.Hash {
		t.Errorf("main = %s, want %s", mainHead.Short(), c2.Hash.Short())
	}
}

func TestForkExistingName(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	addMemory(t, repo, "agent-1", "base", MemorySemantic)

	if _, err := repo.Forker().Fork(ctx, "agent-1", DefaultRef, "experiment"); err != nil {
		t.Fatalf("first fork: %v", err)
	}
	if _, err := repo.Forker().Fork(ctx, "agent-1", DefaultRef, "experiment"); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate fork = %v, want ErrConflict", err)
	}
}

func TestForkMissingSource(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.Forker().Fork(ctx, "agent-1", DefaultRef, "experiment"); !errors.Is(err, ErrRefNotFound) {
		t.Errorf("fork of missing ref = %v, want ErrRefNotFound", err)
	}
}

func TestForkAgent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, c1 := addMemory(t, repo, "agent-1", "inherited knowledge", MemorySemantic)

	ref, err := repo.Forker().ForkAgent(ctx, "agent-1", DefaultRef, "agent-2")
	if err != nil {
		t.Fatalf("fork agent: %v", err)
	}
	if ref.AgentID != "agent-2" || ref.Name != DefaultRef {
		t.Errorf("fork ref = %s/%s", ref.AgentID, ref.Name)
	}
	if ref.Target != c1.Hash {
		t.Errorf("fork target = %s, want %s", ref.Target.Short(), c1.Hash.Short())
	}

	// The new agent reads the shared snapshot, then diverges freely.
	items, err := repo.CheckoutHead(ctx, "agent-2", DefaultRef)
	if err != nil {
		t.Fatalf("checkout agent-2: %v", err)
	}
	if len(items) != 1 || items[0].Content != "inherited knowledge" {
		t.Errorf("agent-2 state = %v", items)
	}

	addMemory(t, repo, "agent-2", "own discovery", MemoryEpisodic)

	mainItems, err := repo.CheckoutHead(ctx, "agent-1", DefaultRef)
	if err != nil {
		t.Fatalf("checkout agent-1: %v", err)
	}
	if len(mainItems) != 1 {
		t.Errorf("agent-1 sees %d items after agent-2 diverged, want 1", len(mainItems))
	}
}

func TestDeleteForkKeepsCommits(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, c1 := addMemory(t, repo, "agent-1", "base", MemorySemantic)

	if _, err := repo.Forker().Fork(ctx, "agent-1", DefaultRef, "scratch"); err != nil {
		t.Fatalf("fork: %v", err)
	}
	if err := repo.Refs().Delete(ctx, "agent-1", "scratch"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// The commit the fork pointed at is still loadable.
	if _, err := repo.Graph().Load(ctx, c1.Hash); err != nil {
		t.Errorf("commit unreachable after ref delete: %v", err)
	}
}
