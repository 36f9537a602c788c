package main

import (
	"context"
	"testing"

	"github.com/gitmem/gitmem/internal"
)

type testServices struct {
	repo    *internal.Repository
	memory  *internal.MemoryService
	history *internal.HistoryService
	branch  *internal.BranchService
	search  *internal.SearchService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	store, err := internal.NewFSStore(internal.NewMemFS())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	repo := internal.NewRepositoryWithStore(store)

	resolver := internal.NewScopeResolver()
	repoFor := func(internal.Scope) (*internal.Repository, error) { return repo, nil }
	indexFor := func(internal.Scope) (*internal.AnnoyIndex, error) { return nil, nil }

	return &testServices{
		repo:    repo,
		memory:  internal.NewMemoryService(resolver, repoFor, indexFor, nil),
		history: internal.NewHistoryService(resolver, repoFor),
		branch:  internal.NewBranchService(resolver, repoFor),
		search:  internal.NewSearchService(resolver, repoFor, indexFor, nil),
	}
}

func seedMemory(t *testing.T, repo *internal.Repository, content string) (*internal.MemoryItem, *internal.Commit) {
	t.Helper()

	item := internal.NewMemoryItem("default", content, internal.MemoryEpisodic)
	commit, err := repo.AddMemory(context.Background(), item, "")
	if err != nil {
		t.Fatalf("seed memory: %v", err)
	}
	return item, commit
}
