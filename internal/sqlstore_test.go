package internal

import (
	"context"
	"path/filepath"
	"testing"
)

func newSQLTestStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := NewSQLStore(filepath.Join(t.TempDir(), "gitmem.db"))
	if err != nil {
		t.Fatalf("new sql store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLStoreContract(t *testing.T) {
	storeContract(t, newSQLTestStore(t))
}

func TestSQLStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gitmem.db")

	store, err := NewSQLStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	hash, err := store.Put(ctx, BlobObject, []byte("durable"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.CreateRef(ctx, "agent-1", "main", hash); err != nil {
		t.Fatalf("create ref: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	_, body, err := reopened.Get(ctx, hash)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(body) != "durable" {
		t.Errorf("body = %q", body)
	}

	target, err := reopened.ResolveRef(ctx, "agent-1", "main")
	if err != nil {
		t.Fatalf("resolve after reopen: %v", err)
	}
	if target != hash {
		t.Errorf("ref = %s, want %s", target, hash)
	}
}

func TestSQLStoreRepositoryFlow(t *testing.T) {
	ctx := context.Background()
	repo := NewRepositoryWithStore(newSQLTestStore(t))

	_, c1 := addMemory(t, repo, "agent-1", "works on sqlite too", MemorySemantic)

	items, err := repo.CheckoutCommit(ctx, c1.Hash)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(items) != 1 || items[0].Content != "works on sqlite too" {
		t.Errorf("items = %v", items)
	}
}
